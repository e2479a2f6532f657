package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: JAVAKG_[SECTION]_[KEY] (e.g., JAVAKG_EXTRACT_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Source
	setEnvString(&cfg.Source.Root, "JAVAKG_SOURCE_ROOT")
	setEnvList(&cfg.Source.ExcludeDirs, "JAVAKG_SOURCE_EXCLUDE_DIRS")
	setEnvList(&cfg.Source.ExcludeFiles, "JAVAKG_SOURCE_EXCLUDE_FILES")
	setEnvList(&cfg.Source.ExtraBuildFiles, "JAVAKG_SOURCE_EXTRA_BUILD_FILES")
	setEnvBool(&cfg.Source.FollowSymlinks, "JAVAKG_SOURCE_FOLLOW_SYMLINKS")

	// Extraction and limits
	setEnvInt(&cfg.Extract.Workers, "JAVAKG_EXTRACT_WORKERS")
	setEnvBool(&cfg.Extract.VerifySyntax, "JAVAKG_EXTRACT_VERIFY_SYNTAX")
	setEnvInt64(&cfg.Limits.MaxFileBytes, "JAVAKG_LIMITS_MAX_FILE_BYTES")
	setEnvDuration(&cfg.Limits.ReadTimeout, "JAVAKG_LIMITS_READ_TIMEOUT")
	setEnvFloat64(&cfg.Limits.FilesPerSecond, "JAVAKG_LIMITS_FILES_PER_SECOND")

	setEnvString(&cfg.Graph.IDStyle, "JAVAKG_GRAPH_ID_STYLE")

	// Output
	setEnvString(&cfg.Output.JSON, "JAVAKG_OUTPUT_JSON")
	setEnvString(&cfg.Output.DOT, "JAVAKG_OUTPUT_DOT")
	setEnvString(&cfg.Output.Mermaid, "JAVAKG_OUTPUT_MERMAID")
	setEnvString(&cfg.Output.SQLite, "JAVAKG_OUTPUT_SQLITE")
	setEnvString(&cfg.Output.Neo4j.URI, "JAVAKG_OUTPUT_NEO4J_URI")
	setEnvString(&cfg.Output.Neo4j.Username, "JAVAKG_OUTPUT_NEO4J_USERNAME")
	setEnvString(&cfg.Output.Neo4j.Password, "JAVAKG_OUTPUT_NEO4J_PASSWORD")
	setEnvString(&cfg.Output.Neo4j.Database, "JAVAKG_OUTPUT_NEO4J_DATABASE")
	setEnvString(&cfg.Output.Artifact.Endpoint, "JAVAKG_OUTPUT_ARTIFACT_ENDPOINT")
	setEnvString(&cfg.Output.Artifact.Bucket, "JAVAKG_OUTPUT_ARTIFACT_BUCKET")
	setEnvString(&cfg.Output.Artifact.AccessKey, "JAVAKG_OUTPUT_ARTIFACT_ACCESS_KEY")
	setEnvString(&cfg.Output.Artifact.SecretKey, "JAVAKG_OUTPUT_ARTIFACT_SECRET_KEY")
	setEnvBool(&cfg.Output.Artifact.UseSSL, "JAVAKG_OUTPUT_ARTIFACT_USE_SSL")

	// Caches and watch
	setEnvInt(&cfg.Caches.Records, "JAVAKG_CACHES_RECORDS")
	setEnvDuration(&cfg.Watch.Debounce, "JAVAKG_WATCH_DEBOUNCE")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "JAVAKG_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "JAVAKG_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "JAVAKG_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "JAVAKG_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "JAVAKG_OBSERVABILITY_ENABLE_METRICS")
}

func logOverride(key string) {
	// values can be secrets, only the key is logged
	slog.Debug("applying env override", "key", key)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key)
		*target = val
	}
}

// setEnvList splits a comma separated value; an empty value clears the list.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	logOverride(key)
	out := []string{}
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*target = out
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			logOverride(key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key)
			*target = d
		}
	}
}
