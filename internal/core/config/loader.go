package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"time"

	coreerrors "javakg/internal/core/errors"
	"javakg/internal/engine/locator"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultOutputJSON   = "java_code_knowledge_graph.json"
	DefaultMaxFileBytes = 4 << 20
	DefaultReadTimeout  = 5 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
	DefaultRecordCache  = 4096
	DefaultNeo4jBatch   = 500
	DefaultMetricsPort  = 9464
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a TOML file, applies defaults and JAVAKG_* environment
// overrides, and validates the result. A missing file is an error; callers
// that treat the file as optional check with os.Stat first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := coreerrors.CodeIO
		if errors.Is(err, fs.ErrNotExist) {
			code = coreerrors.CodeNotFound
		}
		return nil, coreerrors.AddContext(coreerrors.Wrap(err, code, "read config"), coreerrors.CtxPath, path)
	}
	return Parse(string(data))
}

// Parse decodes TOML content the same way Load does.
func Parse(content string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode config")
	}
	return Finish(&cfg)
}

// Finish applies defaults and environment overrides, then validates.
func Finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, coreerrors.Wrap(errors.Join(errs...), coreerrors.CodeValidationError, "invalid config")
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overwriting variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeValidationError, "load .env")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Source.Root) == "" {
		cfg.Source.Root = "."
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = []string{".java"}
	}
	if cfg.Source.ExcludeDirs == nil {
		cfg.Source.ExcludeDirs = append([]string(nil), locator.DefaultExcludeDirs...)
	}
	if len(cfg.Source.BuildFiles) == 0 {
		cfg.Source.BuildFiles = append([]string(nil), locator.DefaultBuildFiles...)
	}

	if cfg.Extract.Workers <= 0 {
		cfg.Extract.Workers = runtime.NumCPU()
	}

	if cfg.Limits.MaxFileBytes <= 0 {
		cfg.Limits.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.Limits.ReadTimeout <= 0 {
		cfg.Limits.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Limits.Burst <= 0 {
		cfg.Limits.Burst = 1
	}

	if strings.TrimSpace(cfg.Graph.IDStyle) == "" {
		cfg.Graph.IDStyle = "path"
	}

	if strings.TrimSpace(cfg.Output.JSON) == "" {
		cfg.Output.JSON = DefaultOutputJSON
	}
	if cfg.Output.Neo4j.BatchSize <= 0 {
		cfg.Output.Neo4j.BatchSize = DefaultNeo4jBatch
	}
	if strings.TrimSpace(cfg.Output.Neo4j.Database) == "" {
		cfg.Output.Neo4j.Database = "neo4j"
	}

	if cfg.Caches.Records == 0 {
		cfg.Caches.Records = DefaultRecordCache
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = DefaultMetricsPort
	}
}

// Rules converts the source section into locator rules for root.
func (c *Config) Rules(root string) locator.Rules {
	r := locator.DefaultRules(root)
	r.Extensions = append([]string(nil), c.Source.Extensions...)
	r.ExcludeDirs = append([]string(nil), c.Source.ExcludeDirs...)
	r.ExcludeFiles = append([]string(nil), c.Source.ExcludeFiles...)
	r.BuildFiles = append([]string(nil), c.Source.BuildFiles...)
	r.ExtraBuildFiles = append([]string(nil), c.Source.ExtraBuildFiles...)
	r.UseGitignore = c.Source.GitignoreEnabled()
	r.FollowSymlinks = c.Source.FollowSymlinks
	return r
}
