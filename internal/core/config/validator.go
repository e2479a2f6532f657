package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate returns every problem found rather than stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error
	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version))
	}
	errs = append(errs, validateSource(cfg)...)
	errs = append(errs, validateLimits(cfg)...)
	errs = append(errs, validateOutput(cfg)...)

	switch cfg.Graph.IDStyle {
	case "path", "uuid":
	default:
		errs = append(errs, fmt.Errorf("graph.id_style must be one of: path, uuid; got %q", cfg.Graph.IDStyle))
	}
	if cfg.Caches.Records < 0 {
		errs = append(errs, fmt.Errorf("caches.records must be >= 0, got %d", cfg.Caches.Records))
	}
	if cfg.Observability.Port < 0 || cfg.Observability.Port > 65535 {
		errs = append(errs, fmt.Errorf("observability.port must be within 0..65535, got %d", cfg.Observability.Port))
	}
	return errs
}

func validateSource(cfg *Config) []error {
	var errs []error
	for _, ext := range cfg.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("source.extensions entry %q must start with '.'", ext))
		}
	}
	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"source.exclude_dirs", cfg.Source.ExcludeDirs},
		{"source.exclude_files", cfg.Source.ExcludeFiles},
	} {
		for _, p := range group.patterns {
			if _, err := glob.Compile(p, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%s pattern %q is invalid: %w", group.name, p, err))
			}
		}
	}
	return errs
}

func validateLimits(cfg *Config) []error {
	var errs []error
	if cfg.Extract.Workers < 1 {
		errs = append(errs, fmt.Errorf("extract.workers must be >= 1, got %d", cfg.Extract.Workers))
	}
	if cfg.Limits.FilesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("limits.files_per_second must be >= 0, got %g", cfg.Limits.FilesPerSecond))
	}
	return errs
}

func validateOutput(cfg *Config) []error {
	var errs []error
	seen := make(map[string]string)
	for _, target := range []struct {
		key  string
		path string
	}{
		{"output.json", cfg.Output.JSON},
		{"output.dot", cfg.Output.DOT},
		{"output.mermaid", cfg.Output.Mermaid},
		{"output.sqlite", cfg.Output.SQLite},
	} {
		if strings.TrimSpace(target.path) == "" {
			continue
		}
		clean := filepath.Clean(target.path)
		if prev, ok := seen[clean]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", prev, target.key, target.path))
			continue
		}
		seen[clean] = target.key
	}

	a := cfg.Output.Artifact
	if (a.Endpoint == "") != (a.Bucket == "") {
		errs = append(errs, fmt.Errorf("output.artifact requires both endpoint and bucket"))
	}
	if cfg.Output.Neo4j.URI != "" && !strings.Contains(cfg.Output.Neo4j.URI, "://") {
		errs = append(errs, fmt.Errorf("output.neo4j.uri %q must include a scheme such as bolt:// or neo4j://", cfg.Output.Neo4j.URI))
	}
	return errs
}
