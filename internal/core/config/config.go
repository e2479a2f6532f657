package config

import (
	"time"
)

const DefaultFile = "javakg.toml"

type Config struct {
	Version       int           `toml:"version"`
	Source        Source        `toml:"source"`
	Extract       Extract       `toml:"extract"`
	Limits        Limits        `toml:"limits"`
	Graph         Graph         `toml:"graph"`
	Output        Output        `toml:"output"`
	Caches        Caches        `toml:"caches"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Source struct {
	Root            string   `toml:"root"`
	Extensions      []string `toml:"extensions"`
	ExcludeDirs     []string `toml:"exclude_dirs"`
	ExcludeFiles    []string `toml:"exclude_files"`
	BuildFiles      []string `toml:"build_files"`
	ExtraBuildFiles []string `toml:"extra_build_files"`
	UseGitignore    *bool    `toml:"use_gitignore"`
	FollowSymlinks  bool     `toml:"follow_symlinks"`
}

type Extract struct {
	Workers      int  `toml:"workers"`
	VerifySyntax bool `toml:"verify_syntax"`
}

type Limits struct {
	MaxFileBytes   int64         `toml:"max_file_bytes"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	FilesPerSecond float64       `toml:"files_per_second"`
	Burst          int           `toml:"burst"`
}

type Graph struct {
	IDStyle string `toml:"id_style"` // path | uuid
}

type Output struct {
	JSON     string   `toml:"json"`
	Compact  *bool    `toml:"compact"`
	Indent   bool     `toml:"indent"`
	DOT      string   `toml:"dot"`
	Mermaid  string   `toml:"mermaid"`
	Members  bool     `toml:"diagram_members"`
	SQLite   string   `toml:"sqlite"`
	Neo4j    Neo4j    `toml:"neo4j"`
	Artifact Artifact `toml:"artifact"`
}

type Neo4j struct {
	URI       string `toml:"uri"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Database  string `toml:"database"`
	BatchSize int    `toml:"batch_size"`
}

type Artifact struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix"`
}

type Caches struct {
	Records int `toml:"records"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// GitignoreEnabled defaults to true when the key is absent.
func (s Source) GitignoreEnabled() bool {
	return s.UseGitignore == nil || *s.UseGitignore
}

// CompactEnabled defaults to true when the key is absent.
func (o Output) CompactEnabled() bool {
	return o.Compact == nil || *o.Compact
}

func (n Neo4j) Enabled() bool { return n.URI != "" }

func (a Artifact) Enabled() bool { return a.Endpoint != "" && a.Bucket != "" }
