package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"javakg/internal/core/config"
	"javakg/internal/engine/diagnostic"
	"javakg/internal/engine/graph"
	"javakg/internal/engine/syntax"
	"javakg/internal/shared/util"
)

// Phase names reported through progress updates and used as span names.
const (
	PhaseLocate   = "locate"
	PhaseExtract  = "extract"
	PhaseAssemble = "assemble"
	PhaseWrite    = "write"
	PhaseExport   = "export"
)

type Progress struct {
	Phase string
	Done  int
	Total int
}

// Result describes one completed run.
type Result struct {
	Graph        *graph.Graph
	OutputPath   string
	Outputs      []string
	Files        int
	Readable     int
	CacheHits    int
	RunID        string
	Duration     time.Duration
	Diagnostics  diagnostic.List
	ExportErrors []error // sink failures; the JSON output was still written
}

type App struct {
	Config *config.Config
	Logger *slog.Logger

	verifier *syntax.Verifier
	limiter  *util.Limiter
	records  *lru.Cache[string, cachedRecord]
	now      func() time.Time

	progressMu sync.RWMutex
	onProgress func(Progress)
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		limiter: util.NewLimiter(cfg.Limits.FilesPerSecond, cfg.Limits.Burst),
		now:     time.Now,
	}
	if cfg.Extract.VerifySyntax {
		a.verifier = syntax.NewVerifier()
	}
	if cfg.Caches.Records > 0 {
		cache, err := lru.New[string, cachedRecord](cfg.Caches.Records)
		if err != nil {
			return nil, fmt.Errorf("create record cache: %w", err)
		}
		a.records = cache
	}
	return a, nil
}

// SetProgressHandler installs a callback invoked from worker goroutines; it
// must be safe for concurrent use.
func (a *App) SetProgressHandler(fn func(Progress)) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	a.onProgress = fn
}

func (a *App) emitProgress(p Progress) {
	a.progressMu.RLock()
	fn := a.onProgress
	a.progressMu.RUnlock()
	if fn != nil {
		fn(p)
	}
}

// SetClock overrides the timestamp source written into generated_at.
func (a *App) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}
