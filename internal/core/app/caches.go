package app

import (
	"crypto/sha256"

	"javakg/internal/engine/extract"
	"javakg/internal/engine/resolver"
	"javakg/internal/shared/observability"
)

// cachedRecord is a source file's extraction result keyed by content hash.
// Records are read-only after extraction, so runs can share them.
type cachedRecord struct {
	sum    [sha256.Size]byte
	record *extract.Record
	local  *resolver.Local
}

func (a *App) cachedSource(rel string, data []byte) (*extract.Record, *resolver.Local, bool) {
	if a.records == nil {
		return nil, nil, false
	}
	entry, ok := a.records.Get(rel)
	if !ok || entry.sum != sha256.Sum256(data) {
		return nil, nil, false
	}
	observability.RecordCacheHits.Inc()
	return entry.record, entry.local, true
}

func (a *App) storeSource(rel string, data []byte, rec *extract.Record, local *resolver.Local) {
	if a.records == nil {
		return
	}
	a.records.Add(rel, cachedRecord{sum: sha256.Sum256(data), record: rec, local: local})
}

// Forget drops cached records for the given relative paths.
func (a *App) Forget(rels ...string) {
	if a.records == nil {
		return
	}
	for _, rel := range rels {
		a.records.Remove(rel)
	}
}

func (a *App) CachedRecords() int {
	if a.records == nil {
		return 0
	}
	return a.records.Len()
}
