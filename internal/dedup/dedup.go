package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultRetention is how long a fingerprint is remembered before the same
// event may be announced again.
const DefaultRetention = 24 * time.Hour

// Deduplicator gates event announcements. It owns its store entries; callers
// interact only through Has/MarkProcessed/ShouldProcess.
type Deduplicator struct {
	mu        sync.Mutex
	store     Store
	retention time.Duration
	logger    *slog.Logger
	hits      uint64
	misses    uint64
}

// Stats is the operational snapshot exposed for visibility. Entries is -1
// when the backing store cannot report a count (Redis).
type Stats struct {
	Entries        int
	Hits           uint64
	Misses         uint64
	RetentionHours float64
}

// New builds a Deduplicator over the given store. A non-positive retention
// is a misconfiguration and falls back to DefaultRetention.
func New(store Store, retention time.Duration, logger *slog.Logger) *Deduplicator {
	if retention <= 0 {
		logger.Warn("Non-positive dedup retention, using default.",
			"configured", retention, "default", DefaultRetention)
		retention = DefaultRetention
	}
	return &Deduplicator{store: store, retention: retention, logger: logger}
}

// Has reports whether the fingerprint hash has been seen within the
// retention window.
func (d *Deduplicator) Has(ctx context.Context, hash string) bool {
	seen, err := d.store.Has(ctx, hash)
	if err != nil {
		d.logger.Error("Dedup store read failed", "error", err)
		return false
	}
	return seen
}

// MarkProcessed remembers the fingerprint hash for the retention window.
func (d *Deduplicator) MarkProcessed(ctx context.Context, hash string) {
	if err := d.store.Upsert(ctx, hash, d.retention); err != nil {
		d.logger.Error("Dedup store write failed", "error", err)
	}
}

// ShouldProcess computes the fingerprint of the identity fields and performs
// an atomic check-and-set: the first caller within a retention window gets
// true, every repeat gets false. On store errors it answers true — a repeated
// announcement is preferable to a lost one.
func (d *Deduplicator) ShouldProcess(ctx context.Context, title, datePhrase, timePhrase, location string) bool {
	if title == "" && datePhrase == "" && timePhrase == "" && location == "" {
		d.logger.Warn("All identity fields empty, fingerprint is degenerate.")
	}
	hash := Fingerprint(title, datePhrase, timePhrase, location)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Has(ctx, hash) {
		d.hits++
		return false
	}
	d.MarkProcessed(ctx, hash)
	d.misses++
	return true
}

// Retention reports the configured retention window.
func (d *Deduplicator) Retention() time.Duration {
	return d.retention
}

// Stats returns the current counters.
func (d *Deduplicator) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := -1
	if s, ok := d.store.(interface{ Len() int }); ok {
		entries = s.Len()
	}
	return Stats{
		Entries:        entries,
		Hits:           d.hits,
		Misses:         d.misses,
		RetentionHours: d.retention.Hours(),
	}
}

// Sweep purges expired entries when the store supports it and logs the
// outcome together with the counters.
func (d *Deduplicator) Sweep() {
	if s, ok := d.store.(interface{ Sweep() int }); ok {
		removed := s.Sweep()
		stats := d.Stats()
		d.logger.Info("Dedup cache swept.",
			"removed", removed, "entries", stats.Entries,
			"hits", stats.Hits, "misses", stats.Misses)
	}
}
