package category

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Provider serves taxonomy snapshots to the scan pipeline and runs the
// source-to-database synchronization. Both store and cache are optional;
// the provider degrades through cache and static fallbacks rather than
// failing a read.
type Provider struct {
	store *Store
	cache *SnapshotCache

	mu      sync.RWMutex
	current string
}

// NewProvider creates a Provider. store and cache may each be nil.
func NewProvider(store *Store, cache *SnapshotCache) *Provider {
	return &Provider{store: store, cache: cache}
}

// Sync upserts the bundled source taxonomy into the database, reads the
// merged result back and publishes it as the current snapshot. Returns an
// error only when no database is configured or the round trip failed; the
// previously published snapshot stays valid either way.
func (p *Provider) Sync(ctx context.Context) (string, error) {
	if p.store == nil {
		return "", errors.New("category database not configured")
	}

	source, err := ParseXML(Static())
	if err != nil {
		return "", err
	}
	if err := p.store.EnsureSchema(ctx); err != nil {
		return "", err
	}
	if err := p.store.Upsert(ctx, source); err != nil {
		return "", err
	}
	defs, err := p.store.Fetch(ctx)
	if err != nil {
		return "", err
	}

	snapshot := BuildXML(defs)
	p.publish(snapshot)
	return snapshot, nil
}

// Snapshot returns the current taxonomy document. Resolution order:
// in-memory snapshot, live database read, on-disk cache, bundled static
// document. It never fails.
func (p *Provider) Snapshot(ctx context.Context) string {
	p.mu.RLock()
	current := p.current
	p.mu.RUnlock()
	if current != "" {
		return current
	}

	if p.store != nil {
		if defs, err := p.store.Fetch(ctx); err == nil && len(defs) > 0 {
			snapshot := BuildXML(defs)
			p.publish(snapshot)
			return snapshot
		} else if err != nil {
			slog.Warn("category database read failed", "error", err)
		}
	}

	if p.cache != nil {
		if snapshot, err := p.cache.Get(); err == nil && snapshot != "" {
			p.setCurrent(snapshot)
			return snapshot
		}
	}

	return Static()
}

// publish updates the in-memory snapshot and writes it through to the
// on-disk cache.
func (p *Provider) publish(snapshot string) {
	p.setCurrent(snapshot)
	if p.cache != nil {
		if err := p.cache.Put(snapshot); err != nil {
			slog.Warn("writing category snapshot cache failed", "error", err)
		}
	}
}

func (p *Provider) setCurrent(snapshot string) {
	p.mu.Lock()
	p.current = snapshot
	p.mu.Unlock()
}
