package aggregation

import (
	"context"
	"sync"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/statistics"
)

// Engine keeps the derived views in step with a statistics.Store.
type Engine struct {
	store *statistics.Store

	mx        sync.RWMutex
	snapshot  *domain.Snapshot
	dashboard DashboardView

	unsubscribe func()
}

func NewEngine(store *statistics.Store) *Engine {
	e := &Engine{store: store}
	e.Recompute()
	e.unsubscribe = store.Subscribe(func(ev statistics.Event) {
		if e.Recompute() {
			logger.Debugf(context.Background(), "aggregation: recomputed after %s, version %d", ev.Kind, ev.Version)
		}
	})
	return e
}

// Recompute rebuilds the cached views from the store's current snapshot. It reports
// false when the cache already holds that version or a newer one, so a slow
// recompute never overwrites a newer view.
func (e *Engine) Recompute() bool {
	snap := e.store.Snapshot()

	e.mx.RLock()
	stale := e.snapshot != nil && e.snapshot.Version >= snap.Version
	e.mx.RUnlock()
	if stale {
		return false
	}

	dashboard := DeriveDashboard(snap)

	e.mx.Lock()
	defer e.mx.Unlock()
	if e.snapshot != nil && e.snapshot.Version >= snap.Version {
		return false
	}
	e.snapshot = snap
	e.dashboard = dashboard
	return true
}

func (e *Engine) Dashboard() DashboardView {
	e.mx.RLock()
	defer e.mx.RUnlock()
	return e.dashboard
}

func (e *Engine) Region(r domain.Region) RegionView {
	e.mx.RLock()
	snap := e.snapshot
	e.mx.RUnlock()
	return DeriveView(snap, r)
}

func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}
