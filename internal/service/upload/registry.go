package upload

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/statistics"
)

// Registry keeps the upload pipelines of in-progress HTTP sessions.
type Registry struct {
	analyzer  Analyzer
	confirmer Confirmer
	store     *statistics.Store
	ttl       time.Duration
	opts      []Option
	now       func() time.Time

	mx        sync.Mutex
	pipelines map[string]*session
}

type session struct {
	owner    string
	pipeline *Pipeline
}

func NewRegistry(analyzer Analyzer, confirmer Confirmer, store *statistics.Store, ttl time.Duration, opts ...Option) *Registry {
	return &Registry{
		analyzer:  analyzer,
		confirmer: confirmer,
		store:     store,
		ttl:       ttl,
		opts:      opts,
		now:       buildOptions(opts).now,
		pipelines: make(map[string]*session),
	}
}

// Create starts a new pipeline owned by uploadedBy.
func (r *Registry) Create(uploadedBy string) (string, *Pipeline) {
	id := uuid.NewString()
	p := NewPipeline(r.analyzer, r.confirmer, r.store, uploadedBy, r.opts...)

	r.mx.Lock()
	r.pipelines[id] = &session{owner: uploadedBy, pipeline: p}
	r.mx.Unlock()

	return id, p
}

// Get returns the pipeline with id when it belongs to owner.
func (r *Registry) Get(id, owner string) (*Pipeline, error) {
	r.mx.Lock()
	defer r.mx.Unlock()

	s, ok := r.pipelines[id]
	if !ok || s.owner != owner {
		return nil, constants.ErrSessionNotFound
	}
	return s.pipeline, nil
}

func (r *Registry) Remove(id string) {
	r.mx.Lock()
	defer r.mx.Unlock()
	delete(r.pipelines, id)
}

func (r *Registry) Len() int {
	r.mx.Lock()
	defer r.mx.Unlock()
	return len(r.pipelines)
}

// Sweep drops committed sessions and sessions untouched for longer than the TTL.
// In-flight sessions are never dropped.
func (r *Registry) Sweep() int {
	r.mx.Lock()
	defer r.mx.Unlock()

	now := r.now()
	dropped := 0
	for id, s := range r.pipelines {
		touched, settled := s.pipeline.idleSince()
		if !settled {
			continue
		}
		state := s.pipeline.State()
		if state == StateCommitted || now.Sub(touched) > r.ttl {
			delete(r.pipelines, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Debugf(ctx, "upload: swept %d sessions, %d open", n, r.Len())
			}
		}
	}
}
