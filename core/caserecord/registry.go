package caserecord

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/pratik071103/case-link-share/core"
)

// OpenFunc opens the assembly of a case slug.
type OpenFunc func(ctx context.Context, slug string) (*Assembly, error)

// Registry keeps the open case assemblies, keyed by slug, and retires the idle ones.
type Registry struct {
	open   OpenFunc
	ttl    time.Duration
	logger core.Logger

	mu     sync.Mutex
	cases  map[string]*Assembly
	opens  singleflight.Group
	closed bool
}

func NewRegistry(open OpenFunc, ttl time.Duration, logger core.Logger) *Registry {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Registry{
		open:   open,
		ttl:    ttl,
		logger: logger,
		cases:  make(map[string]*Assembly),
	}
}

// NewDepsRegistry is a Registry opening assemblies from deps.
func NewDepsRegistry(deps Deps, opts Options, ttl time.Duration) *Registry {
	return NewRegistry(func(ctx context.Context, slug string) (*Assembly, error) {
		return Open(ctx, deps, slug, opts)
	}, ttl, opts.Logger)
}

// Get returns the open assembly of slug, opening it when needed.
// Concurrent first requests for the same slug share one open.
func (r *Registry) Get(ctx context.Context, slug string) (*Assembly, error) {
	slug = core.CleanString(slug, true)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, core.NewShutdownError("case registry is shut down")
	}
	if a, ok := r.cases[slug]; ok {
		r.mu.Unlock()
		a.touch("")
		return a, nil
	}
	r.mu.Unlock()

	v, err, _ := r.opens.Do(slug, func() (interface{}, error) {
		a, err := r.open(ctx, slug)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.cases[slug]; ok {
			a.Close()
			return existing, nil
		}
		if r.closed {
			a.Close()
			return nil, core.NewShutdownError("case registry is shut down")
		}
		r.cases[slug] = a
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Assembly), nil
}

// Close discards the assembly of slug. Edits whose write has not fired are dropped.
func (r *Registry) Close(slug string) bool {
	slug = core.CleanString(slug, true)
	r.mu.Lock()
	a, ok := r.cases[slug]
	delete(r.cases, slug)
	r.mu.Unlock()
	if ok {
		a.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cases)
}

// Sweep flushes and closes the assemblies unused since now-ttl. It returns the retired slugs.
// An assembly whose flush fails stays open so its edits are retried on the next sweep.
func (r *Registry) Sweep(ctx context.Context, now time.Time) []string {
	r.mu.Lock()
	idle := make(map[string]*Assembly)
	for slug, a := range r.cases {
		if now.Sub(a.LastUsed()) >= r.ttl {
			idle[slug] = a
		}
	}
	r.mu.Unlock()

	var retired []string
	for slug, a := range idle {
		if err := a.Flush(ctx); err != nil {
			r.logger.Warn("flushing idle case failed", err, map[string]interface{}{"slug": slug})
			continue
		}
		r.mu.Lock()
		if cur, ok := r.cases[slug]; ok && cur == a && now.Sub(a.LastUsed()) >= r.ttl {
			delete(r.cases, slug)
			retired = append(retired, slug)
			r.mu.Unlock()
			a.Close()
			continue
		}
		r.mu.Unlock()
	}
	return retired
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if retired := r.Sweep(ctx, now); len(retired) > 0 {
				r.logger.Debug("retired idle cases", map[string]interface{}{"slugs": retired})
			}
		}
	}
}

// Shutdown flushes every open assembly then closes them all. Later Gets fail.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	cases := r.cases
	r.cases = make(map[string]*Assembly)
	r.mu.Unlock()

	var firstErr error
	for slug, a := range cases {
		if err := a.Flush(ctx); err != nil {
			r.logger.Error("flushing case on shutdown failed", err, map[string]interface{}{"slug": slug})
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "flushing case %s", slug)
			}
		}
		a.Close()
	}
	return firstErr
}
