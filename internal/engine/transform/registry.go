package transform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"markprep/internal/core/errors"
	"markprep/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Registry maps transformer names to factories and caches loaded
// implementations for its lifetime. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	entries   map[string]*entry
}

// entry guards the load of a single name. A loaded impl is never replaced;
// a failed load leaves impl nil so a later call can retry.
type entry struct {
	mu   sync.Mutex
	impl Transformer
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		entries:   make(map[string]*entry),
	}
}

// Register makes factory available under name. An implementation already
// loaded under name stays cached.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterTransformer registers an already constructed implementation.
func (r *Registry) RegisterTransformer(name string, t Transformer) {
	r.Register(name, func() (Transformer, error) { return t, nil })
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered transformer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loaded reports whether name has a cached implementation.
func (r *Registry) Loaded(name string) bool {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.impl != nil
}

// Run dispatches src. An Override is called directly and its result and
// error are returned untouched. A Named dispatch loads the transformer on
// first use and invokes it; every load or execution failure, panics
// included, comes back as a single CodeTransformFailed error naming it.
func (r *Registry) Run(ctx context.Context, d Dispatch, src Source) (Result, error) {
	switch d := d.(type) {
	case Override:
		if d.Fn == nil {
			return Result{}, errors.Fail("override function is nil")
		}
		return d.Fn(ctx, src)
	case Named:
		return r.runNamed(ctx, d, src)
	default:
		return Result{}, errors.Fail(fmt.Sprintf("unknown dispatch %T", d))
	}
}

func (r *Registry) runNamed(ctx context.Context, d Named, src Source) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "transform.Run", trace.WithAttributes(
		attribute.String("transformer", d.Name),
		attribute.String("filename", src.Filename),
	))
	defer span.End()

	start := time.Now()
	res, err := r.invoke(ctx, d, src)
	observability.TransformDuration.WithLabelValues(d.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.TransformRunsTotal.WithLabelValues(d.Name, observability.OutcomeError).Inc()
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("transform failed", "transformer", d.Name, "path", src.Filename, "error", err)
		return Result{}, errors.TransformFailed(d.Name, err)
	}
	observability.TransformRunsTotal.WithLabelValues(d.Name, observability.OutcomeOK).Inc()
	return res, nil
}

func (r *Registry) invoke(ctx context.Context, d Named, src Source) (res Result, err error) {
	impl, err := r.load(d.Name)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return impl.Transform(ctx, Input{
		Content:  src.Content,
		Filename: src.Filename,
		Config:   d.Config,
	})
}

func (r *Registry) load(name string) (Transformer, error) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	factory := r.factories[name]
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.impl != nil {
		return e.impl, nil
	}
	if factory == nil {
		observability.TransformerLoadsTotal.WithLabelValues(name, observability.OutcomeError).Inc()
		return nil, fmt.Errorf("no transformer registered under %q", name)
	}

	impl, err := safeLoad(factory)
	if err != nil {
		observability.TransformerLoadsTotal.WithLabelValues(name, observability.OutcomeError).Inc()
		return nil, err
	}
	if impl == nil {
		observability.TransformerLoadsTotal.WithLabelValues(name, observability.OutcomeError).Inc()
		return nil, fmt.Errorf("transformer %q loaded as nil", name)
	}
	observability.TransformerLoadsTotal.WithLabelValues(name, observability.OutcomeOK).Inc()
	slog.Debug("transformer loaded", "transformer", name)
	e.impl = impl
	return impl, nil
}

func safeLoad(factory Factory) (t Transformer, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while loading: %v", p)
		}
	}()
	return factory()
}
