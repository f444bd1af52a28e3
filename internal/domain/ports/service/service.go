package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"rag-document-backend/internal/domain"
)

// Service is a pluggable unit of work executed against a job's payload.
// Implementations validate the payload before doing any domain work.
type Service interface {
	// Validate checks the payload shape; a non-nil error aborts the run.
	Validate(payload map[string]any) error

	// Execute performs the domain logic and returns the result document.
	Execute(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// Run applies the validate-then-execute contract shared by all services.
func Run(ctx context.Context, svc Service, payload map[string]any) (map[string]any, error) {
	if err := svc.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return svc.Execute(ctx, payload)
}

// Factory builds a fresh Service instance per run.
type Factory func() (Service, error)

// Registry maps stable service names to factories. Services are registered
// explicitly at startup; there is no reflection-based resolution.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a name, replacing any previous binding.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve instantiates the named service. The error text is stable; it is
// persisted verbatim into a failed job's result.
func (r *Registry) Resolve(name string) (Service, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("service %q not found", name)
	}
	return f()
}

// Known reports whether a name has a registered factory.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names lists registered service names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
