// Package generators provides a multiplexer for genx.Generator routing.
package generators

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/haivivi/roots/pkg/genx"
)

var _ genx.Generator = (*Mux)(nil)

// ErrNotFound is returned when no generator is registered under a name.
var ErrNotFound = errors.New("generators: generator not found")

// DefaultMux is the default generator multiplexer.
var DefaultMux = NewMux()

// Handle registers a generator for the given name to the default mux.
func Handle(name string, gen genx.Generator) error {
	return DefaultMux.Handle(name, gen)
}

// Generate generates contents using the default mux.
func Generate(ctx context.Context, name string, mctx genx.ModelContext) (*genx.Response, error) {
	return DefaultMux.Generate(ctx, name, mctx)
}

// Invoke requests structured output using the default mux.
func Invoke(ctx context.Context, name string, mctx genx.ModelContext, schema *genx.ResponseSchema) (genx.Usage, string, error) {
	return DefaultMux.Invoke(ctx, name, mctx, schema)
}

// Mux is a generator multiplexer that routes requests to registered
// generators by exact model name. It is safe for concurrent use.
type Mux struct {
	mu   sync.RWMutex
	gens map[string]genx.Generator
}

// NewMux creates a new generator multiplexer.
func NewMux() *Mux {
	return &Mux{gens: make(map[string]genx.Generator)}
}

// Handle registers a generator for the given name.
// Returns an error if a generator is already registered for the name.
func (gm *Mux) Handle(name string, gen genx.Generator) error {
	if gen == nil {
		return fmt.Errorf("generators: nil generator for %s", name)
	}
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if _, ok := gm.gens[name]; ok {
		return fmt.Errorf("generators: generator already registered for %s", name)
	}
	gm.gens[name] = gen
	return nil
}

// Names returns the registered names in sorted order.
func (gm *Mux) Names() []string {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	names := make([]string, 0, len(gm.gens))
	for k := range gm.gens {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Generate looks up the generator for name and forwards the call.
func (gm *Mux) Generate(ctx context.Context, name string, mctx genx.ModelContext) (*genx.Response, error) {
	gen, err := gm.get(name)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, name, mctx)
}

// Invoke looks up the generator for name and forwards the call.
func (gm *Mux) Invoke(ctx context.Context, name string, mctx genx.ModelContext, schema *genx.ResponseSchema) (genx.Usage, string, error) {
	gen, err := gm.get(name)
	if err != nil {
		return genx.Usage{}, "", err
	}
	return gen.Invoke(ctx, name, mctx, schema)
}

func (gm *Mux) get(name string) (genx.Generator, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	gen, ok := gm.gens[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return gen, nil
}
