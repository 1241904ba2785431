package atmosphere

import (
	"fmt"
	"sort"
	"sync"

	aferrors "atmoforce/internal/errors"
	"atmoforce/internal/grid"
	"atmoforce/internal/metrics"
	"atmoforce/util"
)

// Kind separates base providers from modifiers.
type Kind int

const (
	KindProvider Kind = iota
	KindModifier
)

func (k Kind) String() string {
	if k == KindModifier {
		return "modifier"
	}
	return "provider"
}

// Env is what a Factory may use to build a model.
type Env struct {
	Grid    *grid.Grid
	Log     *util.Logger
	Metrics *metrics.Collector

	Input     InputOptions  // base providers
	Source    ForcingSource // modifiers
	StartTime float64
}

// Factory builds a model.  inner is nil for providers and the model to
// wrap for modifiers.
type Factory func(env Env, inner Model) (Model, error)

type entry struct {
	kind    Kind
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]entry)
)

// Register adds a factory under name, replacing any earlier one.
func Register(name string, kind Kind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = entry{kind: kind, factory: factory}
}

// Lookup returns the factory registered under name and its kind.
func Lookup(name string) (Factory, Kind, error) {
	registryMu.RLock()
	e, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s (available: %v)", aferrors.ErrUnknownModel, name, List())
	}
	return e.factory, e.kind, nil
}

// List returns every registered name, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListKind returns the registered names of one kind, sorted.
func ListKind(kind Kind) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var names []string
	for name, e := range registry {
		if e.kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// scalarFactory adapts a preset into a modifier Factory.
func scalarFactory(preset func(ForcingSource) ScalarForcingOptions) Factory {
	return func(env Env, inner Model) (Model, error) {
		opts := preset(env.Source)
		opts.StartTime = env.StartTime
		m, err := NewScalarForcing(inner, opts, env.Grid, env.Log, env.Metrics)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func init() {
	Register("constant", KindProvider, func(env Env, inner Model) (Model, error) {
		if inner != nil {
			return nil, fmt.Errorf("constant: a provider cannot wrap %s", inner.Name())
		}
		return NewConstant(env.Grid, env.Input, env.Log, env.Metrics), nil
	})
	Register("frac_P", KindModifier, scalarFactory(FracP))
	Register("delta_T", KindModifier, scalarFactory(DeltaT))
	Register("delta_P", KindModifier, scalarFactory(DeltaP))
}
