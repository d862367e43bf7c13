package dsl

import "sort"

// OpFunc evaluates one operator invocation. Arguments arrive as unevaluated
// nodes; each operator decides its own evaluation order and laziness
// (if must not evaluate both branches).
type OpFunc func(e *Evaluator, op string, args []*Node) (Value, error)

// Registry is the whitelisted operator dispatcher: a mapping from operator
// name to evaluation function, closed at startup and read-only during
// evaluation, so it is safe to share across concurrent evaluations.
type Registry struct {
	ops map[string]OpFunc
}

// NewRegistry builds the registry with every built-in operator installed.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]OpFunc)}
	registerFlowOps(r)
	registerWeightOps(r)
	registerIndicatorOps(r)
	return r
}

// register installs an operator. Called only during construction.
func (r *Registry) register(name string, fn OpFunc) {
	r.ops[name] = fn
}

// Lookup returns the operator function for a name. An unknown name is not
// an error here; the evaluator treats lists with unregistered heads as data.
func (r *Registry) Lookup(name string) (OpFunc, bool) {
	fn, ok := r.ops[name]
	return fn, ok
}

// Names returns every registered operator name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
