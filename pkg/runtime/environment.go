package runtime

// Environment provides lexical scoping as a chain of mutable frames.
// Lookup walks from the innermost frame outward; the first match wins.
// Frames are shared by reference: closures capture their defining
// environment and later calls extend it with fresh child frames without
// ever mutating the shared parent chain, except through explicit
// Assign.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a
// parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Get retrieves a binding, searching outward through the scope chain.
// Absence is a normal outcome: variable resolution and keyword-shadow
// checks both rely on it.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define inserts or shadows a binding in the current frame.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Assign overwrites the binding in the nearest frame containing name.
// Callers verify existence first; assigning an absent name is a caller
// bug.
func (e *Environment) Assign(name string, value Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = value
			return true
		}
	}
	return false
}

// Extend returns a new environment with one additional innermost frame
// binding name. The receiver is never mutated, so repeated Extend
// calls on the same base produce independent environments.
func (e *Environment) Extend(name string, value Value) *Environment {
	child := NewEnvironment(e)
	child.values[name] = value
	return child
}
