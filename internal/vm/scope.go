package vm

import "github.com/funvibe/numen/internal/value"

// Scope is a chained name environment. Reads fall back to the parent
// scope; new bindings always go to the innermost one.
//
// A Scope is not synchronized: closures created in the same scope and
// driven from different goroutines race on it.
type Scope struct {
	vars   *value.Map
	parent *Scope
}

// NewScope creates an empty scope below parent (nil for a global scope)
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: value.NewMap(), parent: parent}
}

// ScopeOf wraps an existing map as a global scope. Bindings made through
// the scope are visible in the map and vice versa.
func ScopeOf(vars *value.Map) *Scope {
	if vars == nil {
		vars = value.NewMap()
	}
	return &Scope{vars: vars}
}

func (s *Scope) Parent() *Scope { return s.parent }

// Vars is the innermost scope's own bindings
func (s *Scope) Vars() *value.Map { return s.vars }

// Declare binds name in this scope, overwriting an existing binding
func (s *Scope) Declare(name string, v value.Value) {
	s.vars.Set(name, v)
}

// Assign rebinds the nearest scope defining name. Unknown names are
// created in this scope.
func (s *Scope) Assign(name string, v value.Value) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.vars.Has(name) {
			sc.vars.Set(name, v)
			return
		}
	}
	s.vars.Set(name, v)
}

// Lookup resolves name through the chain
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars.Get(name); ok {
			return v, true
		}
	}
	return value.Undefined, false
}

// Names lists every visible name, innermost bindings first, without
// duplicates.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for sc := s; sc != nil; sc = sc.parent {
		for _, k := range sc.vars.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
