package dataroom

import "sync"

// Scope is the active folder: a path prefix applied to uploads and
// listings, relative to the identity namespace. The prefix is free-form
// and used verbatim; folder hierarchy is a naming convention, not a
// validated structure. The zero value is the root scope.
type Scope struct {
	Prefix string
}

// Root is the empty scope: the top of the identity namespace.
var Root = Scope{}

// IsRoot reports whether the scope has no prefix.
func (s Scope) IsRoot() bool { return s.Prefix == "" }

// Selector owns the current scope. The value is replaced wholesale on
// every change; readers get copies. Uploads capture the scope at
// submission time, so changing it never retargets in-flight work.
type Selector struct {
	mu      sync.RWMutex
	current Scope
}

// NewSelector creates a Selector positioned at the root scope.
func NewSelector() *Selector {
	return &Selector{}
}

// Set replaces the current scope with one for the given prefix. Any
// string is accepted, including an empty one.
func (s *Selector) Set(prefix string) Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Scope{Prefix: prefix}
	return s.current
}

// Reset returns the selector to the root scope.
func (s *Selector) Reset() Scope {
	return s.Set("")
}

// Current returns the active scope.
func (s *Selector) Current() Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
