// Package scope implements the parser's lexical scope stack: a stack
// of maps from identifier to (type, modifiers), global frame first,
// innermost-first lookup falling back to the global frame.
package scope

import "github.com/limec/limec/internal/types"

// Modifiers records the const/global-ness of a binding.
type Modifiers struct {
	IsConst  bool
	IsGlobal bool
}

// Entry is what a scope frame binds an identifier to.
type Entry struct {
	Name string
	Type *types.Type
	Mods Modifiers
}

// Stack is the scope stack. Frame 0 is the global frame and always
// present; Enter pushes a new innermost frame, Leave pops one.
type Stack struct {
	frames []map[string]*Entry
}

// New returns a stack with only the global frame present.
func New() *Stack {
	return &Stack{frames: []map[string]*Entry{make(map[string]*Entry)}}
}

// Enter pushes a new, empty frame.
func (s *Stack) Enter() {
	s.frames = append(s.frames, make(map[string]*Entry))
}

// Leave pops the innermost frame. It panics if called at depth 0
// (the global frame is never popped); callers pair every Leave with
// an earlier Enter.
func (s *Stack) Leave() {
	if len(s.frames) <= 1 {
		panic("scope: cannot leave the global frame")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of nested frames beyond the global one.
func (s *Stack) Depth() int {
	return len(s.frames) - 1
}

// AtGlobal reports whether the current frame is the global frame.
func (s *Stack) AtGlobal() bool {
	return len(s.frames) == 1
}

// Define writes name into the current (innermost) frame. It returns
// the previously defined entry if name was already bound in this
// frame (a duplicate-definition condition the caller turns into a
// ParseError), or nil if the definition succeeded.
func (s *Stack) Define(name string, t *types.Type, mods Modifiers) *Entry {
	cur := s.frames[len(s.frames)-1]
	if existing, ok := cur[name]; ok {
		return existing
	}
	mods.IsGlobal = s.AtGlobal()
	cur[name] = &Entry{Name: name, Type: t, Mods: mods}
	return nil
}

// Lookup walks the stack innermost-to-outermost, then falls back to
// the global frame (frame 0). It returns nil if name is unbound.
func (s *Stack) Lookup(name string) *Entry {
	for i := len(s.frames) - 1; i > 0; i-- {
		if e, ok := s.frames[i][name]; ok {
			return e
		}
	}
	if e, ok := s.frames[0][name]; ok {
		return e
	}
	return nil
}
