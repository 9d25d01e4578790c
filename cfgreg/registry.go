// Package cfgreg allocates configuration registers and lays them out in the
// configuration-memory address space.
//
// A Registry is an arena owned by a single fabric build. Each component that
// owns configuration asks the registry for a Scope and declares its words and
// bits through it. Registers are never resized or removed; the registry is
// discarded together with the fabric description that owns it.
package cfgreg

import (
	"fmt"

	"github.com/sarchlab/cgrafab/cgra"
	"github.com/sarchlab/cgrafab/ctxlog"
)

// Register is a named configuration bit-field owned by one component.
type Register struct {
	Owner string
	Name  string
	Width int
}

// Path returns the owner path joined with the local name.
func (r Register) Path() string {
	return r.Owner + "." + r.Name
}

func (r Register) String() string {
	return fmt.Sprintf("%s[%d]", r.Path(), r.Width)
}

// Registry hands out declaration scopes, one per owning component.
type Registry struct {
	scopes  []*Scope
	byOwner map[string]*Scope
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byOwner: make(map[string]*Scope),
	}
}

// Scope registers a new owner and returns its declaration scope. An owner
// can only be registered once.
func (r *Registry) Scope(owner string) (*Scope, error) {
	if _, exists := r.byOwner[owner]; exists {
		return nil, &cgra.DuplicateNameError{Path: "registry", Name: owner}
	}

	s := &Scope{
		owner:  owner,
		byName: make(map[string]int),
	}
	r.scopes = append(r.scopes, s)
	r.byOwner[owner] = s

	return s, nil
}

// Lookup returns the scope of an owner.
func (r *Registry) Lookup(owner string) (*Scope, bool) {
	s, ok := r.byOwner[owner]
	return s, ok
}

// Scopes returns the scopes in registration order.
func (r *Registry) Scopes() []*Scope {
	return append([]*Scope(nil), r.scopes...)
}

// Width returns the number of configuration bits declared in all scopes.
func (r *Registry) Width() int {
	w := 0
	for _, s := range r.scopes {
		w += s.Width()
	}
	return w
}

// Scope declares the registers of a single component.
type Scope struct {
	owner  string
	regs   []Register
	byName map[string]int
}

// Owner returns the path of the owning component.
func (s *Scope) Owner() string {
	return s.owner
}

// DeclareWord declares a register of the given width.
func (s *Scope) DeclareWord(name string, width int) (Register, error) {
	if _, exists := s.byName[name]; exists {
		return Register{}, &cgra.DuplicateNameError{Path: s.owner, Name: name}
	}

	if width < 1 {
		return Register{}, fmt.Errorf("%s: register %q must be at least 1 bit wide, got %d",
			s.owner, name, width)
	}

	reg := Register{Owner: s.owner, Name: name, Width: width}
	s.byName[name] = len(s.regs)
	s.regs = append(s.regs, reg)

	ctxlog.Trace("RegisterDeclared", "Owner", s.owner, "Name", name, "Width", width)

	return reg, nil
}

// DeclareBit declares a one-bit register.
func (s *Scope) DeclareBit(name string) (Register, error) {
	return s.DeclareWord(name, 1)
}

// Lookup returns a register declared in this scope.
func (s *Scope) Lookup(name string) (Register, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Register{}, false
	}
	return s.regs[i], true
}

// Registers returns the registers in declaration order.
func (s *Scope) Registers() []Register {
	return append([]Register(nil), s.regs...)
}

// Width returns the sum of the register widths.
func (s *Scope) Width() int {
	w := 0
	for _, r := range s.regs {
		w += r.Width
	}
	return w
}
