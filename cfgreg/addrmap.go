package cfgreg

import (
	"fmt"
	"sort"
)

// Entry places one register in the configuration address space.
type Entry struct {
	Offset int    `yaml:"offset"`
	Width  int    `yaml:"width"`
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
}

// End returns the first offset after the entry.
func (e Entry) End() int {
	return e.Offset + e.Width
}

// Register returns the register the entry places.
func (e Entry) Register() Register {
	return Register{Owner: e.Owner, Name: e.Name, Width: e.Width}
}

func (e Entry) String() string {
	return fmt.Sprintf("[%d,%d) %s.%s", e.Offset, e.End(), e.Owner, e.Name)
}

// Range is a half-open range of configuration offsets.
type Range struct {
	Start, End int
}

// Width returns the number of bits in the range.
func (r Range) Width() int {
	return r.End - r.Start
}

// Contains reports whether offset falls inside the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// AddressMap is an ordered, contiguous table of register placements.
type AddressMap struct {
	Entries []Entry
}

// Allocate places the registers one after another starting at offset 0.
func Allocate(regs []Register) AddressMap {
	m := AddressMap{Entries: make([]Entry, 0, len(regs))}
	offset := 0
	for _, r := range regs {
		m.Entries = append(m.Entries, Entry{
			Offset: offset,
			Width:  r.Width,
			Owner:  r.Owner,
			Name:   r.Name,
		})
		offset += r.Width
	}
	return m
}

// Width returns the total number of configuration bits.
func (m AddressMap) Width() int {
	if len(m.Entries) == 0 {
		return 0
	}
	return m.Entries[len(m.Entries)-1].End()
}

// Range returns the range covered by the map.
func (m AddressMap) Range() Range {
	if len(m.Entries) == 0 {
		return Range{}
	}
	return Range{Start: m.Entries[0].Offset, End: m.Width()}
}

// Concat returns a new map with the entries of other appended after m.
func (m AddressMap) Concat(other AddressMap) AddressMap {
	base := m.Width()
	out := AddressMap{Entries: make([]Entry, 0, len(m.Entries)+len(other.Entries))}
	out.Entries = append(out.Entries, m.Entries...)
	for _, e := range other.Entries {
		e.Offset += base
		out.Entries = append(out.Entries, e)
	}
	return out
}

// Shift returns a copy of m with every offset moved by delta.
func (m AddressMap) Shift(delta int) AddressMap {
	out := AddressMap{Entries: make([]Entry, len(m.Entries))}
	for i, e := range m.Entries {
		e.Offset += delta
		out.Entries[i] = e
	}
	return out
}

// Validate checks that the entries start at 0, are contiguous and have
// positive widths.
func (m AddressMap) Validate() error {
	next := 0
	for i, e := range m.Entries {
		if e.Width < 1 {
			return fmt.Errorf("entry %d (%s.%s) has width %d", i, e.Owner, e.Name, e.Width)
		}
		if e.Offset != next {
			return fmt.Errorf("entry %d (%s.%s) starts at %d, expected %d",
				i, e.Owner, e.Name, e.Offset, next)
		}
		next = e.End()
	}
	return nil
}

// Locate returns the entry containing the global offset and the bit index
// within that register.
func (m AddressMap) Locate(offset int) (Entry, int, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool {
		return m.Entries[i].End() > offset
	})
	if i == len(m.Entries) || m.Entries[i].Offset > offset {
		return Entry{}, 0, false
	}

	e := m.Entries[i]
	return e, offset - e.Offset, true
}

// Find returns the entry of the register owner.name.
func (m AddressMap) Find(owner, name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Owner == owner && e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Within returns the entries whose offsets fall into r.
func (m AddressMap) Within(r Range) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if r.Contains(e.Offset) {
			out = append(out, e)
		}
	}
	return out
}

// CheckRegistry reports an error unless m places exactly the registers
// declared in r, each with its declared width.
func (m AddressMap) CheckRegistry(r *Registry) error {
	declared := 0
	for _, s := range r.Scopes() {
		declared += len(s.Registers())
	}
	if declared != len(m.Entries) {
		return fmt.Errorf("address map places %d registers, registry declares %d",
			len(m.Entries), declared)
	}

	for _, e := range m.Entries {
		s, ok := r.Lookup(e.Owner)
		if !ok {
			return fmt.Errorf("entry %s: owner has no scope", e)
		}

		reg, ok := s.Lookup(e.Name)
		if !ok {
			return fmt.Errorf("entry %s: register not declared", e)
		}
		if reg.Width != e.Width {
			return fmt.Errorf("entry %s: declared width %d", e, reg.Width)
		}
	}

	return nil
}
