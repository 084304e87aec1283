// Package layout describes the shape of foreign tables and structs and
// checks it against the locations the host is known to use.
//
// A descriptor is built from an ordered list of named elements and explicit
// padding. Locations are computed by summing the spans in front of each
// element; no alignment is ever inserted. Expected locations are declared
// next to the descriptor and checked with Validate, normally from a
// package-level var so a drifted layout stops the program before any host
// memory is touched:
//
//	var materialLayout = layout.Table("material_system",
//		layout.Pad(83),
//		layout.Slot("create"),
//		layout.Slot("find"),
//	).Expect("create", 83).Expect("find", 84).MustValidate()
package layout

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

// PtrSize is the size of one table slot in bytes.
const PtrSize = int(unsafe.Sizeof(uintptr(0)))

// Kind is the unit a descriptor's locations are measured in.
type Kind uint8

const (
	// SlotIndex locations count table slots.
	SlotIndex Kind = iota
	// ByteOffset locations count bytes from the start of a struct.
	ByteOffset
)

func (k Kind) String() string {
	switch k {
	case SlotIndex:
		return "slot"
	case ByteOffset:
		return "offset"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Element is one entry in a descriptor: a named slot or field, or a run of
// padding.
type Element struct {
	name string
	span int
}

// Pad skips n slots in a table or n bytes in a struct.
func Pad(n int) Element {
	return Element{span: n}
}

// Slot is a single named table slot.
func Slot(name string) Element {
	return Element{name: name, span: 1}
}

// Field is a named struct field of size bytes.
func Field(name string, size int) Element {
	return Element{name: name, span: size}
}

// Entry is a named element with its computed location.
type Entry struct {
	Name     string
	Kind     Kind
	Computed int
	Span     int

	Expected    int
	HasExpected bool
}

// Descriptor is a computed layout.
type Descriptor struct {
	Name string
	Kind Kind

	entries []Entry
	index   map[string]int
	span    int

	// errs are problems found while building, reported by Validate.
	errs []error
}

// Table describes a virtual table. Spans count slots.
func Table(name string, elems ...Element) *Descriptor {
	return build(name, SlotIndex, elems)
}

// Struct describes a struct or object. Spans count bytes.
func Struct(name string, elems ...Element) *Descriptor {
	return build(name, ByteOffset, elems)
}

func build(name string, kind Kind, elems []Element) *Descriptor {
	d := &Descriptor{
		Name:  name,
		Kind:  kind,
		index: map[string]int{},
	}

	loc := 0
	for _, e := range elems {
		if e.span < 0 {
			d.errs = append(d.errs, fmt.Errorf("layout %s: negative span %d at %s %d", name, e.span, kind, loc))
			continue
		}
		if e.name != "" {
			d.add(Entry{Name: e.name, Kind: kind, Computed: loc, Span: e.span})
		}
		loc += e.span
	}
	d.span = loc
	return d
}

func (d *Descriptor) add(e Entry) {
	if _, dup := d.index[e.Name]; dup {
		d.errs = append(d.errs, fmt.Errorf("layout %s: duplicate name %q", d.Name, e.Name))
		return
	}
	d.index[e.Name] = len(d.entries)
	d.entries = append(d.entries, e)
}

// Expect declares the location the host uses for name. It returns d so
// expectations can be chained.
func (d *Descriptor) Expect(name string, location int) *Descriptor {
	i, ok := d.index[name]
	if !ok {
		d.errs = append(d.errs, &MismatchError{
			Layout:   d.Name,
			Name:     name,
			Kind:     d.Kind,
			Expected: location,
			Unknown:  true,
		})
		return d
	}
	d.entries[i].Expected = location
	d.entries[i].HasExpected = true
	return d
}

// Validate checks every expectation. All mismatches are reported; each one
// matches ErrAbiMismatch.
func (d *Descriptor) Validate() error {
	errs := append([]error(nil), d.errs...)
	for _, e := range d.entries {
		if e.HasExpected && e.Expected != e.Computed {
			errs = append(errs, &MismatchError{
				Layout:   d.Name,
				Name:     e.Name,
				Kind:     d.Kind,
				Expected: e.Expected,
				Computed: e.Computed,
			})
		}
	}
	return errors.Join(errs...)
}

// MustValidate panics if Validate fails and returns d otherwise.
func (d *Descriptor) MustValidate() *Descriptor {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	return d
}

// Lookup returns the entry for name.
func (d *Descriptor) Lookup(name string) (Entry, bool) {
	i, ok := d.index[name]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i], true
}

// Location returns the computed location of name. It panics if name is
// not in the descriptor.
func (d *Descriptor) Location(name string) int {
	e, ok := d.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("layout %s: no entry %q", d.Name, name))
	}
	return e.Computed
}

// Entries returns the named entries in declaration order.
func (d *Descriptor) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Span is the total size: slots for a table, bytes for a struct.
func (d *Descriptor) Span() int {
	return d.span
}

func (d *Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d %ss)\n", d.Name, d.span, d.Kind)
	for _, e := range d.entries {
		fmt.Fprintf(&b, "  %-24s %s %d", e.Name, e.Kind, e.Computed)
		if e.HasExpected {
			fmt.Fprintf(&b, " (expect %d)", e.Expected)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
