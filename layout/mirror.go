package layout

import (
	"fmt"
	"reflect"
)

// Mirror builds a descriptor from a Go struct that mirrors the foreign one.
// Fields named _ are padding. A field is named by its layout tag, or by its
// Go name when there is no tag.
//
// For SlotIndex every field must be a whole number of pointer-sized slots,
// e.g. uintptr or [n]uintptr.
func Mirror[T any](name string, kind Kind) *Descriptor {
	d := &Descriptor{
		Name:  name,
		Kind:  kind,
		index: map[string]int{},
	}

	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		d.errs = append(d.errs, fmt.Errorf("layout %s: mirror of %v is not a struct", name, t))
		return d
	}

	unit := 1
	if kind == SlotIndex {
		unit = PtrSize
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}

		if f.Offset%uintptr(unit) != 0 || f.Type.Size()%uintptr(unit) != 0 {
			d.errs = append(d.errs, fmt.Errorf("layout %s: field %s is not slot aligned", name, f.Name))
			continue
		}

		fieldName := f.Name
		if tag, ok := f.Tag.Lookup("layout"); ok && tag != "" {
			fieldName = tag
		}

		d.add(Entry{
			Name:     fieldName,
			Kind:     kind,
			Computed: int(f.Offset) / unit,
			Span:     int(f.Type.Size()) / unit,
		})
	}

	d.span = int(t.Size()) / unit
	return d
}
