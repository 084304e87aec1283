package vhook

import (
	"errors"
	"fmt"
	"reflect"
)

// checkCSignature reports every argument or result of ft that cannot cross a
// C call boundary in both directions.
func checkCSignature(ft reflect.Type) error {
	errs := []error{}
	for i := 0; i < ft.NumIn(); i++ {
		if !cCompatible(ft.In(i)) {
			errs = append(errs, fmt.Errorf("argument %d: %v is not a C scalar or pointer", i, ft.In(i)))
		}
	}
	if ft.IsVariadic() {
		errs = append(errs, errors.New("variadic functions are not supported"))
	}
	if ft.NumOut() > 1 {
		errs = append(errs, fmt.Errorf("%d results, at most one is supported", ft.NumOut()))
	}
	for i := 0; i < ft.NumOut(); i++ {
		if !cCompatible(ft.Out(i)) {
			errs = append(errs, fmt.Errorf("output %d: %v is not a C scalar or pointer", i, ft.Out(i)))
		}
	}

	return errors.Join(errs...)
}

func cCompatible(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Pointer, reflect.UnsafePointer:
		return true
	}
	return false
}
