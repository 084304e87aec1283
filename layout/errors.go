package layout

import (
	"errors"
	"fmt"
)

// ErrAbiMismatch means a computed location differs from the one the host
// uses.
var ErrAbiMismatch = errors.New("abi mismatch")

// MismatchError is one failed expectation.
type MismatchError struct {
	Layout   string
	Name     string
	Kind     Kind
	Expected int
	Computed int

	// Unknown is set when the expectation names an entry the layout does
	// not have.
	Unknown bool
}

func (e *MismatchError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("layout %s: %s: expected %s %d for unknown entry", e.Layout, e.Name, e.Kind, e.Expected)
	}
	return fmt.Sprintf("layout %s: %s: expected %s %d, computed %d", e.Layout, e.Name, e.Kind, e.Expected, e.Computed)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrAbiMismatch
}
