package layout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	d := Table("material_system",
		Pad(83),
		Slot("create"),
		Slot("find"),
	).Expect("create", 83).Expect("find", 84)

	require.NoError(t, d.Validate())

	want := []Entry{
		{Name: "create", Kind: SlotIndex, Computed: 83, Span: 1, Expected: 83, HasExpected: true},
		{Name: "find", Kind: SlotIndex, Computed: 84, Span: 1, Expected: 84, HasExpected: true},
	}
	if diff := cmp.Diff(want, d.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 85, d.Span())
}

func TestTableLongPadding(t *testing.T) {
	d := Table("entity",
		Pad(12),
		Slot("origin"),
		Pad(144),
		Slot("is_player"),
		Pad(199),
		Slot("observer_mode"),
	).Expect("origin", 12).Expect("is_player", 157).Expect("observer_mode", 357)

	assert.NoError(t, d.Validate())
	assert.Equal(t, 357, d.Location("observer_mode"))
}

func TestStruct(t *testing.T) {
	assert := assert.New(t)

	d := Struct("entity",
		Field("vtable", 8),
		Field("renderable", 8),
		Field("networkable", 8),
	).Expect("vtable", 0).Expect("renderable", 8).Expect("networkable", 16)

	assert.NoError(d.Validate())
	assert.Equal(ByteOffset, d.Kind)
	assert.Equal(24, d.Span())

	e, ok := d.Lookup("networkable")
	assert.True(ok)
	assert.Equal(16, e.Computed)

	_, ok = d.Lookup("missing")
	assert.False(ok)
}

func TestMismatch(t *testing.T) {
	assert := assert.New(t)

	// One slot of padding too few.
	d := Table("material_system",
		Pad(82),
		Slot("create"),
		Slot("find"),
	).Expect("create", 83).Expect("find", 84)

	err := d.Validate()
	assert.ErrorIs(err, ErrAbiMismatch)

	var mismatch *MismatchError
	if assert.ErrorAs(err, &mismatch) {
		assert.Equal("create", mismatch.Name)
		assert.Equal(83, mismatch.Expected)
		assert.Equal(82, mismatch.Computed)
	}

	// Both slots are reported.
	assert.Len(err.(interface{ Unwrap() []error }).Unwrap(), 2)

	assert.Panics(func() {
		d.MustValidate()
	})
}

func TestExpectUnknown(t *testing.T) {
	err := Table("console", Pad(15), Slot("find_var")).Expect("write", 27).Validate()

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, mismatch.Unknown)
	assert.ErrorIs(t, err, ErrAbiMismatch)
}

func TestBuildErrors(t *testing.T) {
	assert := assert.New(t)

	assert.Error(Table("dup", Slot("a"), Slot("a")).Validate())
	assert.Error(Struct("negative", Pad(-1)).Validate())
}

func TestLocationPanics(t *testing.T) {
	assert.Panics(t, func() {
		Table("empty").Location("nope")
	})
}

type mirrorTable struct {
	_      [83]uintptr
	Create uintptr `layout:"create"`
	Find   uintptr `layout:"find"`
}

type mirrorStruct struct {
	Table       uintptr `layout:"vtable"`
	Renderable  uintptr
	Networkable uintptr
	Index       int32
	Dormant     bool
}

func TestMirror(t *testing.T) {
	d := Mirror[mirrorTable]("material_system", SlotIndex).
		Expect("create", 83).
		Expect("find", 84)
	require.NoError(t, d.Validate())
	assert.Equal(t, 85, d.Span())

	s := Mirror[mirrorStruct]("entity", ByteOffset).
		Expect("vtable", 0).
		Expect("Renderable", PtrSize).
		Expect("Networkable", 2*PtrSize)
	require.NoError(t, s.Validate())

	got := []string{}
	for _, e := range s.Entries() {
		got = append(got, e.Name)
	}
	if diff := cmp.Diff([]string{"vtable", "Renderable", "Networkable", "Index", "Dormant"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestMirrorErrors(t *testing.T) {
	assert := assert.New(t)

	assert.Error(Mirror[int]("int", ByteOffset).Validate())

	type unaligned struct {
		A uint32
		B uintptr
	}
	assert.Error(Mirror[unaligned]("unaligned", SlotIndex).Validate())
}

func TestString(t *testing.T) {
	s := Table("console", Pad(15), Slot("find_var")).Expect("find_var", 15).String()
	assert.Contains(t, s, "find_var")
	assert.Contains(t, s, "expect 15")
}
