//go:build (darwin || linux || windows) && (amd64 || arm64)

package vhook

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type cFuncKey struct {
	typ  reflect.Type
	word uintptr
}

var (
	// Callbacks are never freed by purego, so encode each func value once.
	cCallbacks sync.Map // cFuncKey -> uintptr

	// Wrappers are built with reflect.MakeFunc, which is too slow to repeat
	// on every call through a slot.
	cWrappers sync.Map // cFuncKey -> F
)

func encodeC[F any](fn F) (ptr uintptr, err error) {
	key := cFuncKey{typ: reflect.TypeFor[F](), word: *(*uintptr)(unsafe.Pointer(&fn))}
	if cached, ok := cCallbacks.Load(key); ok {
		return cached.(uintptr), nil
	}

	defer func() {
		// NewCallback panics when it runs out of callback slots.
		if r := recover(); r != nil {
			err = fmt.Errorf("create callback: %v", r)
		}
	}()

	ptr = purego.NewCallback(fn)
	actual, _ := cCallbacks.LoadOrStore(key, ptr)
	return actual.(uintptr), nil
}

func decodeC[F any](ptr uintptr) F {
	key := cFuncKey{typ: reflect.TypeFor[F](), word: ptr}
	if cached, ok := cWrappers.Load(key); ok {
		return cached.(F)
	}

	var fn F
	purego.RegisterFunc(&fn, ptr)
	actual, _ := cWrappers.LoadOrStore(key, fn)
	return actual.(F)
}
