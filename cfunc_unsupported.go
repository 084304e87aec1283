//go:build !((darwin || linux || windows) && (amd64 || arm64))

package vhook

func encodeC[F any](fn F) (uintptr, error) {
	return 0, ErrUnsupportedConvention
}

// decodeC returns nil; Install already refused to put anything in the cell.
func decodeC[F any](ptr uintptr) F {
	var fn F
	return fn
}
