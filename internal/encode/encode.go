// Package encode provides the single canonical byte encoding used across the
// node. Every Hashable implementation and every wire message round-trips
// through Canonical so two independent nodes agree on bytes bit-for-bit.
package encode

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// handle is shared and configured once for deterministic output: map keys
// are sorted and the struct-to-array toggle is left off so field names (and
// therefore field order as declared in the Go struct) drive the layout.
var handle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	h.StructToArray = false
	return h
}()

// Canonical returns the deterministic byte encoding for v. Two values that
// are == produce identical output; this is the contract every Hashable
// implementation in this module relies on.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, handle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Canonical into dst (a pointer).
func Decode(data []byte, dst any) error {
	dec := codec.NewDecoderBytes(data, handle)
	return dec.Decode(dst)
}
