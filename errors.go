// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import "fmt"

// A DecodeError is recorded as Context.Err when a buffer is invalid at the
// container level: a truncated or malformed Stunts header, an EAC buffer,
// or a buffer the detector cannot classify. Failures inside a run-length,
// Huffman or RPck payload are reported by those decoders' own DecodeError
// types, which Context.Err returns unwrapped.
type DecodeError string

func (e DecodeError) Error() string {
	return "stunpack: " + string(e)
}

func errf(format string, args ...interface{}) DecodeError {
	return DecodeError(fmt.Sprintf(format, args...))
}

// Result is the outcome of a Decompress call, mirroring the result codes
// of the original C library so that hosts built against either can share
// the same exit-code conventions.
type Result int

const (
	// ResultOK indicates the destination buffer was fully decoded.
	ResultOK Result = 0
	// ResultErr indicates a fatal decode error; see Context.Err for detail.
	ResultErr Result = 1
	// ResultUnknownFormat indicates the format detector could not classify
	// the source buffer.
	ResultUnknownFormat Result = 3
	// ResultDataLeft indicates a Huffman pass left unconsumed source bytes.
	// The container driver downgrades this to ResultOK once the dialect
	// fallback heuristic has examined it, so Decompress never returns it;
	// it is kept for parity with the original library's result codes.
	ResultDataLeft Result = 10
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultErr:
		return "error"
	case ResultUnknownFormat:
		return "unknown format"
	case ResultDataLeft:
		return "data left"
	default:
		return "invalid result"
	}
}
