// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rpck implements the Amiga "RPck" archiver format used for 3-D
// shape data in the Amiga release of 4-D Sports Driving: a 12-byte header
// followed by a signed-control-byte LZ-style byte stream.
package rpck

import "fmt"

// SizeMin is the smallest legal RPck buffer: the 12-byte header (4-byte
// magic, two 4-byte big-endian lengths) plus at least two payload bytes.
// It is also the constant in IsValid's length-consistency check.
const SizeMin = 14

// DecodeError reports a malformed RPck header or a control byte whose
// run would read or write past a buffer bound.
type DecodeError string

func (e DecodeError) Error() string { return "rpck: " + string(e) }

func errf(format string, args ...interface{}) DecodeError {
	return DecodeError(fmt.Sprintf(format, args...))
}

// Hooks carries optional diagnostic callbacks. A nil *Hooks, or one with
// nil fields, is always safe to use.
type Hooks struct {
	Diagf func(format string, args ...interface{})
}

func (h *Hooks) diagf(format string, args ...interface{}) {
	if h != nil && h.Diagf != nil {
		h.Diagf(format, args...)
	}
}

func checkMagic(data []byte) bool {
	return len(data) >= 4 && data[0] == 'R' && data[1] == 'P' && data[2] == 'c' && data[3] == 'k'
}

func peekLength32(data []byte, offset int) uint32 {
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 | uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

// IsValid reports whether src looks like a well-formed RPck buffer: the
// magic bytes are present and the declared final/saved lengths are
// consistent with the buffer's actual length.
func IsValid(src []byte) bool {
	if len(src) < SizeMin {
		return false
	}
	if !checkMagic(src) {
		return false
	}
	finalLength := peekLength32(src, 4)
	savedLength := peekLength32(src, 8)
	return finalLength-savedLength+SizeMin == uint32(len(src))
}

// Decompress decodes an RPck buffer in full, including its header.
func Decompress(src []byte, hooks *Hooks) ([]byte, error) {
	if len(src) < SizeMin {
		return nil, errf("unexpected EOF while reading RPck header")
	}
	if !checkMagic(src) {
		return nil, errf("invalid magic bytes, expected %q", "RPck")
	}

	finalLength := peekLength32(src, 4)
	savedLength := peekLength32(src, 8)
	hooks.diagf("Final length  %d", finalLength)
	hooks.diagf("Source length %d", len(src))
	hooks.diagf("Saved length  %d", savedLength)

	dst := make([]byte, finalLength)
	srcPos := 12
	dstPos := 0

	for srcPos < len(src) {
		ctrl := int8(src[srcPos])
		srcPos++

		if ctrl < 0 {
			n := int(-ctrl)
			if srcPos+n > len(src) {
				return nil, errf("attempted to read %d byte(s) past end of source buffer at offset %#04x", srcPos+n-len(src), srcPos)
			}
			if dstPos+n > len(dst) {
				return nil, errf("attempted to write %d byte(s) past end of destination buffer at offset %#04x", dstPos+n-len(dst), dstPos)
			}
			copy(dst[dstPos:dstPos+n], src[srcPos:srcPos+n])
			srcPos += n
			dstPos += n
		} else {
			if srcPos >= len(src) {
				return nil, errf("attempted to read 1 byte past end of source buffer at offset %#04x", srcPos)
			}
			val := src[srcPos]
			srcPos++
			n := int(ctrl) + 1
			if dstPos+n > len(dst) {
				return nil, errf("attempted to write %d byte(s) past end of destination buffer at offset %#04x", dstPos+n-len(dst), dstPos)
			}
			for i := 0; i < n; i++ {
				dst[dstPos] = val
				dstPos++
			}
		}
	}

	return dst, nil
}
