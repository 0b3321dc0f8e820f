// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

// Allocator returns a freshly allocated byte slice of the given length. It
// lets a host substitute its own memory policy (a pool, an arena, an
// instrumented allocator) for the platform allocator Context uses by
// default.
type Allocator func(size int) []byte

// Deallocator releases a slice previously returned by an Allocator. The
// default is a no-op: Go's garbage collector reclaims the backing array
// once nothing references it, but the hook is called regardless so a host
// that does track allocations sees every release.
type Deallocator func([]byte)

func defaultAlloc(size int) []byte { return make([]byte, size) }
func defaultDealloc(_ []byte)      {}

// buffer is a contiguous byte region plus a monotonically advancing cursor.
// It is used for both the source (read-only during a pass) and destination
// (write-only during a pass) sides of a Context; the invariant on both is
// 0 <= offset <= len(data).
type buffer struct {
	data   []byte
	offset int
}

func (b *buffer) len() int { return len(b.data) }

func (b *buffer) remaining() int { return len(b.data) - b.offset }

// readByte returns the next source byte and advances the cursor. Callers
// must check remaining() first; readByte does not check it itself.
func (b *buffer) readByte() byte {
	v := b.data[b.offset]
	b.offset++
	return v
}

// peek24 reads a 24-bit little-endian length at an arbitrary offset without
// moving the cursor: WORD remainder + BYTE multiplier * 0x10000, per the
// container header layout in spec.md §3.
func peek24(data []byte, offset int) int {
	return int(data[offset]) | int(data[offset+1])<<8 | int(data[offset+2])<<16
}

// readLength24 reads a 24-bit little-endian length at the buffer's cursor
// and advances it by 3.
func (b *buffer) readLength24() int {
	n := peek24(b.data, b.offset)
	b.offset += 3
	return n
}
