// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package huffman implements the canonical Huffman coding used by Stunts
// resource passes: a 256-entry direct-lookup prefix table for codes up to
// 8 bits wide, backed by a per-level offset table for the rare codes that
// run wider, read from one of two incompatible bit-stream dialects.
package huffman

import "fmt"

// Sub-header field layout, mirroring STUNTS_HUFF_* in the reference
// decoder.
const (
	LevelsMask  = 0x7F
	LevelsMax   = 0x10
	LevelsDelta = 0x80

	AlphLen     = 0x100
	PrefixWidth = 8
	PrefixLen   = 1 << PrefixWidth
	PrefixMSB   = 1 << (PrefixWidth - 1)
	WidthEsc    = 0x40
)

// Dialect selects the bit order codes are packed in.
type Dialect int

const (
	// DialectV11 is Stunts 1.1 / 4-D Sports Driving: natural bit order.
	DialectV11 Dialect = iota
	// DialectV10 is Brøderbund Stunts 1.0: every source byte is bit-reversed
	// before use.
	DialectV10
)

// DecodeError reports a malformed Huffman sub-header or a bit-stream that
// violates a table invariant while decoding.
type DecodeError string

func (e DecodeError) Error() string { return "huffman: " + string(e) }

func errf(format string, args ...interface{}) DecodeError {
	return DecodeError(fmt.Sprintf(format, args...))
}

// ErrDataLeft is returned alongside a fully-decoded destination buffer
// when the source buffer still had unconsumed bytes once the destination
// filled up. Callers decide whether that is fatal; the Stunts container
// driver downgrades it to success once its dialect fallback heuristic has
// had a chance to look at it.
const ErrDataLeft = DecodeError("unprocessed data left in source buffer")

// Hooks carries optional diagnostic callbacks. A nil *Hooks, or one with
// nil fields, is always safe to use.
type Hooks struct {
	Warnf     func(format string, args ...interface{})
	Diagf     func(format string, args ...interface{})
	DiagArray func(name string, arr []byte)
	Tracef    func(format string, args ...interface{})
	Progress  func(pct int)
}

func (h *Hooks) warnf(format string, args ...interface{}) {
	if h != nil && h.Warnf != nil {
		h.Warnf(format, args...)
	}
}

func (h *Hooks) diagf(format string, args ...interface{}) {
	if h != nil && h.Diagf != nil {
		h.Diagf(format, args...)
	}
}

func (h *Hooks) diagArray(name string, arr []byte) {
	if h != nil && h.DiagArray != nil {
		h.DiagArray(name, arr)
	}
}

func (h *Hooks) tracef(format string, args ...interface{}) {
	if h != nil && h.Tracef != nil {
		h.Tracef(format, args...)
	}
}

func (h *Hooks) progress(pct int) {
	if h != nil && h.Progress != nil {
		h.Progress(pct)
	}
}

// reverseByte[b] is b with its bits in reverse order, used by DialectV10.
var reverseByte [256]byte

func init() {
	for i := 0; i < 256; i++ {
		b := byte(i)
		var r byte
		for k := 0; k < 8; k++ {
			r = r<<1 | b&1
			b >>= 1
		}
		reverseByte[i] = r
	}
}

// IsValidHeader reports whether data[offset:] looks like a plausible
// Huffman pass header: type byte 2, tree levels in [2,16], and no leaf
// nodes at the root (the first level's leaf count is zero).
func IsValidHeader(data []byte, offset int) bool {
	if offset < 0 || offset+6 > len(data) {
		return false
	}
	if data[offset] != 2 {
		return false
	}
	levels := data[offset+4] & LevelsMask
	return levels >= 2 && levels <= LevelsMax && data[offset+5] == 0
}

// bitSource reads dialect-adjusted bytes from a Huffman bit stream. It
// tolerates reading exactly one byte past the end of data (returning a
// zero byte) to match the trailing-bits slack in real Stunts resources;
// reading further is reported by overrun.
type bitSource struct {
	data    []byte
	pos     int
	dialect Dialect
}

func (r *bitSource) get() byte {
	var b byte
	if r.pos < len(r.data) {
		b = r.data[r.pos]
	}
	r.pos++
	if r.dialect == DialectV10 {
		b = reverseByte[b]
	}
	return b
}

// overrun reports whether the most recently consumed byte lay two or more
// positions past the end of data.
func (r *bitSource) overrun() bool { return r.pos > len(r.data)+1 }

func (r *bitSource) leftover() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Decompress decodes one Huffman pass. src begins at the Huffman
// sub-header (immediately following the container's 4-byte pass header)
// and extends to the end of the current source buffer; dstLen is the
// pass's declared output length.
//
// Decompress returns (dst, ErrDataLeft) rather than a nil error when the
// destination filled before the source was exhausted; this is the signal
// the Stunts dialect fallback heuristic inspects, and the value is not
// otherwise fatal.
func Decompress(src []byte, dstLen int, dialect Dialect, hooks *Hooks) ([]byte, error) {
	if len(src) < 1 {
		return nil, errf("reached end of source buffer while parsing Huffman header")
	}
	pos := 0

	levelsByte := src[pos]
	pos++
	delta := levelsByte&LevelsDelta != 0
	levels := int(levelsByte & LevelsMask)
	hooks.diagf("  %-10s %d", "levels", levels)
	hooks.diagf("  %-10s %v", "delta", delta)

	if levels > LevelsMax {
		return nil, errf("Huffman tree levels greater than %d, got %d", LevelsMax, levels)
	}
	if pos+levels > len(src) {
		return nil, errf("reached end of source buffer while parsing Huffman header")
	}
	leafNodesPerLevel := make([]byte, levels)
	copy(leafNodesPerLevel, src[pos:pos+levels])
	pos += levels

	codeOffsets, totalCodes, alphLen := genOffsets(levels, leafNodesPerLevel, hooks)
	if alphLen > AlphLen {
		return nil, errf("alphabet longer than %d, got %d", AlphLen, alphLen)
	}

	if pos+alphLen > len(src) {
		return nil, errf("reached end of source buffer while parsing Huffman header")
	}
	alphabet := make([]byte, alphLen)
	copy(alphabet, src[pos:pos+alphLen])
	pos += alphLen
	hooks.diagArray("alphabet", alphabet)

	symbols, widths := genPrefix(levels, leafNodesPerLevel, alphabet)
	hooks.diagArray("symbols", symbols[:])
	hooks.diagArray("widths", widths[:])

	r := &bitSource{data: src[pos:], dialect: dialect}
	return decode(r, alphabet, symbols, widths, codeOffsets, totalCodes, delta, dstLen, hooks)
}

// genOffsets builds the per-level offset and total-code tables used to
// translate codes wider than 8 bits into alphabet indices.
func genOffsets(levels int, leafNodesPerLevel []byte, hooks *Hooks) (codeOffsets [LevelsMax]int16, totalCodes [LevelsMax]uint16, alphLen int) {
	codes := 0
	for level := 0; level < levels; level++ {
		codes *= 2
		codeOffsets[level] = int16(alphLen - codes)

		codes += int(leafNodesPerLevel[level])
		alphLen += int(leafNodesPerLevel[level])
		totalCodes[level] = uint16(codes)

		hooks.diagf("  codeOffsets[%2d] = %6d  totalCodes[%2d] = %6d", level, codeOffsets[level], level, totalCodes[level])
	}
	return codeOffsets, totalCodes, alphLen
}

// genPrefix fills the 256-entry direct lookup table: symbols[c] is the
// decoded byte for the 8-bit pattern c when widths[c] <= PrefixWidth;
// widths[c] == WidthEsc marks codes that must fall through to the offset
// table.
func genPrefix(levels int, leafNodesPerLevel []byte, alphabet []byte) (symbols [PrefixLen]byte, widths [PrefixLen]byte) {
	maxWidth := levels
	if maxWidth > PrefixWidth {
		maxWidth = PrefixWidth
	}

	totalNodes := byte(PrefixMSB)
	prefix := 0
	alphabetIndex := 0
	for width := 1; width <= maxWidth; width++ {
		leafNodes := int(leafNodesPerLevel[width-1])
		for ; leafNodes > 0; leafNodes-- {
			for remaining := totalNodes; remaining > 0; remaining-- {
				symbols[prefix] = alphabet[alphabetIndex]
				widths[prefix] = byte(width)
				prefix++
			}
			alphabetIndex++
		}
		totalNodes >>= 1
	}

	for ; prefix < PrefixLen; prefix++ {
		widths[prefix] = WidthEsc
	}
	return symbols, widths
}

// decode runs the bit-stream decode loop, filling exactly dstLen bytes.
func decode(r *bitSource, alphabet []byte, symbols, widths [PrefixLen]byte, codeOffsets [LevelsMax]int16, totalCodes [LevelsMax]uint16, delta bool, dstLen int, hooks *Hooks) ([]byte, error) {
	dst := make([]byte, dstLen)
	n := 0

	readWidth := 8
	var curOut byte

	curWord := uint16(r.get())<<8 | uint16(r.get())

	lastPct := -1
	for n < dstLen {
		code := byte(curWord >> 8)
		curWidth := int(widths[code])

		if curWidth > PrefixWidth {
			if curWidth != WidthEsc {
				return nil, errf("invalid escape value. curWidth != %#02x, got %#02x", WidthEsc, curWidth)
			}

			curByte := byte(curWord & 0x00FF)
			curWord >>= PrefixWidth

			level := PrefixWidth
			for {
				if readWidth == 0 {
					curByte = r.get()
					readWidth = 8
				}

				bit := uint16(0)
				if curByte&PrefixMSB != 0 {
					bit = 1
				}
				curWord = (curWord << 1) + bit
				curByte <<= 1
				readWidth--

				if level >= LevelsMax {
					return nil, errf("offset table out of bounds (%d >= %d)", level, LevelsMax)
				}

				if curWord < totalCodes[level] {
					curWord = uint16(int(curWord) + int(codeOffsets[level]))
					if curWord > 0xFF {
						return nil, errf("alphabet index out of bounds (%#04x > %#04x)", curWord, AlphLen-1)
					}
					if delta {
						curOut += alphabet[curWord]
					} else {
						curOut = alphabet[curWord]
					}
					dst[n] = curOut
					n++
					hooks.tracef("wrote %#02x using offset table", curOut)
					break
				}
				level++
			}

			curWord = uint16(curByte)<<uint(readWidth) | uint16(r.get())
			curWidth = 8 - readWidth
			readWidth = 8
		} else {
			if delta {
				curOut += symbols[code]
			} else {
				curOut = symbols[code]
			}
			dst[n] = curOut
			n++
			hooks.tracef("wrote %#02x from prefix table", curOut)

			if readWidth < curWidth {
				curWord <<= uint(readWidth)
				curWidth -= readWidth
				readWidth = 8
				curWord |= uint16(r.get())
			}
		}

		curWord <<= uint(curWidth)
		readWidth -= curWidth

		if r.overrun() && n < dstLen {
			return nil, errf("reached unexpected end of source buffer while decoding Huffman codes")
		}

		if pct := (n * 100) / dstLen; pct/10 != lastPct/10 {
			lastPct = pct
			hooks.progress((pct / 10) * 10)
		}
	}

	if left := r.leftover(); left > 0 {
		hooks.warnf("Huffman decoding finished with unprocessed data left in source buffer (%d bytes left)", left)
		return dst, ErrDataLeft
	}

	return dst, nil
}
