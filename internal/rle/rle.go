// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rle implements the two-stage run-length scheme used by Stunts
// resource passes: an optional sequence pass followed by a single-byte run
// pass, both driven by one escape-code lookup table built from the pass's
// sub-header.
package rle

import "fmt"

// Sub-header field layout, mirroring STUNTS_RLE_* in the reference decoder.
const (
	EscLenMask  = 0x7F
	EscLenMax   = 0x0A
	EscLenNoSeq = 0x80
	// EscSeqPos is the escape list index carrying the sequence escape byte.
	EscSeqPos = 1
)

// DecodeError reports a malformed RLE sub-header or a payload that
// overruns a source or destination bound.
type DecodeError string

func (e DecodeError) Error() string { return "rle: " + string(e) }

func errf(format string, args ...interface{}) DecodeError {
	return DecodeError(fmt.Sprintf(format, args...))
}

// Hooks carries optional diagnostic callbacks used while decoding. A nil
// *Hooks, or a Hooks with nil fields, is always safe to pass: every call
// is a no-op when the corresponding field is unset.
type Hooks struct {
	Warnf     func(format string, args ...interface{})
	Diagf     func(format string, args ...interface{})
	DiagArray func(name string, arr []byte)
	// Progress is invoked with a 0-100 percentage as each stage advances,
	// at roughly the granularity the reference decoder's progress bar uses.
	Progress func(pct int)
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

func (h *Hooks) progress(pct int) {
	if h != nil && h.Progress != nil {
		h.Progress(pct)
	}
}

// IsValidHeader reports whether data[offset:] looks like a plausible RLE
// pass header: type byte 1, reserved byte 0, escape length in [1,10]. It
// is used both by format detection and by the Huffman dialect fallback
// heuristic, which re-validates the previous pass's output as RLE.
func IsValidHeader(data []byte, offset int) bool {
	if offset < 0 || offset+9 > len(data) {
		return false
	}
	if data[offset] != 1 || data[offset+7] != 0 {
		return false
	}
	escLen := data[offset+8] & EscLenMask
	return escLen >= 1 && escLen <= EscLenMax
}

// Decompress decodes one RLE pass. src begins at the RLE sub-header
// (immediately following the container's 4-byte pass header: 1 byte type,
// 3 bytes output length) and extends to the end of the current source
// buffer. dstLen is the pass's declared output length. Decompress returns
// exactly dstLen decoded bytes on success.
func Decompress(src []byte, dstLen int, hooks *Hooks) ([]byte, error) {
	if len(src) < 5 {
		return nil, errf("reached end of source buffer while parsing run-length header")
	}

	statedSrcLen := int(src[0]) | int(src[1])<<8 | int(src[2])<<16
	hooks.diagf("  %-10s %d", "srcLen", statedSrcLen)

	unk := src[3]
	if unk != 0 {
		hooks.warnf("Unknown RLE header field (unk) is %#02x, expected 0", unk)
	}

	escLenByte := src[4]
	escLen := int(escLenByte & EscLenMask)
	noSeq := escLenByte&EscLenNoSeq != 0
	hooks.diagf("  %-10s %d (no sequences = %v)", "escLen", escLen, noSeq)

	if escLen > EscLenMax {
		return nil, errf("escLen greater than max length %#x, got %#x", EscLenMax, escLen)
	}

	pos := 5
	if pos+escLen > len(src) {
		return nil, errf("reached end of source buffer while parsing run-length header")
	}
	esc := append([]byte(nil), src[pos:pos+escLen]...)
	pos += escLen
	hooks.diagArray("esc", esc)

	if !noSeq && len(esc) <= EscSeqPos {
		return nil, errf("sequence escape code unavailable, escLen too short (%d)", len(esc))
	}

	var lookup [256]byte
	for i, b := range esc {
		lookup[b] = byte(i + 1)
	}
	hooks.diagArray("escLookup", lookup[:])

	payload := src[pos:]
	if !noSeq {
		seqOut, err := decodeSequences(payload, esc[EscSeqPos], dstLen, hooks)
		if err != nil {
			return nil, err
		}
		payload = seqOut
	}

	return decodeBytes(payload, lookup, dstLen, hooks)
}

// decodeSequences runs the sequence pass (Stage A). It consumes payload in
// its entirety, per the reference decoder: the sequence pass has no
// output-length terminating condition of its own, only a destination
// capacity bound.
func decodeSequences(payload []byte, esc byte, dstCap int, hooks *Hooks) ([]byte, error) {
	out := make([]byte, 0, dstCap)
	write := func(b byte) error {
		if len(out) >= dstCap {
			return errf("reached end of temporary buffer while writing non-RLE byte")
		}
		out = append(out, b)
		return nil
	}

	pos := 0
	last := -1
	for pos < len(payload) {
		cur := payload[pos]
		pos++

		if cur == esc {
			seqStart := pos
			for {
				if pos >= len(payload) {
					return nil, errf("reached end of source buffer before finding sequence end escape code %#02x", esc)
				}
				cur = payload[pos]
				pos++
				if cur == esc {
					break
				}
				if err := write(cur); err != nil {
					return nil, err
				}
			}
			if pos >= len(payload) {
				return nil, errf("reached end of source buffer while reading sequence repeat count")
			}
			rep := int(payload[pos]) - 1 // already wrote the sequence once
			pos++
			seqLen := pos - seqStart - 2
			for ; rep > 0; rep-- {
				for i := 0; i < seqLen; i++ {
					if err := write(payload[seqStart+i]); err != nil {
						return nil, errf("reached end of temporary buffer while writing repeated sequence")
					}
				}
			}
		} else {
			if err := write(cur); err != nil {
				return nil, err
			}
		}

		if pct := (pos * 100) / len(payload); pct/25 != last/25 {
			last = pct
			hooks.progress((pct / 25) * 25)
		}
	}
	return out, nil
}

// decodeBytes runs the single-byte run pass (Stage B), filling exactly
// dstLen bytes from payload.
func decodeBytes(payload []byte, lookup [256]byte, dstLen int, hooks *Hooks) ([]byte, error) {
	out := make([]byte, dstLen)
	pos, n := 0, 0

	readByte := func() (byte, error) {
		if pos >= len(payload) {
			return 0, errf("reached unexpected end of source buffer while decoding single-byte runs")
		}
		b := payload[pos]
		pos++
		return b, nil
	}

	repeat := func(val byte, rep int) error {
		for ; rep > 0; rep-- {
			if n >= dstLen {
				return errf("reached end of temporary buffer while writing byte run")
			}
			out[n] = val
			n++
		}
		return nil
	}

	last := -1
	for n < dstLen {
		cur, err := readByte()
		if err != nil {
			return nil, err
		}

		if k := lookup[cur]; k != 0 {
			switch k {
			case 1: // one-byte repetition counter
				if pos+2 > len(payload) {
					return nil, errf("reached unexpected end of source buffer while decoding single-byte runs")
				}
				rep := int(payload[pos])
				val := payload[pos+1]
				pos += 2
				if err := repeat(val, rep); err != nil {
					return nil, err
				}
			case 3: // two-byte repetition counter
				if pos+3 > len(payload) {
					return nil, errf("reached unexpected end of source buffer while decoding single-byte runs")
				}
				rep := int(payload[pos]) | int(payload[pos+1])<<8
				val := payload[pos+2]
				pos += 3
				if err := repeat(val, rep); err != nil {
					return nil, err
				}
			default: // n repetitions, including the unused sequence-escape slot (k==2)
				val, err := readByte()
				if err != nil {
					return nil, err
				}
				if err := repeat(val, int(k)-1); err != nil {
					return nil, err
				}
			}
		} else {
			out[n] = cur
			n++
		}

		if pct := (n * 100) / dstLen; pct/25 != last/25 {
			last = pct
			hooks.progress((pct / 25) * 25)
		}
	}

	if pos < len(payload) {
		hooks.warnf("RLE decoding finished with unprocessed data left in source buffer (%d bytes left)", len(payload)-pos)
	}
	return out, nil
}
