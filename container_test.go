// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack_test

import (
	"bytes"
	"testing"

	"github.com/stunts-tools/stunpack"
)

// rleBlob builds a full [type][dstLen][sub-header][payload] pass blob
// around a literal payload, using a single never-occurring escape byte so
// the RLE decoder copies it straight through (no sequence or byte-run
// escapes triggered). It is also a valid stand-alone single-pass Stunts
// container; DetectFormat only recognizes it as one when the blob is at
// least 16 bytes long (a payload of 6 bytes or more).
func rleBlob(payload []byte, esc byte) []byte {
	blob := []byte{1, byte(len(payload)), byte(len(payload) >> 8), byte(len(payload) >> 16)}
	blob = append(blob, byte(len(payload)), byte(len(payload)>>8), byte(len(payload)>>16), 0, 0x81, esc)
	return append(blob, payload...)
}

func TestDecompressStuntsSinglePassRLE(t *testing.T) {
	src := rleBlob([]byte("AB"), 0xFF)

	c := stunpack.New(stunpack.Format{Type: stunpack.FormatStunts})
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if got, want := c.TakeOutput(), []byte("AB"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressStuntsSinglePassHuffman(t *testing.T) {
	// levels=1, 2 leaves, alphabet "AB" (bit 0 -> 'A', bit 1 -> 'B'),
	// bitstream 0x50,0x00 encodes bits 0,1,0,1 -> "ABAB".
	src := []byte{2, 4, 0, 0, 0x01, 0x02, 'A', 'B', 0x50, 0x00}

	c := stunpack.New(stunpack.Format{
		Type:   stunpack.FormatStunts,
		Stunts: stunpack.StuntsOptions{Dialect: stunpack.DialectV11},
	})
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if got, want := c.TakeOutput(), []byte("ABAB"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressStuntsTwoPasses(t *testing.T) {
	// Pass 1 (applied last, decodes to the final "AB") is an ordinary
	// single-pass RLE blob on its own.
	pass1 := rleBlob([]byte("AB"), 0xFF)

	// Pass 0 decodes to exactly the bytes of pass1: a literal RLE copy
	// whose escape byte (0xAA) does not occur anywhere in pass1.
	pass0 := rleBlob(pass1, 0xAA)

	src := []byte{0x82, 2, 0, 0} // recur flag set, passes=2, finalLen=2
	src = append(src, pass0...)

	c := stunpack.New(stunpack.Format{Type: stunpack.FormatStunts})
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if got, want := c.TakeOutput(), []byte("AB"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressStuntsMaxPasses(t *testing.T) {
	pass1 := rleBlob([]byte("AB"), 0xFF)
	pass0 := rleBlob(pass1, 0xAA)
	src := append([]byte{0x82, 2, 0, 0}, pass0...)

	c := stunpack.New(stunpack.Format{
		Type:   stunpack.FormatStunts,
		Stunts: stunpack.StuntsOptions{MaxPasses: 1},
	})
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	// Limited to one pass: the output is pass0's decoded bytes (pass1's
	// still-encoded blob), not the fully unwound "AB".
	if got, want := c.TakeOutput(), pass1; !bytes.Equal(got, want) {
		t.Errorf("got %d bytes, want %d bytes", len(got), len(want))
	}
}

// TestDecompressStuntsDialectFallback builds a two-pass container whose
// first (Huffman) pass is packed in the Stunts 1.0 (bit-reversed) dialect.
// Decoded naturally it produces 11 bytes that don't look like a run-length
// header (rle.IsValidHeader fails), so the Auto dialect's fallback
// heuristic must retry with the reversed dialect before the container can
// reach the final RLE pass.
//
// The Huffman sub-header describes a 3-level tree with a complete code
// (widths 2,2,2,3,3) over the alphabet {0x00,0x01,0x81,0xFF,0x41}: code
// 00->0x00, 01->0x01, 10->0x81, 110->0xFF, 111->0x41. Encoding the 11-byte
// RLE blob rleBlob([]byte("A"), 0xFF) == {1,1,0,0,1,0,0,0,0x81,0xFF,0x41}
// with those codes and bit-reversing each packed byte gives the payload
// below; decoding it with DialectV11 (no reversal) instead yields 11
// different bytes starting 0x00, which is not a valid RLE header.
func TestDecompressStuntsDialectFallback(t *testing.T) {
	huffHeader := []byte{0x03, 0, 3, 2, 0x00, 0x01, 0x81, 0xFF, 0x41}
	huffPayload := []byte{0x0A, 0x02, 0xED}

	pass1 := rleBlob([]byte("A"), 0xFF)
	pass0 := append([]byte{2, byte(len(pass1)), byte(len(pass1) >> 8), byte(len(pass1) >> 16)}, huffHeader...)
	pass0 = append(pass0, huffPayload...)

	src := append([]byte{0x82, 1, 0, 0}, pass0...)

	var events []stunpack.Event
	c := stunpack.New(stunpack.Format{Type: stunpack.FormatStunts},
		stunpack.WithVerbosity(1),
		stunpack.WithLogSink(func(ev stunpack.Event) { events = append(events, ev) }))
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if got, want := c.TakeOutput(), []byte("A"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	var sawFallbackWarning bool
	for _, ev := range events {
		if ev.Level == stunpack.LogWarn {
			sawFallbackWarning = true
		}
	}
	if !sawFallbackWarning {
		t.Error("expected a warning event for the dialect fallback retry")
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name string
		src  []byte
		want stunpack.FormatTag
	}{
		{"rle container", rleBlob([]byte("ABCDEF"), 0xFF), stunpack.FormatStunts},
		{"rpck", append(rpckHeader(6, 0), 0xFD, 'A', 'B', 'C', 0xFD, 'A', 'B', 'C'), stunpack.FormatRPck},
		{"eac", []byte{0x00, 0xFB, 0x00, 0x00}, stunpack.FormatEAC},
		{"garbage", []byte{0xDE, 0xAD, 0xBE, 0xEF}, stunpack.FormatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := stunpack.New(stunpack.Format{Type: stunpack.FormatAuto})
			defer c.Teardown()
			c.SetSource(tc.src)
			if got := c.DetectFormat(); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecompressRPckDirect(t *testing.T) {
	src := append(rpckHeader(6, 0), 0xFD, 'A', 'B', 'C', 0xFD, 'A', 'B', 'C')

	c := stunpack.New(stunpack.Format{Type: stunpack.FormatRPck})
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if got, want := c.TakeOutput(), []byte("ABCABC"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressUnknownFormat(t *testing.T) {
	c := stunpack.New(stunpack.Format{Type: stunpack.FormatAuto})
	defer c.Teardown()
	c.SetSource([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	if result := c.Decompress(); result != stunpack.ResultUnknownFormat {
		t.Fatalf("Decompress: got %v, want %v", result, stunpack.ResultUnknownFormat)
	}
}

func TestDecompressEACUnsupported(t *testing.T) {
	c := stunpack.New(stunpack.Format{Type: stunpack.FormatEAC})
	defer c.Teardown()
	c.SetSource([]byte{0x00, 0xFB, 0x00, 0x00})

	if result := c.Decompress(); result != stunpack.ResultErr {
		t.Fatalf("Decompress: got %v, want %v", result, stunpack.ResultErr)
	}
	if c.Err() == nil {
		t.Fatal("expected a non-nil Err() for an unsupported EAC buffer")
	}
}

func TestDecompressVerboseLogSink(t *testing.T) {
	src := rleBlob([]byte("AB"), 0xFF)

	var events []stunpack.Event
	c := stunpack.New(stunpack.Format{Type: stunpack.FormatStunts},
		stunpack.WithVerbosity(2),
		stunpack.WithLogSink(func(ev stunpack.Event) { events = append(events, ev) }))
	defer c.Teardown()
	c.SetSource(src)

	if result := c.Decompress(); result != stunpack.ResultOK {
		t.Fatalf("Decompress: %v (%v)", result, c.Err())
	}
	if len(events) == 0 {
		t.Error("expected at least one diagnostic event at verbosity 2")
	}
}
