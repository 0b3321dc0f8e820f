// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rpck

import (
	"bytes"
	"testing"
)

func header(finalLength, savedLength uint32) []byte {
	b := make([]byte, 12)
	copy(b[0:4], "RPck")
	b[4] = byte(finalLength >> 24)
	b[5] = byte(finalLength >> 16)
	b[6] = byte(finalLength >> 8)
	b[7] = byte(finalLength)
	b[8] = byte(savedLength >> 24)
	b[9] = byte(savedLength >> 16)
	b[10] = byte(savedLength >> 8)
	b[11] = byte(savedLength)
	return b
}

func TestDecompressLiteralRuns(t *testing.T) {
	src := append(header(6, 0), 0xFD, 'A', 'B', 'C', 0xFD, 'A', 'B', 'C')
	got, err := Decompress(src, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if want := []byte("ABCABC"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressByteRun(t *testing.T) {
	src := append(header(3, 0), 0x02, 'Z')
	got, err := Decompress(src, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if want := []byte("ZZZ"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressMixed(t *testing.T) {
	// Repeat run of 'X' x2, then a literal copy of "YZ".
	src := append(header(4, 0), 0x01, 'X', 0xFE, 'Y', 'Z')
	got, err := Decompress(src, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if want := []byte("XXYZ"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressErrors(t *testing.T) {
	badMagic := append(header(6, 0), 0xFD, 'A', 'B', 'C', 0xFD, 'A', 'B', 'C')
	badMagic[0] = 'X'

	testCases := []struct {
		name string
		src  []byte
	}{
		{"too short", []byte("RPck")},
		{"bad magic", badMagic},
		{"literal run past end", append(header(3, 0), 0xFD, 'A')},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decompress(tc.src, nil); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	src := append(header(6, 0), 0xFD, 'A', 'B', 'C', 0xFD, 'A', 'B', 'C')
	if !IsValid(src) {
		t.Error("expected valid RPck buffer to be recognized")
	}

	badMagic := append([]byte(nil), src...)
	badMagic[0] = 'X'
	if IsValid(badMagic) {
		t.Error("expected bad magic to be rejected")
	}

	tooShort := src[:SizeMin-1]
	if IsValid(tooShort) {
		t.Error("expected undersized buffer to be rejected")
	}

	inconsistent := append([]byte(nil), src...)
	inconsistent[7] = 0xFF // corrupt finalLength
	if IsValid(inconsistent) {
		t.Error("expected length-inconsistent buffer to be rejected")
	}
}
