// +build ignore

// gen.go generates canonical-Huffman-coded byte stream fixtures for the
// stunpack decoder tests, the way gentestdata.go/genpatterns.go generate
// bzip2 fixtures by shelling out to the reference encoder. Stunts has no
// surviving reference encoder, so fixtures here are built directly from
// the bit-stream layout instead: a 2-symbol, 1-bit-per-code alphabet
// packed with bitstream.BitWriter, in both dialects.
//
// Run with: go run gen.go
package main

import (
	"fmt"
	"os"

	"github.com/stunts-tools/stunpack/internal/bitstream"
)

// pattern is a tiny hand-chosen symbol sequence exercising both Huffman
// codes of a 2-leaf, 1-level tree: alphabet {'A','B'}, 'A' coded 0, 'B'
// coded 1, matching internal/huffman's TestDecompressSingleBitCodes.
var pattern = []byte{1, 0, 1, 0} // B A B A

// wideCodes is a 9-bit-per-code sequence exercising the offset-table
// escape path (every 8-bit prefix-table entry is WidthEsc), matching
// internal/huffman's TestDecompressWideCodes: code 0 -> 'A', code 1 -> 'B'.
var wideCodes = []uint32{0, 1} // A B

func natural() []byte {
	var w bitstream.BitWriter
	for _, bit := range pattern {
		w.WriteBits(uint32(bit), 1)
	}
	return w.Bytes()
}

func naturalWide() []byte {
	var w bitstream.BitWriter
	for _, code := range wideCodes {
		w.WriteBits(code, 9)
	}
	return w.Bytes()
}

func reversed(nat []byte) []byte {
	out := make([]byte, len(nat))
	for i, b := range nat {
		out[i] = bitstream.ReverseByte(b)
	}
	return out
}

func main() {
	nat := natural()
	rev := reversed(nat)
	wide := naturalWide()

	for _, f := range []struct {
		name string
		data []byte
	}{
		{"huffman_v11_single_bit.bin", nat},
		{"huffman_v10_single_bit.bin", rev},
		{"huffman_v11_wide_code.bin", wide},
	} {
		if err := os.WriteFile(f.name, f.data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", f.name, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s: %x\n", f.name, f.data)
	}
}
