// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import (
	"github.com/stunts-tools/stunpack/internal/huffman"
	"github.com/stunts-tools/stunpack/internal/rle"
	"github.com/stunts-tools/stunpack/internal/rpck"
)

// DetectFormat classifies the Context's source buffer without decoding
// it. RPck is checked first since it carries an unambiguous magic value,
// then the EAC/Barchard marker, then the Stunts container: Stunts has no
// identifying bytes of its own, so it is recognized by checking that its
// header fields form a legal combination.
func (c *Context) DetectFormat() FormatTag {
	data := c.src.data

	if rpck.IsValid(data) {
		return FormatRPck
	}
	if len(data) >= 2 && data[1] == 0xFB {
		return FormatEAC
	}
	if stuntsIsValid(data) {
		return FormatStunts
	}
	return FormatUnknown
}

func stuntsIsValid(data []byte) bool {
	if len(data) < stuntsSizeMin || len(data) > stuntsSizeMax {
		return false
	}

	totalLength := peek24(data, 2)
	if totalLength < max(stuntsSizeMin, len(data)-stuntsSizeMin) {
		return false
	}

	if data[0]&passesRecur != 0 {
		passes := int(data[0] & passesMask)
		passLength := peek24(data, 5)

		return passes == 2 &&
			totalLength > passLength &&
			passLength > max(stuntsSizeMin, len(data)-stuntsSizeMin) &&
			(rle.IsValidHeader(data, 4) || huffman.IsValidHeader(data, 4))
	}

	return rle.IsValidHeader(data, 0) || huffman.IsValidHeader(data, 0)
}
