// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

// FormatTag classifies the container format of a compressed buffer.
type FormatTag int

const (
	// FormatAuto asks Context to run the detector before decompressing.
	FormatAuto FormatTag = iota
	// FormatStunts is the PC/Amiga Stunts/4-D Sports Driving container.
	FormatStunts
	// FormatRPck is the Amiga "RPck" archiver format.
	FormatRPck
	// FormatEAC is the EA/Barchard compression library. Detected but not
	// decoded: Decompress returns a DecodeError if dispatched against it.
	FormatEAC
	// FormatUnknown means the detector could not classify the buffer.
	FormatUnknown
)

func (t FormatTag) String() string {
	switch t {
	case FormatAuto:
		return "auto"
	case FormatStunts:
		return "stunts"
	case FormatRPck:
		return "rpck"
	case FormatEAC:
		return "eac"
	case FormatUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Dialect selects the Huffman bit-stream ordering used by a Stunts
// container. The two PC game releases pack bits in opposite orders and
// neither file carries a marker saying which; Dialect lets a caller pin
// one down, or leave it Auto so the container driver's fallback heuristic
// picks for each pass.
type Dialect int

const (
	// DialectAuto retries with DialectV10 when a Huffman pass looks wrong.
	DialectAuto Dialect = iota
	// DialectV10 is Br0derbund Stunts 1.0: Huffman bytes are bit-reversed.
	DialectV10
	// DialectV11 is Stunts 1.1 and 4-D Sports Driving: natural bit order.
	DialectV11
)

func (d Dialect) String() string {
	switch d {
	case DialectAuto:
		return "auto"
	case DialectV10:
		return "stunts1.0"
	case DialectV11:
		return "stunts1.1"
	default:
		return "invalid"
	}
}

// StuntsOptions carries the Stunts-specific knobs of a Format.
type StuntsOptions struct {
	// Dialect pins the Huffman bit order, or leaves it Auto.
	Dialect Dialect
	// MaxPasses caps the number of container passes executed; 0 means
	// unlimited. Decompress returns ResultOK with partial output if the
	// container has more passes than MaxPasses allows.
	MaxPasses int
}

// Format is a tagged union over the container kinds Context understands.
type Format struct {
	Type   FormatTag
	Stunts StuntsOptions
}
