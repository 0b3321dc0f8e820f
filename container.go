// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import (
	"fmt"

	"github.com/stunts-tools/stunpack/internal/huffman"
	"github.com/stunts-tools/stunpack/internal/rle"
)

// Stunts container field layout, mirroring STUNTS_* in the reference
// decoder.
const (
	passesMask  = 0x7F
	passesRecur = 0x80
	typeRLE     = 1
	typeHuff    = 2

	stuntsSizeMin = 0x10
	stuntsSizeMax = 0xFFFFFF
)

func (c *Context) rleHooks() *rle.Hooks {
	return &rle.Hooks{
		Warnf:     c.warnf,
		Diagf:     c.diagf,
		DiagArray: c.diagArray,
		Progress:  c.reportProgress,
	}
}

func (c *Context) huffHooks() *huffman.Hooks {
	return &huffman.Hooks{
		Warnf:     c.warnf,
		Diagf:     c.diagf,
		DiagArray: c.diagArray,
		Tracef:    c.tracef,
		Progress:  c.reportProgress,
	}
}

func (c *Context) reportProgress(pct int) {
	if c.verbosity != verbosityProgress {
		return
	}
	c.emitFields(LogInfo, verbosityProgress, fmt.Sprintf("%4d%%", pct), map[string]interface{}{"progress": pct})
}

// decompressStunts implements the multi-pass Stunts container driver: an
// optional one-byte pass count followed by that many (type, output
// length) passes, each dispatched to the run-length or Huffman decoder
// and chained through the buffer-swap discipline between passes.
func (c *Context) decompressStunts() Result {
	if c.src.remaining() < 1 {
		c.fail(errf("reached EOF while parsing file header"))
		return ResultErr
	}

	c.diagf("  %-10s %s", "dialect", c.format.Stunts.Dialect)

	passesByte := c.src.data[c.src.offset]
	var passes int
	if passesByte&passesRecur != 0 {
		c.src.offset++
		passes = int(passesByte & passesMask)
		if c.src.remaining() < 3 {
			c.fail(errf("reached EOF while parsing file header"))
			return ResultErr
		}
		finalLen := c.src.readLength24()
		c.diagf("  %-10s %d", "passes", passes)
		c.diagf("  %-10s %d", "finalLen", finalLen)
	} else {
		passes = 1
	}

	if c.src.offset > c.src.len() {
		c.fail(errf("reached EOF while parsing file header"))
		return ResultErr
	}

	for i := 0; i < passes; i++ {
		c.progress("Pass %d/%d: ", i+1, passes)
		c.diagf("\nPass %d/%d", i+1, passes)

		if c.src.remaining() < 4 {
			c.fail(errf("reached end of source buffer while parsing pass header"))
			return ResultErr
		}
		passType := c.src.readByte()
		dstLen := c.src.readLength24()
		c.diagf("  %-10s %d", "dstLen", dstLen)
		c.allocDst(dstLen)

		var result Result
		switch passType {
		case typeRLE:
			c.diagf("  %-10s Run-length encoding", "type")
			result = c.decodeRLEPass(dstLen)
		case typeHuff:
			c.diagf("  %-10s Huffman coding", "type")
			result = c.decodeHuffPass(dstLen, i, passes)
		default:
			c.fail(errf("error parsing source file, expected type 1 (run-length) or 2 (Huffman), got %#02x", passType))
			return ResultErr
		}
		if result != ResultOK {
			return result
		}

		if max := c.format.Stunts.MaxPasses; max > 0 && i+1 == max && passes != max {
			c.emit(LogInfo, verbosityProgress, "Parsing limited to %d decompression pass(es), aborting.", max)
			return ResultOK
		}

		if i < passes-1 {
			if err := c.cancelled(); err != nil {
				c.err = err
				return ResultErr
			}
			c.swap()
		}
	}

	return ResultOK
}

func (c *Context) decodeRLEPass(dstLen int) Result {
	out, err := rle.Decompress(c.src.data[c.src.offset:], dstLen, c.rleHooks())
	if err != nil {
		c.fail(err)
		return ResultErr
	}
	copy(c.dst.data, out)
	c.dst.offset = len(out)
	return ResultOK
}

// decodeHuffPass decodes one Huffman pass, applying the Stunts 1.0/1.1
// bit-stream dialect fallback heuristic when the Context's Dialect is
// Auto: a pass is retried once with the bit-reversed dialect if it failed
// outright, left unconsumed source data on the final pass, or produced
// output that the next pass doesn't recognize as a valid run-length
// header.
func (c *Context) decodeHuffPass(dstLen, i, passes int) Result {
	payload := c.src.data[c.src.offset:]
	pin := c.format.Stunts.Dialect

	dialect := huffman.DialectV11
	if pin == DialectV10 {
		dialect = huffman.DialectV10
	}

	out, err := huffman.Decompress(payload, dstLen, dialect, c.huffHooks())

	if pin == DialectAuto {
		failedOutright := err != nil && err != huffman.ErrDataLeft
		dataLeftOnLastPass := err == huffman.ErrDataLeft && i == passes-1
		nextPassNotRLE := i < passes-1 && !rle.IsValidHeader(out, 0)

		if failedOutright || dataLeftOnLastPass || nextPassNotRLE {
			c.warnf("Huffman decompression with Stunts 1.1 bit stream format failed, retrying with Stunts 1.0 format.")
			out, err = huffman.Decompress(payload, dstLen, huffman.DialectV10, c.huffHooks())
		}
	}

	// Unconsumed source data is only informative once the fallback
	// heuristic has had a chance to consider it; a lone Huffman pass
	// outside of a container that leaves data behind is still not fatal.
	if err == huffman.ErrDataLeft {
		err = nil
	}
	if err != nil {
		c.fail(err)
		return ResultErr
	}

	copy(c.dst.data, out)
	c.dst.offset = len(out)
	return ResultOK
}
