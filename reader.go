// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import (
	"bytes"
	"context"
	"io"
)

// reader adapts a Context to io.Reader for callers that want to io.Copy a
// decoded resource rather than call Decompress/TakeOutput directly.
// Decoding itself is still the Context's ordinary single-threaded,
// synchronous call: there is no concurrent scan-ahead here, since nothing
// in the Stunts/RPck container formats can be decoded incrementally
// before the whole pass has been read (§5: a pass consumes its entire
// input before producing output).
type reader struct {
	ctx *Context
	buf *bytes.Reader
	err error
}

// NewReader decompresses src under format and returns an io.Reader over
// the result. The Context is torn down when Read reaches EOF, or at once if
// decompression fails; callers that need access to Err() or
// diagnostics beyond what Read's error return conveys should use Context
// directly instead.
func NewReader(ctx context.Context, src []byte, format Format, opts ...Option) io.Reader {
	c := New(format, opts...)
	c.SetSource(src)
	r := &reader{ctx: c}
	if result := c.DecompressContext(ctx); result != ResultOK {
		r.err = c.Err()
		if r.err == nil {
			r.err = errf("decompression failed: %s", result)
		}
		c.Teardown()
		return r
	}
	r.buf = bytes.NewReader(c.TakeOutput())
	return r
}

// Read implements io.Reader. A reader constructed over a failed
// decompression returns its stored error on every call, matching the
// teacher's pattern of surfacing a background failure on the next Read
// rather than at construction time.
func (r *reader) Read(buf []byte) (int, error) {
	if r.buf == nil {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n, err := r.buf.Read(buf)
	if err == io.EOF {
		r.ctx.Teardown()
	}
	return n, err
}
