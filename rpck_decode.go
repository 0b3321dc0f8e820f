// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

import "github.com/stunts-tools/stunpack/internal/rpck"

// decompressRPck decodes the Context's source buffer as an RPck archive:
// a 12-byte header (magic, final length, saved length) followed by a
// signed-control-byte byte stream.
func (c *Context) decompressRPck() Result {
	out, err := rpck.Decompress(c.src.data, &rpck.Hooks{Diagf: c.diagf})
	if err != nil {
		c.fail(err)
		return ResultErr
	}
	c.allocDst(len(out))
	copy(c.dst.data, out)
	c.dst.offset = len(out)
	return ResultOK
}
