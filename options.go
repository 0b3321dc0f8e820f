// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package stunpack

// Option configures a Context created by New.
type Option func(*Context)

// WithVerbosity sets the event verbosity: 0 silent, 1 progress, 2 per-pass
// diagnostics, 3 per-symbol trace.
func WithVerbosity(v int) Option {
	return func(c *Context) { c.verbosity = v }
}

// WithLogSink sets the event sink. A nil sink (the default) discards all
// events regardless of verbosity.
func WithLogSink(fn LogFunc) Option {
	return func(c *Context) { c.log = fn }
}

// WithAllocator overrides the allocator/deallocator pair used for the
// source and destination buffers. Passing a nil alloc or dealloc leaves
// the platform default for that half of the pair.
func WithAllocator(alloc Allocator, dealloc Deallocator) Option {
	return func(c *Context) {
		if alloc != nil {
			c.alloc = alloc
		}
		if dealloc != nil {
			c.dealloc = dealloc
		}
	}
}
