// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package stunpack decompresses the resource containers used by the PC and
// Amiga editions of the Stunts / 4-D Sports Driving series of games. It is
// a read-only decoder: given a byte buffer holding one compressed
// resource, it identifies which of a small family of container formats the
// buffer uses and reconstructs the original bytes.
//
// Decoding is strictly single-threaded and synchronous: a Context is a
// mutable object and concurrent Decompress calls on the same Context are
// undefined. Distinct Contexts over disjoint buffers are independent.
package stunpack

import "context"

// Context holds the source and destination buffers for one decode, the
// chosen format, and the verbosity/logging/allocation policy for the call.
// It owns both buffer allocations and releases them on Teardown.
type Context struct {
	src, dst buffer
	format   Format

	verbosity int
	log       LogFunc
	alloc     Allocator
	dealloc   Deallocator

	err error

	// ctx is the cancellation context threaded through Decompress; it is
	// checked only between passes (spec.md §5: cancellation is cooperative
	// and coarse). A nil ctx behaves like context.Background.
	ctx context.Context
}

// New creates a Context for the given format with the supplied options.
func New(format Format, opts ...Option) *Context {
	c := &Context{
		format:  format,
		alloc:   defaultAlloc,
		dealloc: defaultDealloc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSource installs the compressed buffer to decode. It replaces any
// existing source and destination without invoking the deallocator. The
// Context takes ownership of data: the deallocator is called on it when the
// first pass's output replaces it as the source, or on Teardown.
func (c *Context) SetSource(data []byte) {
	c.src = buffer{data: data}
	c.dst = buffer{}
	c.err = nil
}

// Err returns the cause of the most recent non-OK Result, or nil.
func (c *Context) Err() error { return c.err }

// TakeOutput returns the destination buffer produced by the most recent
// successful Decompress call. It is only valid when that call returned
// ResultOK.
func (c *Context) TakeOutput() []byte {
	return c.dst.data[:c.dst.offset]
}

// Teardown releases whichever of the source/destination buffers are still
// held. It is safe to call more than once.
func (c *Context) Teardown() {
	if c.src.data != nil {
		c.dealloc(c.src.data)
		c.src = buffer{}
	}
	if c.dst.data != nil {
		c.dealloc(c.dst.data)
		c.dst = buffer{}
	}
}

// allocDst allocates a fresh destination buffer of length n using the
// Context's allocator, replacing any existing destination.
func (c *Context) allocDst(n int) {
	c.dst = buffer{data: c.alloc(n)}
}

// swap implements the between-pass buffer discipline (spec.md §4.1): free
// the old source, move the destination into the source slot, clear the
// destination, and reset both cursors to zero.
func (c *Context) swap() {
	if c.src.data != nil {
		c.dealloc(c.src.data)
	}
	c.src = buffer{data: c.dst.data}
	c.dst = buffer{}
}

// cancelled reports whether the caller-supplied cancellation context (if
// any) has been cancelled. It is the sole cancellation point the container
// driver consults, between passes.
func (c *Context) cancelled() error {
	if c.ctx == nil {
		return nil
	}
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return nil
	}
}

// Decompress decodes Context's source buffer according to its Format,
// running the detector first if the Format is FormatAuto. The destination
// buffer is available via TakeOutput when the result is ResultOK.
func (c *Context) Decompress() Result {
	return c.DecompressContext(context.Background())
}

// DecompressContext is Decompress with an explicit cancellation context,
// consulted between container passes.
func (c *Context) DecompressContext(ctx context.Context) Result {
	c.ctx = ctx
	c.err = nil

	tag := c.format.Type
	if tag == FormatAuto {
		tag = c.DetectFormat()
		c.format.Type = tag
	}

	switch tag {
	case FormatStunts:
		return c.decompressStunts()
	case FormatRPck:
		return c.decompressRPck()
	case FormatEAC:
		c.fail(errf("EAC/Barchard format is detected but not decoded by this decoder"))
		return ResultErr
	default:
		c.err = errf("unable to classify source buffer")
		c.errf("%v", c.err)
		return ResultUnknownFormat
	}
}

// fail records err as the cause of a ResultErr return and logs it.
func (c *Context) fail(err error) {
	c.err = err
	c.errf("%v", err)
}
