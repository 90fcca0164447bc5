// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import "github.com/solidcoredata/binspec/ref"

// NestedSchema is implemented by block.Schema. The field package never
// imports block (block imports field, not the reverse); it only knows
// this interface, which is how BlockField, ChunkField and StreamField
// recurse into a nested record without a dependency cycle.
type NestedSchema interface {
	// ParseNested decodes a nested Block from the front of buf, owned
	// by parent (nil at a standalone root) and guarded against
	// unbounded stream recursion.
	ParseNested(buf []byte, parent ref.Context, guard *StreamGuard) (NestedBlock, int64, error)
	// ExportNested re-serializes a previously parsed or freshly
	// constructed nested block.
	ExportNested(nb NestedBlock) ([]byte, error)
	// SizeNested returns the current serialized size of nb.
	SizeNested(nb NestedBlock) (int64, error)
	// EmptyNested default-constructs a nested block owned by parent.
	EmptyNested(parent ref.Context) NestedBlock
}

// NestedBlock is the tagged-variant slot a BlockField stores: either a
// successfully parsed block (block.Block, which also implements this
// interface) or an UnknownBlock fallback.
type NestedBlock interface {
	IsUnknown() bool
}

// UnknownBlock is the fallback slot used when a nested Block field fails
// to parse: the raw bytes are preserved so export reproduces them
// verbatim (spec §4.2 Failure semantics, §9 "Fallback polymorphism").
type UnknownBlock struct {
	raw []byte
}

func NewUnknownBlock(raw []byte) *UnknownBlock {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &UnknownBlock{raw: cp}
}

func (u *UnknownBlock) IsUnknown() bool { return true }
func (u *UnknownBlock) Raw() []byte     { return u.raw }
