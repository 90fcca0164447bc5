// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package field implements the typed, immutable field descriptors that
// carry the parse/serialize/size contract for one contiguous byte
// region (spec §4.1). A descriptor is shared by every Block instance of
// its declaring class and holds no per-instance state; the Ctx passed
// into every call is where all per-instance state lives.
package field

import "github.com/solidcoredata/binspec/ref"

// Kind tags which of the enumerated field kinds a Descriptor implements.
type Kind int

const (
	_ Kind = iota
	KindNumeric
	KindBytes
	KindString
	KindBits
	KindBlock
	KindChunk
	KindStream
)

// Ctx is the context a Descriptor is evaluated against: the owning
// Block, via the ref.Context interface it implements, plus the shared
// stream-recursion guard for the current top-level parse.
type Ctx interface {
	ref.Context
	Guard() *StreamGuard
}

// Descriptor is the public per-field contract (spec §4.1). Width/shape
// are fixed at construction; every method takes the Block context so a
// descriptor can resolve its own Ref-valued options (length, count,
// offset) lazily without caching anything on itself.
type Descriptor interface {
	Kind() Kind
	// Default returns the value used to populate a freshly constructed
	// Block (empty state).
	Default() interface{}
	// Decode reads the field's region starting at offset and returns
	// the decoded value plus the number of bytes consumed.
	Decode(buf []byte, offset int64, ctx Ctx) (value interface{}, consumed int64, err error)
	// Encode serializes value into bytes for this field's region. The
	// returned slice's length is the field's resolved size.
	Encode(value interface{}, ctx Ctx) ([]byte, error)
}

// CountDependent is implemented by field kinds whose serialized element
// count is driven by a Ref (BlockField, ChunkField). The block
// orchestrator uses it to find the sibling field a count names, so it
// can re-derive the serialized count from the in-memory sequence length
// on export (spec §9 Open Question, resolved: Refs describe, not
// dictate, the serialized count).
type CountDependent interface {
	CountRef() (ref.Ref, bool)
}
