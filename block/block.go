// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// Block is one parsed or hand-built instance of a Schema: the concrete
// type behind ref.Context, field.Ctx and field.NestedBlock. Fields are
// addressed by name; offsets and sizes are recorded as they are
// resolved so later fields' Refs (EndOffset, Len) can see them, the
// same lazy, never-cached evaluation order Parse and Export both use.
type Block struct {
	schema  *Schema
	parent  ref.Context
	guard   *field.StreamGuard
	values  map[string]interface{}
	offsets map[string]int64
	sizes   map[string]int64
	gaps    map[string][]byte
	length  int64
}

// Schema returns the Block's owning Schema.
func (b *Block) Schema() *Schema { return b.schema }

// IsUnknown implements field.NestedBlock. A successfully parsed or
// hand-built Block is never the Unknown fallback slot.
func (b *Block) IsUnknown() bool { return false }

// Attr implements ref.Context.
func (b *Block) Attr(name string) (interface{}, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Parent implements ref.Context.
func (b *Block) Parent() (ref.Context, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

// EndOffset implements ref.Context.
func (b *Block) EndOffset(name string) (int64, bool) {
	off, ok := b.offsets[name]
	if !ok {
		return 0, false
	}
	sz, ok := b.sizes[name]
	if !ok {
		return 0, false
	}
	return off + sz, true
}

// Len implements ref.Context over any sequence-valued field.
func (b *Block) Len(name string) (int64, bool) {
	v, ok := b.values[name]
	if !ok {
		return 0, false
	}
	switch s := v.(type) {
	case []field.NestedBlock:
		return int64(len(s)), true
	case []field.Chunk:
		return int64(len(s)), true
	case []byte:
		return int64(len(s)), true
	case string:
		return int64(len(s)), true
	default:
		return 0, false
	}
}

// Guard implements field.Ctx.
func (b *Block) Guard() *field.StreamGuard { return b.guard }

// Get returns the current in-memory value of a named field.
func (b *Block) Get(name string) (interface{}, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Set overwrites a field's in-memory value ahead of Export. It does not
// validate the value against the field's descriptor; Export surfaces
// any mismatch as an EncodeError.
func (b *Block) Set(name string, value interface{}) {
	b.values[name] = value
}

// Size returns the Block's resolved serialized length. It always
// re-encodes the Block through Export, whether parsed or hand-built.
func (b *Block) Size() (int64, error) {
	data, err := b.schema.Export(b)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func newEmptyBlock(s *Schema, parent ref.Context) *Block {
	b := &Block{
		schema:  s,
		parent:  parent,
		guard:   field.NewStreamGuard(),
		values:  make(map[string]interface{}, len(s.fields)),
		offsets: make(map[string]int64, len(s.fields)),
		sizes:   make(map[string]int64, len(s.fields)),
		gaps:    make(map[string][]byte),
	}
	for _, fd := range s.fields {
		b.values[fd.Name] = fd.Desc.Default()
	}
	return b
}
