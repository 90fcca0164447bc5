// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// Parse decodes a root Block from buf against s, with a fresh
// stream-recursion guard for the whole call tree.
func (s *Schema) Parse(buf []byte) (*Block, int64, error) {
	return s.parseWith(buf, nil, field.NewStreamGuard())
}

// ParseNested implements field.NestedSchema, recursing into buf as a
// child of parent and sharing the caller's guard.
func (s *Schema) ParseNested(buf []byte, parent ref.Context, guard *field.StreamGuard) (field.NestedBlock, int64, error) {
	return s.parseWith(buf, parent, guard)
}

func (s *Schema) parseWith(buf []byte, parent ref.Context, guard *field.StreamGuard) (*Block, int64, error) {
	b := &Block{
		schema:  s,
		parent:  parent,
		guard:   guard,
		values:  make(map[string]interface{}, len(s.fields)),
		offsets: make(map[string]int64, len(s.fields)),
		sizes:   make(map[string]int64, len(s.fields)),
		gaps:    make(map[string][]byte),
	}

	cursor := int64(0)
	for _, fd := range s.fields {
		offset := cursor
		if !fd.Offset.IsZero() {
			o, err := fd.Offset.Resolve(b)
			if err != nil {
				return nil, 0, bserr.Annotate(err, s.name, fd.Name, offset)
			}
			if o < cursor {
				return nil, 0, bserr.New(bserr.SchemaError, s.name, fd.Name, o, "explicit offset moves backward past the previous field")
			}
			if o > cursor {
				if o > int64(len(buf)) {
					return nil, 0, bserr.New(bserr.ShortBuffer, s.name, fd.Name, o, "gap before field exceeds buffer")
				}
				b.gaps[fd.Name] = append([]byte{}, buf[cursor:o]...)
			}
			offset = o
		}
		if offset > int64(len(buf)) {
			return nil, 0, bserr.New(bserr.ShortBuffer, s.name, fd.Name, offset, "field starts past end of buffer")
		}
		val, n, err := fd.Desc.Decode(buf, offset, b)
		if err != nil {
			return nil, 0, bserr.Annotate(err, s.name, fd.Name, offset)
		}
		b.values[fd.Name] = val
		b.offsets[fd.Name] = offset
		b.sizes[fd.Name] = n
		cursor = offset + n
	}
	b.length = cursor

	var result error
	for _, c := range s.checks {
		if err := c.Verify(b, buf[:cursor]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		return nil, 0, result
	}
	return b, cursor, nil
}

// EmptyNested implements field.NestedSchema: a Block populated with
// every field's Default(), owned by parent.
func (s *Schema) EmptyNested(parent ref.Context) field.NestedBlock {
	return newEmptyBlock(s, parent)
}

// New default-constructs a root Block for hand-assembly ahead of
// Export.
func (s *Schema) New() *Block {
	return newEmptyBlock(s, nil)
}

// SizeNested implements field.NestedSchema.
func (s *Schema) SizeNested(nb field.NestedBlock) (int64, error) {
	if u, ok := nb.(*field.UnknownBlock); ok {
		return int64(len(u.Raw())), nil
	}
	b, ok := nb.(*Block)
	if !ok {
		return 0, bserr.New(bserr.SchemaError, s.name, "", 0, fmt.Sprintf("expected *block.Block, got %T", nb))
	}
	return b.Size()
}
