// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/check"
	"github.com/solidcoredata/binspec/field"
)

// Export re-serializes b against its schema. Ref-driven element counts
// are re-derived from the current length of their sequence field first
// (spec §9: a count Ref describes the serialized form, it does not
// dictate it), gaps left by explicit offsets are reproduced from what
// was read at parse time or zero-filled for a hand-built Block, and
// schema-level Checks run last: a Fixup rewrites its region, a bare
// Check asserts the invariant already holds.
func (s *Schema) Export(b *Block) ([]byte, error) {
	if b.schema != s {
		return nil, bserr.New(bserr.SchemaError, s.name, "", 0, "block was not built from this schema")
	}
	s.syncCounts(b)

	buf := make([]byte, 0, b.length)
	cursor := int64(0)
	for _, fd := range s.fields {
		offset := cursor
		if !fd.Offset.IsZero() {
			o, err := fd.Offset.Resolve(b)
			if err != nil {
				return nil, bserr.Annotate(err, s.name, fd.Name, offset)
			}
			if o < cursor {
				return nil, bserr.New(bserr.SchemaError, s.name, fd.Name, o, "explicit offset moves backward past the previous field")
			}
			if o > cursor {
				gap := b.gaps[fd.Name]
				if int64(len(gap)) == o-cursor {
					buf = append(buf, gap...)
				} else {
					buf = append(buf, make([]byte, o-cursor)...)
				}
			}
			offset = o
		}
		data, err := fd.Desc.Encode(b.values[fd.Name], b)
		if err != nil {
			return nil, bserr.Annotate(err, s.name, fd.Name, offset)
		}
		buf = append(buf, data...)
		b.offsets[fd.Name] = offset
		b.sizes[fd.Name] = int64(len(data))
		cursor = offset + int64(len(data))
	}
	b.length = cursor

	for _, c := range s.checks {
		if fx, ok := c.(check.Fixup); ok {
			if err := fx.Fixup(b, buf); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.Verify(b, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// ExportNested implements field.NestedSchema.
func (s *Schema) ExportNested(nb field.NestedBlock) ([]byte, error) {
	if u, ok := nb.(*field.UnknownBlock); ok {
		return u.Raw(), nil
	}
	b, ok := nb.(*Block)
	if !ok {
		return nil, bserr.New(bserr.SchemaError, s.name, "", 0, fmt.Sprintf("expected *block.Block, got %T", nb))
	}
	return s.Export(b)
}

// syncCounts overwrites each Ref-named count field with len() of the
// sequence field it describes, so export never serializes a stale count
// left over from however the sequence was populated.
func (s *Schema) syncCounts(b *Block) {
	for _, cp := range s.countSync {
		v, ok := b.values[cp.sliceField]
		if !ok {
			continue
		}
		var n int
		switch sl := v.(type) {
		case []field.NestedBlock:
			n = len(sl)
		case []field.Chunk:
			n = len(sl)
		default:
			continue
		}
		b.values[cp.countField] = int64(n)
	}
}
