// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/ref"
)

// BlockField is the L1 descriptor for one nested Block, or a sequence of
// them, of a named schema (spec §4.1 field kind 5). A failed nested
// parse never hard-errors: the slot falls back to an UnknownBlock
// holding the raw bytes, so export reproduces them verbatim.
type BlockField struct {
	Schema NestedSchema
	Slice  bool
	Count  IntExpr // only consulted when Slice is true
}

func (f BlockField) Kind() Kind { return KindBlock }

func (f BlockField) Default() interface{} {
	if f.Slice {
		return []NestedBlock{}
	}
	return f.Schema.EmptyNested(nil)
}

// CountRef implements field.CountDependent.
func (f BlockField) CountRef() (ref.Ref, bool) {
	if !f.Slice {
		return ref.Ref{}, false
	}
	return f.Count.Ref()
}

func (f BlockField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	if !f.Slice {
		return f.decodeOne(buf, offset, ctx)
	}
	count, err := f.Count.Resolve(ctx)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NestedBlock, 0, count)
	cursor := offset
	for i := int64(0); i < count; i++ {
		nb, n, err := f.decodeOneRaw(buf, cursor, ctx)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, nb)
		cursor += n
	}
	return items, cursor - offset, nil
}

func (f BlockField) decodeOne(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	nb, n, err := f.decodeOneRaw(buf, offset, ctx)
	if err != nil {
		return nil, 0, err
	}
	return nb, n, nil
}

func (f BlockField) decodeOneRaw(buf []byte, offset int64, ctx Ctx) (NestedBlock, int64, error) {
	if offset > int64(len(buf)) {
		return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, "nested block starts past end of buffer")
	}
	nb, n, err := f.Schema.ParseNested(buf[offset:], ctx, ctx.Guard())
	if err != nil {
		raw := buf[offset:]
		return NewUnknownBlock(raw), int64(len(raw)), nil
	}
	return nb, n, nil
}

func (f BlockField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	if !f.Slice {
		nb, ok := value.(NestedBlock)
		if !ok {
			return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected a nested block, got %T", value))
		}
		return f.encodeOne(nb)
	}
	items, ok := value.([]NestedBlock)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected []NestedBlock, got %T", value))
	}
	var out []byte
	for _, nb := range items {
		data, err := f.encodeOne(nb)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

func (f BlockField) encodeOne(nb NestedBlock) ([]byte, error) {
	if u, ok := nb.(*UnknownBlock); ok {
		return u.Raw(), nil
	}
	data, err := f.Schema.ExportNested(nb)
	if err != nil {
		return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
	}
	return data, nil
}
