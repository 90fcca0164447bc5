// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"github.com/solidcoredata/binspec/bserr"
)

// StreamField is the L1 descriptor for a variable-length run consumed by
// a nested parser until its own termination condition (spec §4.1 field
// kind 7). It must report a well-defined size, guarded against unbounded
// recursion on self-referential schemas by the shared StreamGuard.
type StreamField struct {
	Schema NestedSchema
}

func (f StreamField) Kind() Kind { return KindStream }

func (f StreamField) Default() interface{} { return []NestedBlock{} }

func (f StreamField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	if offset >= int64(len(buf)) {
		return []NestedBlock{}, 0, nil
	}
	leave, ok := ctx.Guard().Enter(f.Schema, offset)
	if !ok {
		return nil, 0, bserr.New(bserr.SchemaError, "", "", offset, "stream field recursed into itself at the same offset")
	}
	defer leave()

	var items []NestedBlock
	cursor := offset
	for cursor < int64(len(buf)) {
		nb, n, err := f.Schema.ParseNested(buf[cursor:], ctx, ctx.Guard())
		if err != nil {
			return nil, 0, err
		}
		if n <= 0 {
			break
		}
		items = append(items, nb)
		cursor += n
	}
	if items == nil {
		items = []NestedBlock{}
	}
	return items, cursor - offset, nil
}

func (f StreamField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	items, ok := value.([]NestedBlock)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, "expected []NestedBlock")
	}
	var out []byte
	for _, nb := range items {
		if u, ok := nb.(*UnknownBlock); ok {
			out = append(out, u.Raw()...)
			continue
		}
		data, err := f.Schema.ExportNested(nb)
		if err != nil {
			return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
		}
		out = append(out, data...)
	}
	return out, nil
}
