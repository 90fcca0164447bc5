// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/ref"
)

// Chunk is one decoded element of a ChunkField: a tag, and either a
// nested payload block or, for a None-payload chunk, no payload at all
// (spec §4.1 field kind 6: "None-payload chunks are permitted").
type Chunk struct {
	Tag     int64
	Payload NestedBlock // nil for a None-payload chunk
	raw     []byte      // payload bytes when Tag has no registered schema
}

func (c Chunk) IsNone() bool { return c.Payload == nil && c.raw == nil }

// ChunkField is the L1 descriptor for a tagged-union sequence: each
// element is prefixed by an identifier and a size, and the engine
// dispatches to a schema keyed by that identifier (spec §4.1 field kind 6).
type ChunkField struct {
	Tag      Descriptor // reads the identifier, e.g. a NumericField
	Size     Descriptor // reads the payload byte length
	Dispatch map[int64]NestedSchema
	Stream   bool    // consume elements until the buffer is exhausted
	Count    IntExpr // consulted only when Stream is false
}

func (f ChunkField) Kind() Kind { return KindChunk }

func (f ChunkField) Default() interface{} { return []Chunk{} }

// CountRef implements field.CountDependent.
func (f ChunkField) CountRef() (ref.Ref, bool) {
	if f.Stream {
		return ref.Ref{}, false
	}
	return f.Count.Ref()
}

func (f ChunkField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	var items []Chunk
	cursor := offset
	var wantCount int64
	if !f.Stream {
		n, err := f.Count.Resolve(ctx)
		if err != nil {
			return nil, 0, err
		}
		wantCount = n
	}
	emit := func() bool {
		if f.Stream {
			return cursor < int64(len(buf))
		}
		return int64(len(items)) < wantCount
	}
	for {
		if !emit() {
			break
		}
		tagVal, n1, err := f.Tag.Decode(buf, cursor, ctx)
		if err != nil {
			return nil, 0, err
		}
		tag, _ := toInt64Value(tagVal)
		sizeVal, n2, err := f.Size.Decode(buf, cursor+n1, ctx)
		if err != nil {
			return nil, 0, err
		}
		size, _ := toInt64Value(sizeVal)
		payloadOff := cursor + n1 + n2
		if size < 0 || payloadOff+size > int64(len(buf)) {
			return nil, 0, bserr.New(bserr.ShortBuffer, "", "", payloadOff, fmt.Sprintf("chunk payload of %d bytes exceeds buffer", size))
		}
		chunk := Chunk{Tag: tag}
		schema, ok := f.Dispatch[tag]
		if ok && schema != nil {
			nb, _, err := schema.ParseNested(buf[payloadOff:payloadOff+size], ctx, ctx.Guard())
			if err != nil {
				nb = NewUnknownBlock(buf[payloadOff : payloadOff+size])
			}
			chunk.Payload = nb
		} else if size > 0 {
			chunk.raw = append([]byte{}, buf[payloadOff:payloadOff+size]...)
		}
		items = append(items, chunk)
		cursor = payloadOff + size
	}
	return items, cursor - offset, nil
}

func (f ChunkField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	items, ok := value.([]Chunk)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected []Chunk, got %T", value))
	}
	var out []byte
	for _, c := range items {
		var payload []byte
		var err error
		switch {
		case c.Payload != nil:
			schema, ok := f.Dispatch[c.Tag]
			if !ok {
				return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("no schema registered for chunk tag %d", c.Tag))
			}
			payload, err = schema.ExportNested(c.Payload)
			if err != nil {
				return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
			}
		case c.raw != nil:
			payload = c.raw
		}
		tagBytes, err2 := f.Tag.Encode(c.Tag, ctx)
		if err2 != nil {
			return nil, err2
		}
		sizeBytes, err3 := f.Size.Encode(int64(len(payload)), ctx)
		if err3 != nil {
			return nil, err3
		}
		out = append(out, tagBytes...)
		out = append(out, sizeBytes...)
		out = append(out, payload...)
	}
	return out, nil
}
