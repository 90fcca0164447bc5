// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"errors"
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/transform"
)

// BytesField is the L1 descriptor for a raw byte run: fixed length,
// Ref-derived length, or a terminal "stream" field that consumes to the
// end of the buffer (spec §4.1 field kind 2).
type BytesField struct {
	Length    IntExpr // zero value chains / is ignored when Stream is set
	Stream    bool
	Transform transform.Transform
	Alignment int64 // serialized length is padded up to this multiple
	Fill      byte
	Default_  []byte
}

func (f BytesField) Kind() Kind { return KindBytes }
func (f BytesField) Default() interface{} {
	cp := make([]byte, len(f.Default_))
	copy(cp, f.Default_)
	return cp
}

func (f BytesField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	var region []byte
	var consumed int64
	if f.Stream {
		if offset > int64(len(buf)) {
			return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, "stream field starts past end of buffer")
		}
		region = buf[offset:]
		consumed = int64(len(region))
	} else {
		n, err := f.Length.Resolve(ctx)
		if err != nil {
			return nil, 0, err
		}
		if n < 0 {
			return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, fmt.Sprintf("need %d bytes, have %d", n, int64(len(buf))-offset))
		}
		aligned := n
		if f.Alignment > 1 {
			if rem := n % f.Alignment; rem != 0 {
				aligned = n + (f.Alignment - rem)
			}
		}
		if offset+aligned > int64(len(buf)) {
			return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, fmt.Sprintf("need %d bytes (aligned from %d), have %d", aligned, n, int64(len(buf))-offset))
		}
		region = buf[offset : offset+n]
		consumed = aligned
	}
	out := make([]byte, len(region))
	copy(out, region)
	if f.Transform != nil {
		decoded, err := f.Transform.Forward(out, transform.Context{})
		if err != nil {
			return nil, 0, bserr.Wrap(bserr.DecodeError, "", "", offset, err)
		}
		out = decoded
	}
	return out, consumed, nil
}

func (f BytesField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	raw, ok := value.([]byte)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected []byte, got %T", value))
	}
	out := raw
	if f.Transform != nil {
		encoded, err := f.Transform.Reverse(raw, transform.Context{})
		if err != nil {
			if errors.Is(err, transform.ErrNotInvertible) {
				return nil, bserr.Wrap(bserr.TransformNotInvertible, "", "", 0, err)
			}
			return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
		}
		out = encoded
	}
	// The fixed-length check applies to the encoded content itself, before
	// any alignment padding is appended on top of it.
	if !f.Stream && !f.Length.IsZero() {
		if _, isRef := f.Length.Ref(); !isRef {
			want, _ := f.Length.Resolve(ctx)
			if int64(len(out)) != want {
				return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("value is %d bytes, field declares a fixed length of %d", len(out), want))
			}
		}
	}
	if f.Alignment > 1 {
		rem := int64(len(out)) % f.Alignment
		if rem != 0 {
			pad := f.Alignment - rem
			padded := make([]byte, int64(len(out))+pad)
			copy(padded, out)
			for i := len(out); i < len(padded); i++ {
				padded[i] = f.Fill
			}
			out = padded
		}
	}
	cp := make([]byte, len(out))
	copy(cp, out)
	return cp, nil
}
