// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/internal/bitio"
)

// BitDomain is the value domain of one Bits sub-field.
type BitDomain int

const (
	BitUint BitDomain = iota + 1
	BitBool
	BitEnum
)

// BitSub describes one named sub-field within a Bits group.
type BitSub struct {
	Name string
	Bits int // 1..64
	Domain BitDomain
	Enum   map[uint64]string
}

// BitsValue is the decoded value of a Bits group: sub-field name to
// value (uint64, bool, or the enum's underlying uint64).
type BitsValue map[string]interface{}

// BitsField is the L1 descriptor for a group of sub-fields packed into
// one or more bytes (spec §4.1 field kind 4). TotalBits fixes the byte
// span at ceil(TotalBits/8); Sub describes the packing order.
type BitsField struct {
	TotalBits int
	Sub       []BitSub
}

func (f BitsField) Kind() Kind { return KindBits }

func (f BitsField) Default() interface{} {
	v := make(BitsValue, len(f.Sub))
	for _, s := range f.Sub {
		switch s.Domain {
		case BitBool:
			v[s.Name] = false
		default:
			v[s.Name] = uint64(0)
		}
	}
	return v
}

func (f BitsField) byteSpan() int64 { return int64((f.TotalBits + 7) / 8) }

func (f BitsField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	n := f.byteSpan()
	if offset < 0 || offset+n > int64(len(buf)) {
		return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, fmt.Sprintf("need %d bytes, have %d", n, int64(len(buf))-offset))
	}
	r := bitio.NewReader(buf[offset : offset+n])
	out := make(BitsValue, len(f.Sub))
	for _, s := range f.Sub {
		raw, err := r.Read(s.Bits)
		if err != nil {
			return nil, 0, bserr.Wrap(bserr.DecodeError, "", s.Name, offset, err)
		}
		switch s.Domain {
		case BitBool:
			out[s.Name] = raw != 0
		case BitEnum:
			name, ok := s.Enum[raw]
			if !ok {
				return nil, 0, bserr.New(bserr.ConstraintViolation, "", s.Name, offset, fmt.Sprintf("value %d is not a member of the declared enum", raw))
			}
			_ = name
			out[s.Name] = raw
		default:
			out[s.Name] = raw
		}
	}
	return out, n, nil
}

func (f BitsField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	v, ok := value.(BitsValue)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected BitsValue, got %T", value))
	}
	w := bitio.NewWriter(f.TotalBits)
	for _, s := range f.Sub {
		raw, err := bitSubRaw(v[s.Name], s)
		if err != nil {
			return nil, bserr.Wrap(bserr.EncodeError, "", s.Name, 0, err)
		}
		if s.Bits < 64 && raw >= (uint64(1)<<uint(s.Bits)) {
			return nil, bserr.New(bserr.EncodeError, "", s.Name, 0, fmt.Sprintf("value %d overflows %d-bit field", raw, s.Bits))
		}
		if err := w.Write(raw, s.Bits); err != nil {
			return nil, bserr.Wrap(bserr.EncodeError, "", s.Name, 0, err)
		}
	}
	return w.Bytes(), nil
}

func bitSubRaw(v interface{}, s BitSub) (uint64, error) {
	switch s.Domain {
	case BitBool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("sub-field %q expects a bool", s.Name)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case BitEnum:
		n, ok := v.(uint64)
		if !ok {
			return 0, fmt.Errorf("sub-field %q expects its enum's underlying uint64", s.Name)
		}
		if _, ok := s.Enum[n]; !ok {
			return 0, fmt.Errorf("value %d is not a member of the declared enum", n)
		}
		return n, nil
	default:
		switch n := v.(type) {
		case uint64:
			return n, nil
		case int64:
			return uint64(n), nil
		case int:
			return uint64(n), nil
		default:
			return 0, fmt.Errorf("sub-field %q expects an unsigned integer", s.Name)
		}
	}
}
