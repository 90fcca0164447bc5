// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/solidcoredata/binspec/bserr"
)

// Width is a declared numeric field width in bits.
type Width int

const (
	W8  Width = 8
	W16 Width = 16
	W24 Width = 24
	W32 Width = 32
	W64 Width = 64
)

func (w Width) bytes() int64 { return int64(w) / 8 }

// Domain distinguishes unsigned, signed and floating-point numeric
// fields. All integer arithmetic is two's complement within the
// declared width; float encoding follows IEEE 754 (spec §4.1 "Numeric
// semantics").
type Domain int

const (
	Unsigned Domain = iota + 1
	Signed
	Float
)

// Endian is the explicit byte order of a numeric field. There is no
// implicit widening or platform-default endianness.
type Endian int

const (
	LittleEndian Endian = iota + 1
	BigEndian
)

func (e Endian) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// NumericField is the L1 descriptor for fixed-width integers and
// floats (spec §4.1 field kind 1). It is pure data: construction-time
// options only, no per-instance state.
type NumericField struct {
	Width   Width
	Domain  Domain
	Endian  Endian
	Min     *int64 // inclusive, Unsigned/Signed only
	Max     *int64 // inclusive, Unsigned/Signed only
	Enum    map[int64]string

	DefaultInt   int64   // used when Domain is Unsigned or Signed
	DefaultFloat float64 // used when Domain is Float
}

func (f NumericField) Kind() Kind { return KindNumeric }
func (f NumericField) Default() interface{} {
	if f.Domain == Float {
		return f.DefaultFloat
	}
	return f.DefaultInt
}

func (f NumericField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	n := f.Width.bytes()
	if offset < 0 || offset+n > int64(len(buf)) {
		return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, fmt.Sprintf("need %d bytes, have %d", n, int64(len(buf))-offset))
	}
	raw := buf[offset : offset+n]
	val, err := decodeNumeric(raw, f.Width, f.Domain, f.Endian)
	if err != nil {
		return nil, 0, bserr.Wrap(bserr.DecodeError, "", "", offset, err)
	}
	if err := f.checkConstraint(val); err != nil {
		return nil, 0, bserr.Wrap(bserr.ConstraintViolation, "", "", offset, err)
	}
	return val, n, nil
}

func (f NumericField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	val, err := toNumericValue(value, f.Domain)
	if err != nil {
		return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
	}
	if err := f.checkConstraint(val); err != nil {
		return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
	}
	buf := make([]byte, f.Width.bytes())
	if err := encodeNumeric(buf, f.Width, f.Domain, f.Endian, val); err != nil {
		return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
	}
	return buf, nil
}

func (f NumericField) checkConstraint(val interface{}) error {
	if f.Domain == Float {
		return nil
	}
	n, ok := toInt64Value(val)
	if !ok {
		return fmt.Errorf("value is not an integer")
	}
	if len(f.Enum) > 0 {
		if _, ok := f.Enum[n]; !ok {
			return fmt.Errorf("value %d is not a member of the declared enum", n)
		}
		return nil
	}
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("value %d below minimum %d", n, *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Errorf("value %d above maximum %d", n, *f.Max)
	}
	return nil
}

// --- L0 encoding primitives: pure byte<->value conversions. ---

func decodeNumeric(raw []byte, w Width, d Domain, e Endian) (interface{}, error) {
	switch d {
	case Float:
		switch w {
		case W32:
			bits := e.order().Uint32(raw)
			return float64(math.Float32frombits(bits)), nil
		case W64:
			bits := e.order().Uint64(raw)
			return math.Float64frombits(bits), nil
		default:
			return nil, fmt.Errorf("float fields must be 32 or 64 bits wide")
		}
	default:
		u, err := decodeUintWidth(raw, w, e)
		if err != nil {
			return nil, err
		}
		if d == Signed {
			return signExtend(u, w), nil
		}
		return int64(u), nil
	}
}

func encodeNumeric(buf []byte, w Width, d Domain, e Endian, val interface{}) error {
	switch d {
	case Float:
		f := val.(float64)
		switch w {
		case W32:
			e.order().PutUint32(buf, math.Float32bits(float32(f)))
		case W64:
			e.order().PutUint64(buf, math.Float64bits(f))
		default:
			return fmt.Errorf("float fields must be 32 or 64 bits wide")
		}
		return nil
	default:
		n := val.(int64)
		if d == Signed && w < W64 {
			bits := uint(w)
			lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
			if n < lo || n > hi {
				return fmt.Errorf("value %d overflows signed %d bits", n, w)
			}
			return encodeUintWidth(buf, w, e, uint64(n)&(uint64(1)<<bits-1))
		}
		return encodeUintWidth(buf, w, e, uint64(n))
	}
}

func decodeUintWidth(raw []byte, w Width, e Endian) (uint64, error) {
	switch w {
	case W8:
		return uint64(raw[0]), nil
	case W16:
		return uint64(e.order().Uint16(raw)), nil
	case W24:
		var b4 [4]byte
		if e == BigEndian {
			copy(b4[1:], raw)
			return uint64(binary.BigEndian.Uint32(b4[:])), nil
		}
		copy(b4[:3], raw)
		return uint64(binary.LittleEndian.Uint32(b4[:])), nil
	case W32:
		return uint64(e.order().Uint32(raw)), nil
	case W64:
		return e.order().Uint64(raw), nil
	default:
		return 0, fmt.Errorf("unsupported numeric width %d", w)
	}
}

func encodeUintWidth(buf []byte, w Width, e Endian, v uint64) error {
	switch w {
	case W8:
		if v > math.MaxUint8 {
			return fmt.Errorf("value %d overflows 8 bits", v)
		}
		buf[0] = byte(v)
	case W16:
		if v > math.MaxUint16 {
			return fmt.Errorf("value %d overflows 16 bits", v)
		}
		e.order().PutUint16(buf, uint16(v))
	case W24:
		if v > 0xFFFFFF {
			return fmt.Errorf("value %d overflows 24 bits", v)
		}
		var b4 [4]byte
		if e == BigEndian {
			binary.BigEndian.PutUint32(b4[:], uint32(v))
			copy(buf, b4[1:])
		} else {
			binary.LittleEndian.PutUint32(b4[:], uint32(v))
			copy(buf, b4[:3])
		}
	case W32:
		if v > math.MaxUint32 {
			return fmt.Errorf("value %d overflows 32 bits", v)
		}
		e.order().PutUint32(buf, uint32(v))
	case W64:
		e.order().PutUint64(buf, v)
	default:
		return fmt.Errorf("unsupported numeric width %d", w)
	}
	return nil
}

func signExtend(u uint64, w Width) int64 {
	bits := uint(w)
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func toInt64Value(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toNumericValue(v interface{}, d Domain) (interface{}, error) {
	if d == Float {
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("expected a float value, got %T", v)
		}
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint:
		return int64(n), nil
	default:
		return nil, fmt.Errorf("expected an integer value, got %T", v)
	}
}
