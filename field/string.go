// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"bytes"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/solidcoredata/binspec/bserr"
)

// TextEncoding names the byte<->rune mapping a StringField uses.
type TextEncoding int

const (
	ASCII TextEncoding = iota + 1
	UTF8
	UTF16LE
	UTF16BE
)

// StringField is the L1 descriptor for a byte run decoded via a named
// text encoding, with either an explicit terminator or a fixed/Ref
// length (spec §4.1 field kind 3).
type StringField struct {
	Encoding   TextEncoding
	Terminator []byte  // e.g. {0} for a NUL-terminated string
	Length     IntExpr // fixed/Ref byte length; mutually exclusive with Terminator
	MaxLength  int     // max length in bytes of the Go (UTF-8) string, 0 = unbounded
	Default_   string
}

func (f StringField) Kind() Kind           { return KindString }
func (f StringField) Default() interface{} { return f.Default_ }

func (f StringField) Decode(buf []byte, offset int64, ctx Ctx) (interface{}, int64, error) {
	if len(f.Terminator) > 0 {
		rest := buf[offset:]
		idx := bytes.Index(rest, f.Terminator)
		if idx < 0 {
			return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, "terminator not found before end of buffer")
		}
		s, err := decodeText(rest[:idx], f.Encoding)
		if err != nil {
			return nil, 0, bserr.Wrap(bserr.DecodeError, "", "", offset, err)
		}
		if f.MaxLength > 0 && len(s) > f.MaxLength {
			return nil, 0, bserr.New(bserr.ConstraintViolation, "", "", offset, fmt.Sprintf("string of %d bytes exceeds max length %d", len(s), f.MaxLength))
		}
		return s, int64(idx + len(f.Terminator)), nil
	}
	n, err := f.Length.Resolve(ctx)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 || offset+n > int64(len(buf)) {
		return nil, 0, bserr.New(bserr.ShortBuffer, "", "", offset, fmt.Sprintf("need %d bytes, have %d", n, int64(len(buf))-offset))
	}
	s, err := decodeText(buf[offset:offset+n], f.Encoding)
	if err != nil {
		return nil, 0, bserr.Wrap(bserr.DecodeError, "", "", offset, err)
	}
	if f.MaxLength > 0 && len(s) > f.MaxLength {
		return nil, 0, bserr.New(bserr.ConstraintViolation, "", "", offset, fmt.Sprintf("string of %d bytes exceeds max length %d", len(s), f.MaxLength))
	}
	return s, n, nil
}

func (f StringField) Encode(value interface{}, ctx Ctx) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("expected string, got %T", value))
	}
	if f.MaxLength > 0 && len(s) > f.MaxLength {
		return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("string of %d bytes exceeds max length %d", len(s), f.MaxLength))
	}
	data, err := encodeText(s, f.Encoding)
	if err != nil {
		return nil, bserr.Wrap(bserr.EncodeError, "", "", 0, err)
	}
	if len(f.Terminator) > 0 {
		return append(data, f.Terminator...), nil
	}
	if !f.Length.IsZero() {
		if _, isRef := f.Length.Ref(); !isRef {
			want, _ := f.Length.Resolve(ctx)
			if int64(len(data)) > want {
				return nil, bserr.New(bserr.EncodeError, "", "", 0, fmt.Sprintf("encoded string is %d bytes, field declares a fixed length of %d", len(data), want))
			}
			if int64(len(data)) < want {
				padded := make([]byte, want)
				copy(padded, data)
				return padded, nil
			}
		}
	}
	return data, nil
}

func decodeText(raw []byte, enc TextEncoding) (string, error) {
	switch enc {
	case ASCII:
		for _, b := range raw {
			if b > 0x7F {
				return "", fmt.Errorf("byte 0x%02x is not valid ASCII", b)
			}
		}
		return string(raw), nil
	case UTF8:
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid utf8 string")
		}
		return string(raw), nil
	case UTF16LE, UTF16BE:
		if len(raw)%2 != 0 {
			return "", fmt.Errorf("utf16 string has an odd byte length")
		}
		units := make([]uint16, len(raw)/2)
		for i := range units {
			if enc == UTF16LE {
				units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
			} else {
				units[i] = uint16(raw[2*i+1]) | uint16(raw[2*i])<<8
			}
		}
		return string(utf16.Decode(units)), nil
	default:
		return "", fmt.Errorf("unknown text encoding %d", enc)
	}
}

func encodeText(s string, enc TextEncoding) ([]byte, error) {
	switch enc {
	case ASCII:
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0x7F {
				return nil, fmt.Errorf("rune %q is not valid ASCII", r)
			}
			out = append(out, byte(r))
		}
		return out, nil
	case UTF8:
		return []byte(s), nil
	case UTF16LE, UTF16BE:
		units := utf16.Encode([]rune(s))
		out := make([]byte, len(units)*2)
		for i, u := range units {
			if enc == UTF16LE {
				out[2*i] = byte(u)
				out[2*i+1] = byte(u >> 8)
			} else {
				out[2*i] = byte(u >> 8)
				out[2*i+1] = byte(u)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown text encoding %d", enc)
	}
}
