// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform implements reversible byte-region codecs bridging a
// "raw" (on-disk) and "decoded" (in-memory) byte layout (spec §4.5):
// compression, obfuscation, and similar wrappers a Bytes field can apply
// to its region before decode / after encode. Block fields take no
// Transform.
package transform

import (
	"bytes"
	"errors"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// ErrNotInvertible is returned by Reverse on a one-way Transform. A
// Block field whose schema uses such a Transform is read-only: export
// fails with bserr.TransformNotInvertible.
var ErrNotInvertible = errors.New("transform: reverse direction not implemented")

// Context carries optional parameters a Transform may need, such as a
// declared output length.
type Context struct {
	OutputLength    int64
	HasOutputLength bool
}

// Transform is a pair of pure functions over a byte region: Forward runs
// on import (raw on-disk bytes -> decoded bytes), Reverse on export
// (decoded bytes -> raw on-disk bytes).
type Transform interface {
	Forward(data []byte, ctx Context) ([]byte, error)
	Reverse(data []byte, ctx Context) ([]byte, error)
}

// Xor is a reversible, symmetric byte-wise XOR against a repeating key,
// the simplest obfuscation layer found across proprietary formats.
type Xor struct {
	Key []byte
}

func (x Xor) apply(data []byte) []byte {
	if len(x.Key) == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ x.Key[i%len(x.Key)]
	}
	return out
}

func (x Xor) Forward(data []byte, ctx Context) ([]byte, error) { return x.apply(data), nil }
func (x Xor) Reverse(data []byte, ctx Context) ([]byte, error) { return x.apply(data), nil }

// Zlib decompresses on import and compresses on export, using
// klauspost/compress's drop-in zlib implementation.
type Zlib struct {
	Level int // 0 = default
}

func (z Zlib) Forward(data []byte, ctx Context) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (z Zlib) Reverse(data []byte, ctx Context) ([]byte, error) {
	var buf bytes.Buffer
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gzip decompresses on import and compresses on export.
type Gzip struct {
	Level int
}

func (g Gzip) Forward(data []byte, ctx Context) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g Gzip) Reverse(data []byte, ctx Context) ([]byte, error) {
	var buf bytes.Buffer
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Snappy decompresses on import and compresses on export using the
// block-oriented (non-streaming) snappy codec.
type Snappy struct{}

func (Snappy) Forward(data []byte, ctx Context) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func (Snappy) Reverse(data []byte, ctx Context) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

// OneWayDigest wraps a hash function as a read-only Transform: Forward
// replaces the region with its digest, Reverse always fails, so a
// schema using it for a field can parse but never export (spec §4.5:
// "If reverse is absent, a Block whose schema uses that Transform is
// read-only").
type OneWayDigest struct {
	Sum func([]byte) []byte
}

func (d OneWayDigest) Forward(data []byte, ctx Context) ([]byte, error) {
	return d.Sum(data), nil
}

func (d OneWayDigest) Reverse(data []byte, ctx Context) ([]byte, error) {
	return nil, ErrNotInvertible
}
