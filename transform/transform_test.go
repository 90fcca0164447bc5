// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/binspec/transform"
)

func TestXorRoundTrip(t *testing.T) {
	x := transform.Xor{Key: []byte{0xFF, 0x0F}}
	raw := []byte{0x01, 0x02, 0x03, 0x04}
	decoded, err := x.Forward(raw, transform.Context{})
	require.NoError(t, err)
	require.NotEqual(t, raw, decoded)

	back, err := x.Reverse(decoded, transform.Context{})
	require.NoError(t, err)
	require.Equal(t, raw, back)
}

func TestZlibRoundTrip(t *testing.T) {
	z := transform.Zlib{}
	plain := []byte("the quick brown fox jumps over the lazy dog")
	raw, err := z.Reverse(plain, transform.Context{})
	require.NoError(t, err)
	require.NotEqual(t, plain, raw)

	back, err := z.Forward(raw, transform.Context{})
	require.NoError(t, err)
	require.Equal(t, plain, back)
}

func TestGzipRoundTrip(t *testing.T) {
	g := transform.Gzip{}
	plain := []byte("the quick brown fox jumps over the lazy dog")
	raw, err := g.Reverse(plain, transform.Context{})
	require.NoError(t, err)

	back, err := g.Forward(raw, transform.Context{})
	require.NoError(t, err)
	require.Equal(t, plain, back)
}

func TestSnappyRoundTrip(t *testing.T) {
	s := transform.Snappy{}
	plain := bytes.Repeat([]byte("abcabcabc"), 8)
	raw, err := s.Reverse(plain, transform.Context{})
	require.NoError(t, err)
	require.Less(t, len(raw), len(plain))

	back, err := s.Forward(raw, transform.Context{})
	require.NoError(t, err)
	require.Equal(t, plain, back)
}

func TestOneWayDigestNotInvertible(t *testing.T) {
	d := transform.OneWayDigest{Sum: func(b []byte) []byte {
		var sum byte
		for _, c := range b {
			sum += c
		}
		return []byte{sum}
	}}
	digest, err := d.Forward([]byte{1, 2, 3}, transform.Context{})
	require.NoError(t, err)
	require.Equal(t, []byte{6}, digest)

	_, err = d.Reverse(digest, transform.Context{})
	require.ErrorIs(t, err, transform.ErrNotInvertible)
}
