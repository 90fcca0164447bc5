// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/binspec/block"
	"github.com/solidcoredata/binspec/check"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
	"github.com/solidcoredata/binspec/transform"
)

func itemSchema(t *testing.T) *block.Schema {
	t.Helper()
	s, err := block.NewSchema("item").Field("value", u8()).Build()
	require.NoError(t, err)
	return s
}

// TestRefDrivenCountRoundTrip mirrors the spec's Ref-driven count
// scenario: a header byte names how many one-byte items follow, and
// export re-derives that header from the in-memory slice length
// instead of trusting whatever was last parsed there.
func TestRefDrivenCountRoundTrip(t *testing.T) {
	item := itemSchema(t)
	record, err := block.NewSchema("record").
		Field("magic", field.BytesField{Length: field.Lit(4)}).
		Field("count", u8()).
		Field("items", field.BlockField{Schema: item, Slice: true, Count: field.FromRef(ref.Path("count"))}).
		Check(check.Magic{Offset: 0, Pattern: []byte("RECD")}).
		Build()
	require.NoError(t, err)

	buf := []byte{'R', 'E', 'C', 'D', 3, 10, 20, 30}
	b, n, err := record.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	count, _ := b.Get("count")
	assert.Equal(t, int64(3), count)

	items, ok := b.Get("items")
	require.True(t, ok)
	slice := items.([]field.NestedBlock)
	require.Len(t, slice, 3)
	v0, _ := slice[0].(*block.Block).Get("value")
	assert.Equal(t, int64(10), v0)

	out, err := record.Export(b)
	require.NoError(t, err)
	assert.Equal(t, buf, out)

	// Drop the last item; export must re-derive count from len(items).
	b.Set("items", slice[:2])
	out2, err := record.Export(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{'R', 'E', 'C', 'D', 2, 10, 20}, out2)
}

// TestUnknownBlockFallback exercises spec §4.2's "never a hard error":
// a nested Block field that fails to parse falls back to an
// UnknownBlock holding the raw bytes, which export reproduces verbatim.
func TestUnknownBlockFallback(t *testing.T) {
	// A nested schema requiring 4 bytes, nested inside a 2-byte region.
	inner, err := block.NewSchema("inner").
		Field("a", field.NumericField{Width: field.W32, Domain: field.Unsigned, Endian: field.LittleEndian}).
		Build()
	require.NoError(t, err)

	outer, err := block.NewSchema("outer").
		Field("body", field.BlockField{Schema: inner}).
		Build()
	require.NoError(t, err)

	buf := []byte{0xAB, 0xCD} // too short for inner's 4-byte field
	b, n, err := outer.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	body, _ := b.Get("body")
	nb := body.(field.NestedBlock)
	assert.True(t, nb.IsUnknown())

	out, err := outer.Export(b)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

// TestChecksumFixupOnExport mirrors spec §8's checksum scenario at the
// Block level: mutating a payload field and re-exporting stamps in the
// recomputed checksum byte via the Check's Fixup.
func TestChecksumFixupOnExport(t *testing.T) {
	s, err := block.NewSchema("framed").
		Field("payload", field.BytesField{Length: field.Lit(4)}).
		Field("sum", u8()).
		Check(check.Checksum{Offset: 4, PayloadOffset: 0, PayloadLen: 4, Compute: check.SumModulo256}).
		Build()
	require.NoError(t, err)

	buf := []byte{1, 2, 3, 4, 10}
	b, _, err := s.Parse(buf)
	require.NoError(t, err)

	payload, _ := b.Get("payload")
	p := payload.([]byte)
	p[3] = 5
	b.Set("payload", p)

	out, err := s.Export(b)
	require.NoError(t, err)
	assert.Equal(t, byte(11), out[4])
}

// TestTransformRoundTrip exercises a Bytes field wrapped in an XOR
// obfuscation Transform: the decoded value is the plain bytes, and
// export re-applies the XOR to rebuild the on-disk region (spec §4.5).
func TestTransformRoundTrip(t *testing.T) {
	xorKey := []byte{0x5A}
	s, err := block.NewSchema("obfuscated").
		Field("body", field.BytesField{Stream: true, Transform: transform.Xor{Key: xorKey}}).
		Build()
	require.NoError(t, err)

	plain := []byte("hello")
	raw := make([]byte, len(plain))
	for i, c := range plain {
		raw[i] = c ^ xorKey[0]
	}

	b, _, err := s.Parse(raw)
	require.NoError(t, err)
	body, _ := b.Get("body")
	assert.Equal(t, plain, body)

	out, err := s.Export(b)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}
