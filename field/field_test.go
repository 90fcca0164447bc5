// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// fakeCtx is a minimal field.Ctx for exercising descriptors in
// isolation, without a real Block.
type fakeCtx struct {
	attrs map[string]interface{}
	guard *field.StreamGuard
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{attrs: map[string]interface{}{}, guard: field.NewStreamGuard()}
}

func (c *fakeCtx) Attr(name string) (interface{}, bool)    { v, ok := c.attrs[name]; return v, ok }
func (c *fakeCtx) Parent() (ref.Context, bool)             { return nil, false }
func (c *fakeCtx) EndOffset(name string) (int64, bool)     { return 0, false }
func (c *fakeCtx) Len(name string) (int64, bool)           { return 0, false }
func (c *fakeCtx) Guard() *field.StreamGuard                { return c.guard }

func TestNumericUint16BERoundTrip(t *testing.T) {
	f := field.NumericField{Width: field.W16, Domain: field.Unsigned, Endian: field.BigEndian}
	ctx := newFakeCtx()
	buf := []byte{0x01, 0x02}
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(258), v)

	out, err := f.Encode(v, ctx)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestNumericRangeCheck(t *testing.T) {
	max := int64(250)
	f := field.NumericField{Width: field.W16, Domain: field.Unsigned, Endian: field.BigEndian, Max: &max}
	ctx := newFakeCtx()
	_, _, err := f.Decode([]byte{0x00, 0xFB}, 0, ctx) // 251
	require.Error(t, err)
	var be *bserr.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bserr.ConstraintViolation, be.Kind)
}

func TestNumericSignedNegative(t *testing.T) {
	f := field.NumericField{Width: field.W8, Domain: field.Signed, Endian: field.LittleEndian}
	ctx := newFakeCtx()
	v, _, err := f.Decode([]byte{0xFF}, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)
}

func TestNumericShortBuffer(t *testing.T) {
	f := field.NumericField{Width: field.W32, Domain: field.Unsigned, Endian: field.LittleEndian}
	ctx := newFakeCtx()
	_, _, err := f.Decode([]byte{0x01, 0x02}, 0, ctx)
	require.Error(t, err)
	var be *bserr.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bserr.ShortBuffer, be.Kind)
}

func TestNumericFloat64RoundTrip(t *testing.T) {
	f := field.NumericField{Width: field.W64, Domain: field.Float, Endian: field.LittleEndian}
	ctx := newFakeCtx()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(3.5))
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, 3.5, v)

	out, err := f.Encode(v, ctx)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestNumericFloatDefaultIsFloat(t *testing.T) {
	f := field.NumericField{Width: field.W32, Domain: field.Float, Endian: field.LittleEndian}
	ctx := newFakeCtx()
	// A Float-domain field's Default() must already be a float64 so that
	// constructing an empty Block and exporting it immediately succeeds.
	out, err := f.Encode(f.Default(), ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestBytesFixedRoundTrip(t *testing.T) {
	f := field.BytesField{Length: field.Lit(4)}
	ctx := newFakeCtx()
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00}
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	out, err := f.Encode(v, ctx)
	require.NoError(t, err)
	assert.Equal(t, buf[:4], out)
}

func TestBytesAlignment(t *testing.T) {
	f := field.BytesField{Length: field.Lit(3), Alignment: 4, Fill: 0xAA}
	ctx := newFakeCtx()
	out, err := f.Encode([]byte{1, 2, 3}, ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0xAA}, out)
}

func TestBytesAlignmentRoundTrip(t *testing.T) {
	f := field.BytesField{Length: field.Lit(3), Alignment: 4, Fill: 0xAA}
	ctx := newFakeCtx()
	// The payload is 3 bytes, padded to a 4-byte boundary; a following
	// field's byte must not be swallowed as part of this one's region.
	buf := []byte{1, 2, 3, 0xAA, 0x99}
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n) // consumes the pad byte too
	assert.Equal(t, []byte{1, 2, 3}, v)

	out, err := f.Encode(v, ctx)
	require.NoError(t, err)
	assert.Equal(t, buf[:4], out)
}

func TestBytesStreamConsumesRest(t *testing.T) {
	f := field.BytesField{Stream: true}
	ctx := newFakeCtx()
	buf := []byte{1, 2, 3, 4, 5}
	v, n, err := f.Decode(buf, 2, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []byte{3, 4, 5}, v)
}

func TestStringNulTerminated(t *testing.T) {
	f := field.StringField{Encoding: field.UTF8, Terminator: []byte{0}}
	ctx := newFakeCtx()
	buf := []byte("hello\x00world")
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.Equal(t, int64(6), n)

	out, err := f.Encode("hello", ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\x00"), out)
}

func TestStringMaxLength(t *testing.T) {
	f := field.StringField{Encoding: field.ASCII, Terminator: []byte{0}, MaxLength: 3}
	ctx := newFakeCtx()
	_, _, err := f.Decode([]byte("abcd\x00"), 0, ctx)
	require.Error(t, err)
}

func TestBitsGroupByteSpan(t *testing.T) {
	f := field.BitsField{
		TotalBits: 10,
		Sub: []field.BitSub{
			{Name: "flag", Bits: 1, Domain: field.BitBool},
			{Name: "value", Bits: 9, Domain: field.BitUint},
		},
	}
	ctx := newFakeCtx()
	// flag=1 (bit0), value=5 (bits1-9) -> byte0 = 1 | (5<<1) = 0x0B, byte1 = 5>>7 = 0
	buf := []byte{0x0B, 0x00, 0xFF}
	v, n, err := f.Decode(buf, 0, ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n) // ceil(10/8) == 2
	bv := v.(field.BitsValue)
	want := field.BitsValue{"flag": true, "value": uint64(5)}
	if diff := cmp.Diff(want, bv); diff != "" {
		t.Fatalf("decoded bits value mismatch (-want +got):\n%s", diff)
	}

	out, err := f.Encode(bv, ctx)
	require.NoError(t, err)
	assert.Equal(t, buf[:2], out)
}

func TestBitsOverflowRejected(t *testing.T) {
	f := field.BitsField{Sub: []field.BitSub{{Name: "v", Bits: 2, Domain: field.BitUint}}, TotalBits: 2}
	ctx := newFakeCtx()
	_, err := f.Encode(field.BitsValue{"v": uint64(7)}, ctx)
	require.Error(t, err)
}
