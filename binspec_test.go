// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binspec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/binspec"
)

// TestEndToEndHeaderAndItems builds a small schema entirely through the
// facade package: a magic-stamped header, a count-prefixed sequence of
// one-byte items, and a trailing checksum over the count+items region,
// then round-trips it.
func TestEndToEndHeaderAndItems(t *testing.T) {
	item, err := binspec.NewSchema("item").
		Field("value", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Build()
	require.NoError(t, err)

	record, err := binspec.NewSchema("record").
		Field("magic", binspec.BytesField{Length: binspec.Lit(4)}).
		Field("count", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Field("items", binspec.BlockField{Schema: item, Slice: true, Count: binspec.FromRef(binspec.Path("count"))}).
		Field("sum", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Check(binspec.Magic{Offset: 0, Pattern: []byte("BSP1")}).
		Check(binspec.Checksum{Offset: 8, PayloadOffset: 4, PayloadLen: 4, Compute: binspec.SumModulo256}).
		Build()
	require.NoError(t, err)

	// magic(4) + count(1)=3 + items(3)=10,20,30 + sum(1)
	payload := []byte{3, 10, 20, 30}
	buf := append([]byte("BSP1"), payload...)
	buf = append(buf, binspec.SumModulo256(payload))

	b, n, err := binspec.Parse(record, buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(buf)), n)

	out, err := binspec.Export(record, b)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}
