// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/block"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// selfSchema is a field.NestedSchema that forwards to a *block.Schema
// assigned after construction, letting a test build a schema containing
// a StreamField of itself without a chicken-and-egg literal.
type selfSchema struct {
	target **block.Schema
}

func (s selfSchema) ParseNested(buf []byte, parent ref.Context, guard *field.StreamGuard) (field.NestedBlock, int64, error) {
	return (*s.target).ParseNested(buf, parent, guard)
}
func (s selfSchema) ExportNested(nb field.NestedBlock) ([]byte, error) {
	return (*s.target).ExportNested(nb)
}
func (s selfSchema) SizeNested(nb field.NestedBlock) (int64, error) {
	return (*s.target).SizeNested(nb)
}
func (s selfSchema) EmptyNested(parent ref.Context) field.NestedBlock {
	return (*s.target).EmptyNested(parent)
}

// TestStreamGuardStopsSelfRecursion builds a schema whose only field is
// a Stream of itself. Parsing it hits the same (schema, offset) twice
// before any byte is consumed; the shared StreamGuard must refuse the
// second entry instead of recursing forever (spec §5 termination
// guarantee, §9 "Stream-field recursion guard").
func TestStreamGuardStopsSelfRecursion(t *testing.T) {
	var loopy *block.Schema
	s, err := block.NewSchema("loopy").
		Field("body", field.StreamField{Schema: selfSchema{target: &loopy}}).
		Build()
	require.NoError(t, err)
	loopy = s

	_, _, err = loopy.Parse([]byte{1, 2, 3, 4})
	require.Error(t, err)
	var be *bserr.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, bserr.SchemaError, be.Kind)
}

// TestImportAllConcurrent mirrors the engine's production use: many
// independent buffers parsed against one shared, immutable Schema at
// once.
func TestImportAllConcurrent(t *testing.T) {
	s, err := block.NewSchema("small").Field("value", u8()).Build()
	require.NoError(t, err)

	bufs := make([][]byte, 50)
	for i := range bufs {
		bufs[i] = []byte{byte(i)}
	}

	blocks, err := s.ImportAll(context.Background(), bufs)
	require.NoError(t, err)
	require.Len(t, blocks, 50)
	for i, b := range blocks {
		v, _ := b.Get("value")
		assert.Equal(t, int64(i), v)
	}
}

// TestImportAllSurfacesFirstError checks that a malformed buffer among
// many fails the whole ImportAll call.
func TestImportAllSurfacesFirstError(t *testing.T) {
	s, err := block.NewSchema("small").Field("value", u8()).Build()
	require.NoError(t, err)

	bufs := [][]byte{{1}, {}, {3}}
	_, err = s.ImportAll(context.Background(), bufs)
	require.Error(t, err)
}
