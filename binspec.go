// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binspec is a declarative framework for describing binary file
// and wire formats and parsing/serializing them from that description,
// in the spirit of reverse-engineering toolkits such as mrcrowbar: one
// Schema built once from field descriptors, Refs, Checks and
// Transforms, usable to both import existing files and build new ones
// from scratch.
//
// The engine is layered:
//
//	ref        cross-field expression language (offsets, counts, Lens)
//	field      L1 field descriptors (Numeric, Bytes, String, Bits, Block, Chunk, Stream)
//	check      import-time verification / export-time fixup rules
//	transform  reversible byte-region codecs (compression, obfuscation)
//	block      L2 Schema/Block: the record built from fields
//
// This package re-exports the pieces most callers need so a schema can
// usually be built against a single import.
package binspec

import (
	"context"

	"github.com/solidcoredata/binspec/block"
	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/check"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// Schema is a compiled, immutable record layout.
type Schema = block.Schema

// SchemaBuilder accumulates fields and checks before Build freezes them.
type SchemaBuilder = block.SchemaBuilder

// Block is one parsed or hand-built instance of a Schema.
type Block = block.Block

// NewSchema starts building a Schema named name, the dotted class path
// used in error messages.
func NewSchema(name string) *SchemaBuilder { return block.NewSchema(name) }

// Parse decodes a root Block from buf against s.
func Parse(s *Schema, buf []byte) (*Block, int64, error) { return s.Parse(buf) }

// Export re-serializes a Block previously returned by Parse, s.New, or
// built by hand.
func Export(s *Schema, b *Block) ([]byte, error) { return s.Export(b) }

// ImportAll parses every buffer in bufs against s concurrently.
func ImportAll(ctx context.Context, s *Schema, bufs [][]byte) ([]*Block, error) {
	return s.ImportAll(ctx, bufs)
}

// Field kind constructors and types, re-exported for convenience.
type (
	NumericField = field.NumericField
	BytesField   = field.BytesField
	StringField  = field.StringField
	BitsField    = field.BitsField
	BitSub       = field.BitSub
	BlockField   = field.BlockField
	ChunkField   = field.ChunkField
	Chunk        = field.Chunk
	StreamField  = field.StreamField
	IntExpr      = field.IntExpr
)

// Numeric field enums.
const (
	W8  = field.W8
	W16 = field.W16
	W24 = field.W24
	W32 = field.W32
	W64 = field.W64

	Unsigned = field.Unsigned
	Signed   = field.Signed
	Float    = field.Float

	LittleEndian = field.LittleEndian
	BigEndian    = field.BigEndian
)

// Lit and FromRef build an IntExpr from a literal or a Ref.
func Lit(n int64) IntExpr       { return field.Lit(n) }
func FromRef(r ref.Ref) IntExpr { return field.FromRef(r) }

// Ref is the cross-field expression type; its constructors are
// re-exported at package level since they are used constantly when
// building a Schema.
type Ref = ref.Ref

func Path(expr string) Ref              { return ref.Path(expr) }
func Parent() Ref                       { return ref.Parent() }
func EndOffset(field string) Ref        { return ref.EndOffset(field) }
func Len(field string) Ref              { return ref.Len(field) }
func Const(v interface{}) Ref           { return ref.Const(v) }
func Arith(a Ref, op ref.Op, b Ref) Ref { return ref.Arith(a, op, b) }

const (
	OpAdd = ref.OpAdd
	OpSub = ref.OpSub
	OpMul = ref.OpMul
	OpDiv = ref.OpDiv
)

// Check and Fixup are re-exported for schema construction.
type (
	Check    = check.Check
	Fixup    = check.Fixup
	Magic    = check.Magic
	Checksum = check.Checksum
	Fill     = check.Fill
)

// SumModulo256 is the common "sum of bytes mod 256" Checksum.Compute
// function.
func SumModulo256(payload []byte) byte { return check.SumModulo256(payload) }

// Error is the structured failure type every layer returns.
type Error = bserr.Error

// Error kind constants, re-exported for errors.Is / type-switch use.
const (
	ShortBuffer            = bserr.ShortBuffer
	ConstraintViolation    = bserr.ConstraintViolation
	DecodeError            = bserr.DecodeError
	EncodeError            = bserr.EncodeError
	CheckFailed            = bserr.CheckFailed
	RefError               = bserr.RefError
	CyclicRef              = bserr.CyclicRef
	TransformNotInvertible = bserr.TransformNotInvertible
	SchemaError            = bserr.SchemaError
)
