// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block implements L2 of the engine: Schema, the ordered field
// list a record is built from, and Block, the parsed or hand-built
// instance of one. Schema is the concrete type behind field.NestedSchema,
// and Block the concrete type behind field.NestedBlock and ref.Context,
// closing the cycle the field and ref packages only see as interfaces.
package block

import (
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/check"
	"github.com/solidcoredata/binspec/field"
	"github.com/solidcoredata/binspec/ref"
)

// FieldDef is one entry of a Schema: a name, its descriptor, and an
// optional explicit offset. A zero Offset means the field starts right
// after the previous one ends (spec §3.2 chaining); an explicit Offset
// may jump forward, leaving a gap that import preserves byte-for-byte
// and export reproduces, or zero-fills for a freshly built Block.
type FieldDef struct {
	Name   string
	Desc   field.Descriptor
	Offset field.IntExpr
}

// countPair records that field sliceField's element count is described
// by a simple-path Ref naming field countField. Export re-derives
// countField's value from len() of sliceField's current sequence rather
// than trusting whatever was last decoded there (spec §9).
type countPair struct {
	sliceField string
	countField string
}

// Schema is a compiled, immutable record layout: the concrete type
// satisfying field.NestedSchema, so Block fields and Chunk dispatch
// tables can recurse into it without field importing block.
type Schema struct {
	name      string
	fields    []FieldDef
	checks    []check.Check
	countSync []countPair
}

// Name is the dotted class path used in bserr.Error.Block.
func (s *Schema) Name() string { return s.name }

// SchemaBuilder accumulates fields and checks before Build validates and
// freezes them into a Schema.
type SchemaBuilder struct {
	name   string
	fields []FieldDef
	checks []check.Check
	err    error
}

// NewSchema starts building a schema named name, used as the dotted
// class path in error messages (spec: "Block, a dotted class path").
func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{name: name}
}

// Field appends a chained field: it starts where the previous field's
// region ended.
func (b *SchemaBuilder) Field(name string, desc field.Descriptor) *SchemaBuilder {
	return b.FieldAt(name, desc, field.Zero)
}

// FieldAt appends a field with an explicit start offset, which may be a
// Ref (commonly an EndOffset or arithmetic expression over a prior
// field).
func (b *SchemaBuilder) FieldAt(name string, desc field.Descriptor, offset field.IntExpr) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	for _, fd := range b.fields {
		if fd.Name == name {
			b.err = fmt.Errorf("binspec: schema %q: duplicate field name %q", b.name, name)
			return b
		}
	}
	b.fields = append(b.fields, FieldDef{Name: name, Desc: desc, Offset: offset})
	return b
}

// Check attaches a schema-level verify/fixup rule (Magic, Checksum,
// Fill) whose region may span multiple fields.
func (b *SchemaBuilder) Check(c check.Check) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	b.checks = append(b.checks, c)
	return b
}

// Build validates the accumulated fields and checks, resolves which
// fields have a Ref-driven element count naming a sibling field
// (spec §9), detects Offset/Count Refs that cycle back on themselves,
// and freezes the result.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := &Schema{name: b.name, fields: b.fields, checks: b.checks}

	index := make(map[string]int, len(s.fields))
	for i, fd := range s.fields {
		index[fd.Name] = i
	}

	for _, fd := range s.fields {
		cd, ok := fd.Desc.(field.CountDependent)
		if !ok {
			continue
		}
		r, ok := cd.CountRef()
		if !ok {
			continue
		}
		name, ok := r.SimplePath()
		if !ok {
			continue
		}
		if _, ok := index[name]; !ok {
			continue
		}
		s.countSync = append(s.countSync, countPair{sliceField: fd.Name, countField: name})
	}

	if err := detectCycles(s.fields, index); err != nil {
		return nil, err
	}

	return s, nil
}

// dependsOn returns the field names fd's Offset (and, for a
// CountDependent descriptor, its Count) Ref names directly.
func dependsOn(fd FieldDef) []string {
	var deps []string
	if r, ok := fd.Offset.Ref(); ok {
		if name, ok := r.SimplePath(); ok {
			deps = append(deps, name)
		}
	}
	if cd, ok := fd.Desc.(field.CountDependent); ok {
		if r, ok := cd.CountRef(); ok {
			if name, ok := r.SimplePath(); ok {
				deps = append(deps, name)
			}
		}
	}
	return deps
}

// detectCycles walks the dependency graph induced by Offset/Count Refs
// and reports a bserr.CyclicRef if any field transitively depends on
// itself (spec §5: Refs must form a DAG against already-resolved
// siblings).
func detectCycles(fields []FieldDef, index map[string]int) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make([]int, len(fields))

	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		switch state[i] {
		case gray:
			return bserr.New(bserr.CyclicRef, "", fields[i].Name, 0, fmt.Sprintf("cyclic ref through %v", append(path, fields[i].Name)))
		case black:
			return nil
		}
		state[i] = gray
		for _, dep := range dependsOn(fields[i]) {
			j, ok := index[dep]
			if !ok {
				continue
			}
			if err := visit(j, append(path, fields[i].Name)); err != nil {
				return err
			}
		}
		state[i] = black
		return nil
	}

	for i := range fields {
		if state[i] == white {
			if err := visit(i, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ ref.Context = (*Block)(nil)
