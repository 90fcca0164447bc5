// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ref implements the small cross-field expression language used
// to describe offsets, counts and end-offsets lazily against a Block at
// parse/export time. Refs are immutable ASTs parsed once at schema
// construction; evaluation never caches and never mutates the Ref.
package ref

import (
	"strconv"
	"strings"

	"github.com/solidcoredata/binspec/bserr"
)

// Context is the evaluation environment a Ref runs against. A Block
// implements Context; Refs never see the concrete Block type, only this
// interface, so the ref package has no dependency on block or field.
type Context interface {
	// Attr returns the current value of a sibling field already
	// populated in this parse/export pass.
	Attr(name string) (value interface{}, ok bool)
	// Parent returns the containing Context, or ok=false at a root.
	Parent() (Context, bool)
	// EndOffset returns the resolved offset+size of a named sibling
	// field, once that field has been parsed/encoded in this pass.
	EndOffset(field string) (int64, bool)
	// Len returns len() of a sequence-valued sibling field.
	Len(field string) (int64, bool)
}

type kind int

const (
	kindPath kind = iota + 1
	kindParent
	kindEndOffset
	kindLen
	kindConst
	kindArith
)

// Op is an arithmetic combinator for two Refs.
type Op int

const (
	OpAdd Op = iota + 1
	OpSub
	OpMul
	OpDiv
)

// Ref is an immutable expression tree. The zero Ref is invalid; build one
// with Path, Parent, EndOffset, Len, Const or Arith.
type Ref struct {
	kind  kind
	path  []string
	field string
	value interface{}
	op    Op
	left  *Ref
	right *Ref
}

// Path parses a dotted attribute path such as "a.b.c" or "items._parent.id".
// It is parsed once, at schema construction time.
func Path(expr string) Ref {
	segs := strings.Split(expr, ".")
	return Ref{kind: kindPath, path: segs}
}

// Parent builds a bare "_parent" escape Ref.
func Parent() Ref { return Ref{kind: kindParent} }

// EndOffset builds a Ref returning resolved_offset(field) + resolved_size(field).
func EndOffset(field string) Ref { return Ref{kind: kindEndOffset, field: field} }

// Len builds a Ref returning len() of a sequence-valued sibling field.
func Len(field string) Ref { return Ref{kind: kindLen, field: field} }

// Const builds a literal-valued Ref.
func Const(v interface{}) Ref { return Ref{kind: kindConst, value: v} }

// Arith combines two Refs with an arithmetic operator, evaluated over
// int64 values.
func Arith(a Ref, op Op, b Ref) Ref {
	return Ref{kind: kindArith, left: &a, right: &b, op: op}
}

// SimplePath reports whether this Ref is a bare single-segment identifier
// path (no "_parent", no indexing) and, if so, returns that identifier.
// The block orchestrator uses this to find the sibling field a count Ref
// names so it can re-derive serialized counts from sequence length.
func (r Ref) SimplePath() (string, bool) {
	if r.kind != kindPath || len(r.path) != 1 {
		return "", false
	}
	name := r.path[0]
	if name == "_parent" || name == "" {
		return "", false
	}
	return name, true
}

// Eval interprets the Ref against ctx. Missing attributes produce a
// RefError rather than resolving silently to zero.
func (r Ref) Eval(ctx Context) (interface{}, error) {
	switch r.kind {
	case kindConst:
		return r.value, nil
	case kindParent:
		p, ok := ctx.Parent()
		if !ok {
			return nil, bserr.New(bserr.RefError, "", "_parent", 0, "no parent block in scope")
		}
		return p, nil
	case kindEndOffset:
		v, ok := ctx.EndOffset(r.field)
		if !ok {
			return nil, bserr.New(bserr.RefError, "", r.field, 0, "end offset not resolved for field "+r.field)
		}
		return v, nil
	case kindLen:
		v, ok := ctx.Len(r.field)
		if !ok {
			return nil, bserr.New(bserr.RefError, "", r.field, 0, "length not resolvable for field "+r.field)
		}
		return v, nil
	case kindArith:
		lv, err := r.left.Eval(ctx)
		if err != nil {
			return nil, err
		}
		rv, err := r.right.Eval(ctx)
		if err != nil {
			return nil, err
		}
		li, ok := toInt64(lv)
		if !ok {
			return nil, bserr.New(bserr.RefError, "", "", 0, "left operand is not numeric")
		}
		ri, ok := toInt64(rv)
		if !ok {
			return nil, bserr.New(bserr.RefError, "", "", 0, "right operand is not numeric")
		}
		switch r.op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		case OpDiv:
			if ri == 0 {
				return nil, bserr.New(bserr.RefError, "", "", 0, "division by zero")
			}
			return li / ri, nil
		default:
			return nil, bserr.New(bserr.RefError, "", "", 0, "unknown arithmetic operator")
		}
	case kindPath:
		return evalPath(ctx, r.path)
	default:
		return nil, bserr.New(bserr.RefError, "", "", 0, "invalid ref")
	}
}

// EvalInt64 is a convenience for the common case of evaluating a Ref that
// must resolve to an integer (offsets, counts, lengths).
func (r Ref) EvalInt64(ctx Context) (int64, error) {
	v, err := r.Eval(ctx)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, bserr.New(bserr.RefError, "", "", 0, "ref did not resolve to an integer")
	}
	return n, nil
}

func evalPath(ctx Context, segs []string) (interface{}, error) {
	var cur interface{} = ctx
	for _, seg := range segs {
		switch {
		case seg == "_parent":
			c, ok := cur.(Context)
			if !ok {
				return nil, bserr.New(bserr.RefError, "", seg, 0, "_parent used on a non-block value")
			}
			p, ok := c.Parent()
			if !ok {
				return nil, bserr.New(bserr.RefError, "", seg, 0, "no parent block in scope")
			}
			cur = p
		case isIndexSegment(seg):
			idx, _ := strconv.Atoi(seg)
			v, err := indexInto(cur, idx)
			if err != nil {
				return nil, err
			}
			cur = v
		default:
			c, ok := cur.(Context)
			if !ok {
				return nil, bserr.New(bserr.RefError, "", seg, 0, "cannot resolve attribute on a non-block value")
			}
			v, ok := c.Attr(seg)
			if !ok {
				return nil, bserr.New(bserr.RefError, "", seg, 0, "missing attribute "+seg)
			}
			cur = v
		}
	}
	return cur, nil
}

func isIndexSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func indexInto(v interface{}, idx int) (interface{}, error) {
	switch s := v.(type) {
	case []interface{}:
		if idx < 0 || idx >= len(s) {
			return nil, bserr.New(bserr.RefError, "", "", 0, "index out of range")
		}
		return s[idx], nil
	default:
		return nil, bserr.New(bserr.RefError, "", "", 0, "value is not indexable")
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		return int64(n), true
	default:
		return 0, false
	}
}
