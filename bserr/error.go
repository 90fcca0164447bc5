// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bserr defines the structured error taxonomy shared by every
// layer of binspec: field descriptors, refs, checks, transforms and the
// block orchestrator all annotate failures with the same (kind, block,
// field, offset) shape so a caller can render or inspect them uniformly.
package bserr

import "fmt"

// Kind tags the category of failure. It does not replace the Go error
// interface; it lets callers switch on taxonomy without string matching.
type Kind int

const (
	_ Kind = iota
	ShortBuffer
	ConstraintViolation
	DecodeError
	EncodeError
	CheckFailed
	RefError
	CyclicRef
	TransformNotInvertible
	SchemaError
)

func (k Kind) String() string {
	switch k {
	case ShortBuffer:
		return "ShortBuffer"
	case ConstraintViolation:
		return "ConstraintViolation"
	case DecodeError:
		return "DecodeError"
	case EncodeError:
		return "EncodeError"
	case CheckFailed:
		return "CheckFailed"
	case RefError:
		return "RefError"
	case CyclicRef:
		return "CyclicRef"
	case TransformNotInvertible:
		return "TransformNotInvertible"
	case SchemaError:
		return "SchemaError"
	default:
		return "Unknown"
	}
}

// Error is the structured failure surfaced to callers: a kind tag plus
// the path and byte offset where it occurred, suitable for both human
// rendering and machine inspection.
type Error struct {
	Kind   Kind
	Block  string // name of the innermost Schema the failure passed through
	Field  string
	Offset int64
	Detail string
	Err    error // wrapped cause, if any
}

func New(kind Kind, block, field string, offset int64, detail string) *Error {
	return &Error{Kind: kind, Block: block, Field: field, Offset: offset, Detail: detail}
}

func Wrap(kind Kind, block, field string, offset int64, err error) *Error {
	return &Error{Kind: kind, Block: block, Field: field, Offset: offset, Err: err}
}

func (e *Error) Error() string {
	detail := e.Detail
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.Block == "" && e.Field == "" {
		return fmt.Sprintf("binspec: %s: %s", e.Kind, detail)
	}
	return fmt.Sprintf("binspec: %s: %s.%s@%d: %s", e.Kind, e.Block, e.Field, e.Offset, detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, bserr.AsTarget(bserr.ShortBuffer)) style checks
// work by comparing kind tags wrapped as kindError sentinel errors.
func (e *Error) Is(target error) bool {
	if ke, ok := target.(kindError); ok {
		return e.Kind == Kind(ke)
	}
	return false
}

// kindError lets a bare Kind be used as an errors.Is target:
// errors.Is(err, bserr.AsTarget(bserr.ShortBuffer))
type kindError Kind

func (k kindError) Error() string { return Kind(k).String() }

// AsTarget wraps a Kind as a sentinel error for errors.Is comparisons.
func AsTarget(k Kind) error { return kindError(k) }

// Annotate fills in the Block and Field of an existing *Error where they
// are still empty, and gives an error that no block has claimed yet the
// field's offset when its own Offset is zero; a plain error is wrapped
// as DecodeError. An error that already names a Block keeps that
// innermost location. The orchestrator calls this on every field-level
// error it returns.
func Annotate(err error, block, field string, offset int64) error {
	if err == nil {
		return nil
	}
	if be, ok := err.(*Error); ok {
		if be.Block == "" {
			be.Block = block
			if be.Offset == 0 {
				be.Offset = offset
			}
		}
		if be.Field == "" {
			be.Field = field
		}
		return be
	}
	return Wrap(DecodeError, block, field, offset, err)
}
