// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import "github.com/solidcoredata/binspec/ref"

// IntExpr is an integer-valued field option (offset, length, count)
// that may be a literal or a lazily-evaluated Ref, per spec §4.1's
// "length / count ... may be a Ref".
type IntExpr struct {
	lit int64
	r   *ref.Ref
	set bool
}

// Lit builds a literal IntExpr.
func Lit(n int64) IntExpr { return IntExpr{lit: n, set: true} }

// FromRef builds a Ref-backed IntExpr.
func FromRef(r ref.Ref) IntExpr { return IntExpr{r: &r, set: true} }

// Zero is the unset IntExpr, meaning "no explicit value" (e.g. offsets
// that chain after the previous field).
var Zero IntExpr

// IsZero reports whether the expression was never set.
func (e IntExpr) IsZero() bool { return !e.set }

// Ref reports the backing Ref, if this expression is Ref-valued.
func (e IntExpr) Ref() (ref.Ref, bool) {
	if e.r == nil {
		return ref.Ref{}, false
	}
	return *e.r, true
}

// Resolve evaluates the expression against ctx.
func (e IntExpr) Resolve(ctx Ctx) (int64, error) {
	if e.r != nil {
		return e.r.EvalInt64(ctx)
	}
	return e.lit, nil
}
