// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import "sync"

type guardKey struct {
	schema NestedSchema
	offset int64
}

// StreamGuard bounds StreamField recursion: it refuses to re-enter a
// (schema, offset) pair already being parsed in the current
// top-level parse, per spec §5's termination guarantee and §9's
// "Stream-field recursion guard" design note. One guard is shared by an
// entire Schema.Parse call tree; nested Block fields propagate the same
// guard down to their children.
type StreamGuard struct {
	mu     sync.Mutex
	active map[guardKey]bool
}

func NewStreamGuard() *StreamGuard {
	return &StreamGuard{active: make(map[guardKey]bool)}
}

// Enter marks (schema, offset) as in-progress. The returned leave func
// must be called when done; ok is false if that pair is already active,
// meaning the schema is recursing into itself at the same position.
func (g *StreamGuard) Enter(schema NestedSchema, offset int64) (leave func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := guardKey{schema: schema, offset: offset}
	if g.active[key] {
		return func() {}, false
	}
	g.active[key] = true
	return func() {
		g.mu.Lock()
		delete(g.active, key)
		g.mu.Unlock()
	}, true
}
