// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ImportAll parses every buffer in bufs against s concurrently,
// returning one Block per buffer in the same order. It returns the first
// error if any buffer fails to parse; parses that have not started by
// then are skipped, while those already running finish.
//
// A single Schema value is safe to share across these goroutines: it is
// immutable once Build returns, and each parse gets its own Block and
// StreamGuard.
func (s *Schema) ImportAll(ctx context.Context, bufs [][]byte) ([]*Block, error) {
	group, gctx := errgroup.WithContext(ctx)
	out := make([]*Block, len(bufs))
	for i, buf := range bufs {
		i, buf := i, buf
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, _, err := s.Parse(buf)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
