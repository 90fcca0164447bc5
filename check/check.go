// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check implements the import-time validation / export-time
// rewrite rules attached to a Block schema (spec §4.4): magic numbers,
// checksums and fill patterns.
package check

import (
	"bytes"
	"fmt"

	"github.com/solidcoredata/binspec/bserr"
	"github.com/solidcoredata/binspec/ref"
)

// Context is the Block a Check runs against.
type Context = ref.Context

// Check verifies a predicate over the covered region at import time.
type Check interface {
	Verify(ctx Context, buf []byte) error
}

// Fixup is implemented by Checks that can rewrite their region at export
// time (a recomputed checksum, a stamped-in magic number). A Check that
// does not implement Fixup asserts, at export, that its invariant
// already holds (spec §4.4: "absence of fixup implies the export
// asserts the invariant holds").
type Fixup interface {
	Check
	Fixup(ctx Context, buf []byte) error
}

// Magic asserts that buf[Offset:Offset+len(Pattern)] equals Pattern on
// import, and stamps Pattern into that region on export.
type Magic struct {
	Offset  int64
	Pattern []byte
}

func (m Magic) region(buf []byte) ([]byte, error) {
	end := m.Offset + int64(len(m.Pattern))
	if m.Offset < 0 || end > int64(len(buf)) {
		return nil, bserr.New(bserr.CheckFailed, "", "", m.Offset, "magic number region exceeds buffer")
	}
	return buf[m.Offset:end], nil
}

func (m Magic) Verify(ctx Context, buf []byte) error {
	region, err := m.region(buf)
	if err != nil {
		return err
	}
	if !bytes.Equal(region, m.Pattern) {
		return bserr.New(bserr.CheckFailed, "", "", m.Offset, fmt.Sprintf("expected magic %x, got %x", m.Pattern, region))
	}
	return nil
}

func (m Magic) Fixup(ctx Context, buf []byte) error {
	region, err := m.region(buf)
	if err != nil {
		return err
	}
	copy(region, m.Pattern)
	return nil
}

// Checksum recomputes Compute over buf[PayloadOffset:PayloadOffset+PayloadLen]
// and compares it against the single byte at Offset on import, stamping
// the recomputed value in on export (spec §8 scenario 4).
type Checksum struct {
	Offset        int64
	PayloadOffset int64
	PayloadLen    int64
	Compute       func(payload []byte) byte
}

func (c Checksum) payload(buf []byte) ([]byte, error) {
	end := c.PayloadOffset + c.PayloadLen
	if c.PayloadOffset < 0 || end > int64(len(buf)) {
		return nil, bserr.New(bserr.CheckFailed, "", "", c.PayloadOffset, "checksum payload region exceeds buffer")
	}
	return buf[c.PayloadOffset:end], nil
}

func (c Checksum) Verify(ctx Context, buf []byte) error {
	payload, err := c.payload(buf)
	if err != nil {
		return err
	}
	if c.Offset < 0 || c.Offset >= int64(len(buf)) {
		return bserr.New(bserr.CheckFailed, "", "", c.Offset, "checksum byte offset exceeds buffer")
	}
	want := c.Compute(payload)
	got := buf[c.Offset]
	if got != want {
		return bserr.New(bserr.CheckFailed, "", "", c.Offset, fmt.Sprintf("checksum mismatch: have 0x%02x, want 0x%02x", got, want))
	}
	return nil
}

func (c Checksum) Fixup(ctx Context, buf []byte) error {
	payload, err := c.payload(buf)
	if err != nil {
		return err
	}
	buf[c.Offset] = c.Compute(payload)
	return nil
}

// SumModulo256 is the common "sum of bytes mod 256" checksum function.
func SumModulo256(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum
}

// Fill asserts a region holds a repeated fill byte (reserved/padding
// bytes), and restores that pattern on export.
type Fill struct {
	Offset  int64
	Length  int64
	Pattern byte
}

func (f Fill) region(buf []byte) ([]byte, error) {
	end := f.Offset + f.Length
	if f.Offset < 0 || end > int64(len(buf)) {
		return nil, bserr.New(bserr.CheckFailed, "", "", f.Offset, "fill region exceeds buffer")
	}
	return buf[f.Offset:end], nil
}

func (f Fill) Verify(ctx Context, buf []byte) error {
	region, err := f.region(buf)
	if err != nil {
		return err
	}
	for i, b := range region {
		if b != f.Pattern {
			return bserr.New(bserr.CheckFailed, "", "", f.Offset+int64(i), fmt.Sprintf("expected fill byte 0x%02x, got 0x%02x", f.Pattern, b))
		}
	}
	return nil
}

func (f Fill) Fixup(ctx Context, buf []byte) error {
	region, err := f.region(buf)
	if err != nil {
		return err
	}
	for i := range region {
		region[i] = f.Pattern
	}
	return nil
}
