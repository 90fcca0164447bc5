// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command binspecdump parses a file against a demo record schema and
// prints the resulting field tree. It is a worked example of wiring a
// binspec.Schema, not a general-purpose format sniffer: real callers
// define their own schema for their own format and call binspec.Parse
// the same way main does here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/solidcoredata/binspec"
	"github.com/solidcoredata/binspec/field"
)

var path = flag.String("f", "", "path to a file matching the demo record schema")

func main() {
	flag.Parse()
	if *path == "" {
		log.Fatal("binspecdump: -f is required")
	}
	buf, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal(err)
	}

	schema, err := demoSchema()
	if err != nil {
		log.Fatal(err)
	}

	b, n, err := binspec.Parse(schema, buf)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("parsed %d of %d bytes\n", n, len(buf))
	dumpBlock(b, 0)
}

// demoSchema builds: a 4-byte magic "BSP1", a count byte, that many
// one-byte items, and a trailing checksum byte. The Checksum check is at
// the fixed offset 8 and covers bytes 4..7 (the count and three items),
// so only a record with a count of 3 passes it.
func demoSchema() (*binspec.Schema, error) {
	item, err := binspec.NewSchema("item").
		Field("value", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Build()
	if err != nil {
		return nil, err
	}
	return binspec.NewSchema("record").
		Field("magic", binspec.BytesField{Length: binspec.Lit(4)}).
		Field("count", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Field("items", binspec.BlockField{Schema: item, Slice: true, Count: binspec.FromRef(binspec.Path("count"))}).
		Field("sum", binspec.NumericField{Width: binspec.W8, Domain: binspec.Unsigned, Endian: binspec.LittleEndian}).
		Check(binspec.Magic{Offset: 0, Pattern: []byte("BSP1")}).
		Check(binspec.Checksum{Offset: 8, PayloadOffset: 4, PayloadLen: 4, Compute: binspec.SumModulo256}).
		Build()
}

func dumpBlock(b *binspec.Block, depth int) {
	indent := fmt.Sprintf("%*s", depth*2, "")
	for _, name := range []string{"magic", "count", "items", "sum"} {
		v, ok := b.Get(name)
		if !ok {
			continue
		}
		if items, ok := v.([]field.NestedBlock); ok {
			fmt.Printf("%s%s: [%d items]\n", indent, name, len(items))
			for i, it := range items {
				if nb, ok := it.(*binspec.Block); ok {
					fmt.Printf("%s  [%d]:\n", indent, i)
					dumpBlock(nb, depth+2)
				} else {
					fmt.Printf("%s  [%d]: <unknown block>\n", indent, i)
				}
			}
			continue
		}
		fmt.Printf("%s%s: %v\n", indent, name, v)
	}
}
