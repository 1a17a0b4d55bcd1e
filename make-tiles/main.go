// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// This binary splits a list of scored, positioned entries into a static
// multi-resolution tileset.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/googlegenomics/hitiles/input"
	"github.com/googlegenomics/hitiles/sink"
	"github.com/googlegenomics/hitiles/tiles"
	"github.com/pkg/profile"
)

const tokenEnv = "HITILES_GCS_TOKEN"

var (
	importance = flag.String("importance", "importance", "field that ranks entries within a tile")
	position   = flag.String("position", "position", "comma-separated position fields, one per axis")
	sortBy     = flag.String("sort_by", "", "use the rank of each entry sorted by this field as its position")

	maxEntries  = flag.Int("max_entries_per_tile", 100, "maximum number of entries shown per tile")
	columnNames = flag.String("column_names", "", "comma-separated column names for tabular input without a header row")
	delimiter   = flag.String("delimiter", "\t", "column delimiter for tabular input")

	maxZoom  = flag.Int("max_zoom", 5, "deepest zoom level")
	minPos   = flag.String("min_pos", "", "comma-separated minimum position per axis")
	maxPos   = flag.String("max_pos", "", "comma-separated maximum position per axis")
	minValue = flag.String("min_value", "", "field holding the minimum value of an entry (defaults to -importance)")
	maxValue = flag.String("max_value", "", "field holding the maximum value of an entry (defaults to -importance)")

	outputDir = flag.String("output_dir", "", "output directory, gs://bucket/prefix or SQLite database")
	mode      = flag.String("mode", "pyramid", "tiling mode: pyramid or binary")
	retention = flag.String("retention", "top", "entries kept per pyramid tile: top, random or all")
	seed      = flag.Int64("seed", 0, "random seed for -retention=random (0 uses the clock)")
	coarsen   = flag.Bool("coarsen", true, "halve the resolution of the entries between pyramid levels")

	compress  = flag.Bool("compress", false, "BGZF-compress tile files")
	skipEmpty = flag.Bool("skip_empty", false, "do not write tiles that show no entries")
	indent    = flag.Bool("indent", false, "pretty-print JSON output")

	gcsToken  = flag.String("gcs_token", "", "OAuth2 bearer token for GCS output (defaults to $"+tokenEnv+")")
	anonymous = flag.Bool("anonymous", false, "use unauthenticated GCS requests")

	profileMode = flag.String("profile", "", "write a cpu or mem profile to the working directory")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] input_file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *outputDir == "" {
		log.Fatalf("You must specify -output_dir.")
	}
	if flag.NArg() != 1 {
		log.Fatalf("You must specify exactly one input file (or - for stdin).")
	}
	if *sortBy != "" && isFlagSet("position") {
		log.Fatalf("-sort_by and -position are mutually exclusive.")
	}

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		log.Fatalf("Unknown -profile mode %q.", *profileMode)
	}

	opts, err := inputOptions()
	if err != nil {
		log.Fatalf("Invalid input options: %v", err)
	}
	entries, err := input.Load(flag.Arg(0), opts)
	if err != nil {
		log.Fatalf("Failed to load entries: %v", err)
	}
	log.Printf("Loaded %d entries from %s", len(entries), flag.Arg(0))

	schema := opts.Schema
	if *sortBy != "" {
		schema.Axes = []string{input.SortedPositionField}
	}
	bounds, err := axisBounds(entries, len(schema.Axes), *minPos, *maxPos)
	if err != nil {
		log.Fatalf("Invalid bounds: %v", err)
	}

	token := *gcsToken
	if token == "" {
		token = os.Getenv(tokenEnv)
	}

	ctx := context.Background()
	out, err := sink.Open(ctx, *outputDir, sink.OpenOptions{Token: token, Anonymous: *anonymous})
	if err != nil {
		log.Fatalf("Failed to open output %q: %v", *outputDir, err)
	}

	written, err := writeTiles(ctx, out, entries, schema, bounds)
	if err != nil {
		out.Close()
		log.Fatalf("Failed to write tiles (%d written): %v", written, err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to close output %q: %v", *outputDir, err)
	}
	log.Printf("Wrote %d tiles to %s", written, *outputDir)
}

func writeTiles(ctx context.Context, out sink.Sink, entries []tiles.Entry, schema tiles.Schema, bounds []tiles.Span) (int, error) {
	writeOpts := sink.WriteOptions{Compress: *compress, SkipEmpty: *skipEmpty, Indent: *indent}

	switch *mode {
	case "pyramid":
		retain, err := retainPolicy(*retention, *maxEntries, *seed)
		if err != nil {
			return 0, err
		}
		ts, err := tiles.BuildPyramid(entries, schema, tiles.PyramidOptions{
			MaxZoom: *maxZoom,
			Retain:  retain,
			Coarsen: *coarsen,
			Bounds:  bounds,
			Logf:    log.Printf,
		})
		if err != nil {
			return 0, err
		}
		return sink.WriteTileset(ctx, out, ts, writeOpts)
	case "binary":
		if len(schema.Axes) != 1 {
			return 0, fmt.Errorf("binary mode needs exactly one position field, got %d", len(schema.Axes))
		}
		opts := tiles.BinaryOptions{MaxEntries: *maxEntries, MaxZoom: *maxZoom, Bounds: &bounds[0]}
		binaryTiles, err := tiles.MakeBinaryTiles(entries, opts)
		if err != nil {
			return 0, err
		}
		return sink.WriteBinaryTiles(ctx, out, tiles.BinaryTilesetInfo(entries, opts), binaryTiles, writeOpts)
	}
	return 0, fmt.Errorf("unknown mode %q", *mode)
}

func inputOptions() (input.Options, error) {
	opts := input.Options{
		Schema: tiles.Schema{
			Axes:       splitList(*position),
			Importance: *importance,
			MinValue:   *minValue,
			MaxValue:   *maxValue,
		},
		ColumnNames: splitList(*columnNames),
		SortBy:      *sortBy,
	}
	if d := *delimiter; d != "" {
		if d == `\t` {
			d = "\t"
		}
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) {
			return opts, fmt.Errorf("delimiter %q is not a single character", d)
		}
		opts.Delimiter = r
	}
	return opts, nil
}

// retainPolicy returns the per-tile retention policy named by name.
func retainPolicy(name string, n int, seed int64) (tiles.Retain, error) {
	switch name {
	case "top":
		return tiles.TopByImportance(n), nil
	case "random":
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return tiles.RandomSample(n, rand.New(rand.NewSource(seed))), nil
	case "all":
		return tiles.KeepAll, nil
	}
	return nil, fmt.Errorf("unknown retention policy %q", name)
}

// axisBounds returns the extent of entries with the axes listed in minList
// and maxList overridden.
func axisBounds(entries []tiles.Entry, dims int, minList, maxList string) ([]tiles.Span, error) {
	bounds := tiles.Extent(entries, dims)
	mins, err := parseFloats(minList, dims)
	if err != nil {
		return nil, fmt.Errorf("-min_pos: %v", err)
	}
	maxs, err := parseFloats(maxList, dims)
	if err != nil {
		return nil, fmt.Errorf("-max_pos: %v", err)
	}
	for i := range mins {
		bounds[i].Start = mins[i]
	}
	for i := range maxs {
		bounds[i].End = maxs[i]
	}
	for i, span := range bounds {
		if span.End < span.Start {
			return nil, fmt.Errorf("axis %d: empty range %v", i, span)
		}
	}
	return bounds, nil
}

func parseFloats(list string, dims int) ([]float64, error) {
	fields := splitList(list)
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) != dims {
		return nil, fmt.Errorf("got %d values, want one per axis (%d)", len(fields), dims)
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func splitList(list string) []string {
	var fields []string
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
