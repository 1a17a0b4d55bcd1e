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


package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/googlegenomics/hitiles/internal/bgzf"
	"github.com/googlegenomics/hitiles/tiles"
)

const (
	// InfoName is the object holding the tileset metadata.
	InfoName = "tile_info.json"

	tileSuffix       = ".json"
	compressedSuffix = ".gz"
)

// WriteOptions controls the encoding of tiles.
type WriteOptions struct {
	// Compress writes tiles as BGZF with a ".gz" suffix.  The tileset
	// metadata is never compressed.
	Compress bool
	// SkipEmpty omits tiles that show no entries.
	SkipEmpty bool
	// Indent pretty-prints the JSON output.
	Indent bool
}

// WriteTileset writes the metadata of ts to InfoName and each tile to
// "<zoom>/<position...>.json".  It returns the number of tiles written.
// Writes are not retried; on error the sink holds a partial tileset.
func WriteTileset(ctx context.Context, s Sink, ts *tiles.Tileset, opts WriteOptions) (int, error) {
	if err := writeJSON(ctx, s, InfoName, ts.Info, false, opts.Indent); err != nil {
		return 0, err
	}

	written := 0
	for _, tile := range ts.Tiles {
		if opts.SkipEmpty && len(tile.Shown) == 0 {
			continue
		}
		if err := writeJSON(ctx, s, tileName(tile.Path(), opts), tile, opts.Compress, opts.Indent); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// WriteBinaryTiles writes info to InfoName and each tile to
// "<zoom>/<num>.json".  It returns the number of tiles written.
func WriteBinaryTiles(ctx context.Context, s Sink, info tiles.TilesetInfo, binaryTiles []*tiles.BinaryTile, opts WriteOptions) (int, error) {
	if err := writeJSON(ctx, s, InfoName, info, false, opts.Indent); err != nil {
		return 0, err
	}

	written := 0
	for _, tile := range binaryTiles {
		if opts.SkipEmpty && len(tile.Shown) == 0 {
			continue
		}
		if err := writeJSON(ctx, s, tileName(tile.Path(), opts), tile, opts.Compress, opts.Indent); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func tileName(path string, opts WriteOptions) string {
	if opts.Compress {
		return path + tileSuffix + compressedSuffix
	}
	return path + tileSuffix
}

func writeJSON(ctx context.Context, s Sink, name string, v interface{}, compress, indent bool) error {
	w, err := s.NewObject(name).NewWriter(ctx)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}

	var (
		out io.Writer = w
		bw  *bgzf.Writer
	)
	if compress {
		bw = bgzf.NewWriter(w)
		out = bw
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		w.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if bw != nil {
		if err := bw.Close(); err != nil {
			w.Close()
			return fmt.Errorf("compressing %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	return nil
}
