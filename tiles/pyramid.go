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


package tiles

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxTilesPerLevel bounds the grid enumerated at a single zoom level.
const maxTilesPerLevel = 1 << 24

// Tile is one cell of the grid at a zoom level.
type Tile struct {
	Zoom  int       `json:"zoom"`
	Num   []int     `json:"tile_num"`
	Start []float64 `json:"tile_start_pos"`
	End   []float64 `json:"tile_end_pos"`
	Shown []Entry   `json:"shown"`
}

// Key returns the (zoom, position...) tuple identifying t.
func (t *Tile) Key() []int {
	return append([]int{t.Zoom}, t.Num...)
}

// Path returns the slash separated key of t, e.g. "3/1/6".
func (t *Tile) Path() string {
	return KeyPath(t.Key())
}

// KeyPath joins a tile key with slashes.
func KeyPath(key []int) string {
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// TilesetInfo describes a complete tileset.
type TilesetInfo struct {
	MinPos        []float64 `json:"min_pos"`
	MaxPos        []float64 `json:"max_pos"`
	MinValue      float64   `json:"min_value"`
	MaxValue      float64   `json:"max_value"`
	MinImportance float64   `json:"min_importance"`
	MaxImportance float64   `json:"max_importance"`
	MaxZoom       int       `json:"max_zoom"`
}

// Tileset holds the metadata and the tiles of every zoom level.  Tiles are
// ordered from the finest zoom level to the coarsest, and by cell within a
// level.
type Tileset struct {
	Info  TilesetInfo
	Tiles []*Tile

	index map[string]*Tile
}

func (ts *Tileset) add(tiles []*Tile) {
	if ts.index == nil {
		ts.index = make(map[string]*Tile)
	}
	for _, tile := range tiles {
		ts.index[tile.Path()] = tile
	}
	ts.Tiles = append(ts.Tiles, tiles...)
}

// Lookup returns the tile at zoom and position, or nil.
func (ts *Tileset) Lookup(zoom int, pos ...int) *Tile {
	return ts.index[KeyPath(append([]int{zoom}, pos...))]
}

// Level returns the tiles of a single zoom level.
func (ts *Tileset) Level(zoom int) []*Tile {
	var level []*Tile
	for _, tile := range ts.Tiles {
		if tile.Zoom == zoom {
			level = append(level, tile)
		}
	}
	return level
}

// PyramidOptions configures BuildPyramid.
type PyramidOptions struct {
	// MaxZoom is the finest zoom level built.  Levels 0 to MaxZoom are
	// produced.
	MaxZoom int
	// Retain selects the entries shown in a tile.  Nil shows everything.
	Retain Retain
	// Coarsen halves the resolution of the data between zoom levels.
	Coarsen bool
	// Bounds overrides the per-axis extent derived from the entries.
	Bounds []Span
	// NewID generates entry UIDs.  Defaults to random UUIDs.
	NewID func() string
	// Logf, if set, receives progress messages.
	Logf func(format string, args ...interface{})
}

// BuildPyramid splits entries into a grid of 2^Z cells per axis for every
// zoom level Z from opts.MaxZoom down to 0.
func BuildPyramid(entries []Entry, schema Schema, opts PyramidOptions) (*Tileset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	dims := len(schema.Axes)
	if opts.MaxZoom < 0 {
		return nil, fmt.Errorf("negative max zoom %d", opts.MaxZoom)
	}
	if cells := math.Pow(2, float64(opts.MaxZoom*dims)); cells > maxTilesPerLevel {
		return nil, fmt.Errorf("max zoom %d with %d axes needs %g tiles per level (limit %d)",
			opts.MaxZoom, dims, cells, maxTilesPerLevel)
	}
	for i, entry := range entries {
		if len(entry.Pos) != dims {
			return nil, fmt.Errorf("entry %d: %v (got %d, want %d)", i, errWrongDimensions, len(entry.Pos), dims)
		}
	}

	bounds := opts.Bounds
	switch {
	case len(bounds) == 0:
		bounds = Extent(entries, dims)
	case len(bounds) != dims:
		return nil, fmt.Errorf("got %d bounds for %d axes", len(bounds), dims)
	}
	for i, b := range bounds {
		if b.End < b.Start {
			return nil, fmt.Errorf("axis %q: invalid bounds %s", schema.Axes[i], b)
		}
	}

	retain := opts.Retain
	if retain == nil {
		retain = KeepAll
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	ts := &Tileset{Info: summarize(entries, bounds, opts.MaxZoom)}
	tileDim := maxWidth(bounds)

	working := entries
	for zoom := opts.MaxZoom; zoom >= 0; zoom-- {
		if opts.Logf != nil {
			opts.Logf("Splitting %d entries at zoom level %d", len(working), zoom)
		}
		ts.add(splitLevel(working, bounds, zoom, tileDim, retain, newID))

		if zoom == 0 || !opts.Coarsen {
			continue
		}
		halved, err := HalveResolution(working, schema)
		switch {
		case errors.Is(err, ErrDegenerateSpacing):
			// Fully merged; coarser levels see the same data.
		case err != nil:
			return nil, fmt.Errorf("halving resolution below zoom %d: %v", zoom, err)
		default:
			working = halved
		}
	}
	return ts, nil
}

// splitLevel assigns entries to the cells of a single zoom level.
func splitLevel(entries []Entry, bounds []Span, zoom int, tileDim float64, retain Retain, newID func() string) []*Tile {
	dims := len(bounds)
	cells := 1 << uint(zoom)
	width := tileDim / float64(cells)
	if tileDim == 0 {
		cells, width = 1, 0
	}

	buckets := make(map[int][]Entry)
	for _, entry := range entries {
		if flat, ok := cellOf(entry.Pos, bounds, width, cells); ok {
			buckets[flat] = append(buckets[flat], entry)
		}
	}

	total := 1
	for d := 0; d < dims; d++ {
		total *= cells
	}

	tiles := make([]*Tile, 0, total)
	for flat := 0; flat < total; flat++ {
		tile := &Tile{
			Zoom:  zoom,
			Num:   make([]int, dims),
			Start: make([]float64, dims),
			End:   make([]float64, dims),
		}
		// Axis 0 varies slowest.
		rest := flat
		for d := dims - 1; d >= 0; d-- {
			tile.Num[d] = rest % cells
			rest /= cells
			tile.Start[d] = bounds[d].Start + float64(tile.Num[d])*width
			tile.End[d] = bounds[d].Start + float64(tile.Num[d]+1)*width
		}

		shown := retain(buckets[flat])
		tile.Shown = make([]Entry, len(shown))
		for i, entry := range shown {
			tile.Shown[i] = entry.withUID(newID())
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

// cellOf returns the flattened cell index holding pos.  The last cell along
// each axis is closed so that the domain maximum is included.
func cellOf(pos []float64, bounds []Span, width float64, cells int) (int, bool) {
	flat := 0
	for d, p := range pos {
		if p < bounds[d].Start || p > bounds[d].End {
			return 0, false
		}
		idx := 0
		if width > 0 {
			idx = int(math.Floor((p - bounds[d].Start) / width))
			if idx >= cells {
				idx = cells - 1
			}
		}
		flat = flat*cells + idx
	}
	return flat, true
}

// summarize computes the tileset metadata.  Value and importance ranges are
// always taken from the original entries.
func summarize(entries []Entry, bounds []Span, maxZoom int) TilesetInfo {
	info := TilesetInfo{
		MinPos:  make([]float64, len(bounds)),
		MaxPos:  make([]float64, len(bounds)),
		MaxZoom: maxZoom,
	}
	for d, b := range bounds {
		info.MinPos[d] = b.Start
		info.MaxPos[d] = b.End
	}
	for i, entry := range entries {
		if i == 0 || entry.MinValue < info.MinValue {
			info.MinValue = entry.MinValue
		}
		if i == 0 || entry.MaxValue > info.MaxValue {
			info.MaxValue = entry.MaxValue
		}
		if i == 0 || entry.Importance < info.MinImportance {
			info.MinImportance = entry.Importance
		}
		if i == 0 || entry.Importance > info.MaxImportance {
			info.MaxImportance = entry.Importance
		}
	}
	return info
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
