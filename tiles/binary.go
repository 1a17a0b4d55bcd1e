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
	"fmt"
	"math"

	"github.com/google/uuid"
)

// maxBinaryZoom keeps the number of binary tiles (2^(zoom+1) - 1) sane.
const maxBinaryZoom = 24

// BinaryTile is a node of the 1-dimensional bisection tree.
type BinaryTile struct {
	Zoom   int     `json:"zoom"`
	Num    int     `json:"num"`
	StartX float64 `json:"start_x"`
	EndX   float64 `json:"end_x"`
	Shown  []Entry `json:"shown"`
}

// Path returns "<zoom>/<num>".
func (t *BinaryTile) Path() string {
	return KeyPath([]int{t.Zoom, t.Num})
}

// BinaryOptions configures MakeBinaryTiles.
type BinaryOptions struct {
	// MaxEntries caps the entries shown per tile.
	MaxEntries int
	// MaxZoom is the depth of the deepest tiles.
	MaxZoom int
	// Bounds overrides the extent derived from the entries.
	Bounds *Span
	// NewID generates entry UIDs.  Defaults to random UUIDs.
	NewID func() string
}

type binaryTiler struct {
	opts   BinaryOptions
	bounds Span
	newID  func() string
	tiles  []*BinaryTile
}

// MakeBinaryTiles recursively bisects the domain of 1-dimensional entries.
// Each tile shows its opts.MaxEntries most important entries.  The left
// child of a tile receives the entries at or below the midpoint and the
// right child the entries above it.  Tiles are returned in pre-order.
func MakeBinaryTiles(entries []Entry, opts BinaryOptions) ([]*BinaryTile, error) {
	if opts.MaxZoom < 0 || opts.MaxZoom > maxBinaryZoom {
		return nil, fmt.Errorf("max zoom %d outside [0, %d]", opts.MaxZoom, maxBinaryZoom)
	}
	if opts.MaxEntries < 0 {
		return nil, fmt.Errorf("negative max entries %d", opts.MaxEntries)
	}
	for i, entry := range entries {
		if len(entry.Pos) != 1 {
			return nil, fmt.Errorf("entry %d: %v (got %d, want 1)", i, errWrongDimensions, len(entry.Pos))
		}
	}

	t := &binaryTiler{opts: opts, newID: opts.NewID}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	if opts.Bounds != nil {
		t.bounds = *opts.Bounds
	} else {
		t.bounds = Extent(entries, 1)[0]
	}

	t.split(entries, 0, t.bounds.Start, t.bounds.End)
	return t.tiles, nil
}

// BinaryTilesetInfo returns the metadata matching MakeBinaryTiles.
func BinaryTilesetInfo(entries []Entry, opts BinaryOptions) TilesetInfo {
	bounds := Extent(entries, 1)
	if opts.Bounds != nil {
		bounds[0] = *opts.Bounds
	}
	return summarize(entries, bounds, opts.MaxZoom)
}

func (t *binaryTiler) split(entries []Entry, zoom int, start, end float64) {
	shown := TopByImportance(t.opts.MaxEntries)(entries)
	tile := &BinaryTile{
		Zoom:   zoom,
		StartX: start,
		EndX:   end,
		Shown:  make([]Entry, len(shown)),
	}
	for i, entry := range shown {
		tile.Shown[i] = entry.withUID(t.newID())
	}

	midpoint := (start + end) / 2
	if width := t.bounds.Width(); width > 0 {
		tile.Num = int(math.Floor((midpoint - t.bounds.Start) / (width / math.Pow(2, float64(zoom)))))
	}
	t.tiles = append(t.tiles, tile)

	if zoom >= t.opts.MaxZoom {
		return
	}

	var left, right []Entry
	for _, entry := range entries {
		if entry.Pos[0] <= midpoint {
			left = append(left, entry)
		} else {
			right = append(right, entry)
		}
	}
	t.split(left, zoom+1, start, midpoint)
	t.split(right, zoom+1, midpoint, end)
}
