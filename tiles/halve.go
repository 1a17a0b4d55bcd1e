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
	"math"
	"sort"
	"strings"
)

// ErrDegenerateSpacing is returned by HalveResolution when no axis holds two
// distinct positions, so there is no grid spacing to double.
var ErrDegenerateSpacing = errors.New("no axis has two distinct positions")

// HalveResolution re-bins entries onto a grid twice as coarse as the
// smallest spacing found along each axis.  Entries landing in the same bin
// are merged by summing their importance and values.  The output is sorted
// by position.
//
// Axes holding a single distinct position are left unchanged.  If every axis
// is in that state, ErrDegenerateSpacing is returned.
func HalveResolution(entries []Entry, schema Schema) ([]Entry, error) {
	dims := len(schema.Axes)
	widths := make([]float64, dims)
	bounds := Extent(entries, dims)

	coarsened := false
	for d := 0; d < dims; d++ {
		if gap := minGap(entries, d); gap > 0 {
			widths[d] = gap * 2
			coarsened = true
		}
	}
	if !coarsened {
		return nil, ErrDegenerateSpacing
	}

	var (
		bins  = make(map[string]*Entry)
		order []string
	)
	for _, entry := range entries {
		pos := make([]float64, dims)
		for d, p := range entry.Pos {
			if widths[d] == 0 {
				pos[d] = p
				continue
			}
			pos[d] = bounds[d].Start + math.Floor((p-bounds[d].Start)/widths[d])*widths[d]
		}

		key := binKey(pos)
		if bin, ok := bins[key]; ok {
			bin.Importance += entry.Importance
			bin.MinValue += entry.MinValue
			bin.MaxValue += entry.MaxValue
			continue
		}
		bins[key] = &Entry{
			Pos:        pos,
			Importance: entry.Importance,
			MinValue:   entry.MinValue,
			MaxValue:   entry.MaxValue,
		}
		order = append(order, key)
	}

	merged := make([]Entry, 0, len(order))
	for _, key := range order {
		bin := bins[key]
		bin.Fields = schema.fields(*bin)
		merged = append(merged, *bin)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return lessPos(merged[i].Pos, merged[j].Pos)
	})
	return merged, nil
}

// fields rebuilds the record of a merged entry from its numeric values.
func (s Schema) fields(e Entry) map[string]interface{} {
	fields := make(map[string]interface{}, len(s.Axes)+3)
	for d, axis := range s.Axes {
		fields[axis] = e.Pos[d]
	}
	fields[s.minValueField()] = e.MinValue
	fields[s.maxValueField()] = e.MaxValue
	fields[s.Importance] = e.Importance
	return fields
}

// minGap returns the smallest positive distance between two distinct
// positions along axis d, or 0 if there is none.
func minGap(entries []Entry, d int) float64 {
	positions := make([]float64, len(entries))
	for i, entry := range entries {
		positions[i] = entry.Pos[d]
	}
	sort.Float64s(positions)

	var gap float64
	for i := 1; i < len(positions); i++ {
		if diff := positions[i] - positions[i-1]; diff > 0 && (gap == 0 || diff < gap) {
			gap = diff
		}
	}
	return gap
}

func binKey(pos []float64) string {
	var b strings.Builder
	for i, p := range pos {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatFloat(p))
	}
	return b.String()
}

func lessPos(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
