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

import "fmt"

// Span defines the extent of one axis.  Tile cells are half-open
// [Start, End) except the last cell of an axis, which also includes End.
type Span struct {
	Start, End float64
}

// Width returns the extent of the span.
func (s Span) Width() float64 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[start:%g, end:%g]", s.Start, s.End)
}

// Extent returns the per-axis bounds of entries.  An empty entry set yields
// zero spans.
func Extent(entries []Entry, dims int) []Span {
	spans := make([]Span, dims)
	for i, entry := range entries {
		for d := 0; d < dims; d++ {
			p := entry.Pos[d]
			if i == 0 || p < spans[d].Start {
				spans[d].Start = p
			}
			if i == 0 || p > spans[d].End {
				spans[d].End = p
			}
		}
	}
	return spans
}

// maxWidth returns the largest extent across spans, so that tiles are
// square rather than scaled per axis.
func maxWidth(spans []Span) float64 {
	var width float64
	for _, s := range spans {
		if w := s.Width(); w > width {
			width = w
		}
	}
	return width
}
