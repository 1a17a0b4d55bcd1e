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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalveResolution(t *testing.T) {
	entries := points2D(t,
		[3]float64{100, 100, 12},
		[3]float64{300, 300, 4},
		[3]float64{200, 400, 1},
		[3]float64{100, 200, 2},
		[3]float64{400, 100, 3},
	)
	halved, err := HalveResolution(entries, schema2D)
	require.NoError(t, err)

	got := make(map[[2]float64]float64)
	for _, entry := range halved {
		got[[2]float64{entry.Pos[0], entry.Pos[1]}] = entry.Importance
	}
	assert.Equal(t, map[[2]float64]float64{
		{100, 100}: 14,
		{300, 300}: 4,
		{100, 300}: 1,
		{300, 100}: 3,
	}, got)

	for i := 1; i < len(halved); i++ {
		assert.True(t, lessPos(halved[i-1].Pos, halved[i].Pos), "output not sorted by position")
	}
}

func TestHalveResolution_RebuildsFields(t *testing.T) {
	schema := Schema{Axes: []string{"x"}, Importance: "n", MinValue: "lo", MaxValue: "hi"}
	entries := mustEntries(t, schema,
		map[string]interface{}{"x": 0.0, "n": 1.0, "lo": 1.0, "hi": 2.0, "name": "a"},
		map[string]interface{}{"x": 1.0, "n": 2.0, "lo": 3.0, "hi": 4.0, "name": "b"},
	)
	halved, err := HalveResolution(entries, schema)
	require.NoError(t, err)
	require.Len(t, halved, 1)
	assert.Equal(t, map[string]interface{}{"x": 0.0, "n": 3.0, "lo": 4.0, "hi": 6.0}, halved[0].Fields)
	assert.Equal(t, "a", entries[0].Fields["name"], "inputs are not modified")
}

func TestHalveResolution_SinglePositionAxis(t *testing.T) {
	entries := points2D(t, [3]float64{0, 5, 1}, [3]float64{1, 5, 1}, [3]float64{3, 5, 1})
	halved, err := HalveResolution(entries, schema2D)
	require.NoError(t, err)
	require.Len(t, halved, 2)
	assert.Equal(t, []float64{0, 5}, halved[0].Pos)
	assert.Equal(t, 2.0, halved[0].Importance)
	assert.Equal(t, []float64{2, 5}, halved[1].Pos)
}

func TestHalveResolution_Degenerate(t *testing.T) {
	testCases := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"single point", points2D(t, [3]float64{3, 4, 1})},
		{"duplicated point", points2D(t, [3]float64{3, 4, 1}, [3]float64{3, 4, 2})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := HalveResolution(tc.entries, schema2D)
			assert.ErrorIs(t, err, ErrDegenerateSpacing)
		})
	}
}
