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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	schema1D = Schema{Axes: []string{"pos"}, Importance: "val"}
	schema2D = Schema{Axes: []string{"pos1", "pos2"}, Importance: "count"}
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func mustEntries(t *testing.T, schema Schema, records ...map[string]interface{}) []Entry {
	t.Helper()
	entries := make([]Entry, len(records))
	for i, record := range records {
		entry, err := schema.Entry(record)
		require.NoError(t, err, "record %d", i)
		entries[i] = entry
	}
	return entries
}

func points1D(t *testing.T, pairs ...[2]float64) []Entry {
	records := make([]map[string]interface{}, len(pairs))
	for i, p := range pairs {
		records[i] = map[string]interface{}{"pos": p[0], "val": p[1]}
	}
	return mustEntries(t, schema1D, records...)
}

func points2D(t *testing.T, triples ...[3]float64) []Entry {
	records := make([]map[string]interface{}, len(triples))
	for i, p := range triples {
		records[i] = map[string]interface{}{"pos1": p[0], "pos2": p[1], "count": p[2]}
	}
	return mustEntries(t, schema2D, records...)
}

func grid2D(t *testing.T, n int) []Entry {
	var triples [][3]float64
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			triples = append(triples, [3]float64{float64(x), float64(y), float64(x*n + y + 1)})
		}
	}
	return points2D(t, triples...)
}

func TestSchemaEntry(t *testing.T) {
	schema := Schema{Axes: []string{"pos"}, Importance: "score", MinValue: "lo", MaxValue: "hi"}
	testCases := []struct {
		name   string
		record map[string]interface{}
		ok     bool
	}{
		{"all numeric", map[string]interface{}{"pos": 1.0, "score": 2.0, "lo": 0.5, "hi": 3.0}, true},
		{"numeric strings", map[string]interface{}{"pos": "1", "score": "2.5", "lo": "0", "hi": "3"}, true},
		{"integers", map[string]interface{}{"pos": 1, "score": int64(2), "lo": 0, "hi": 3}, true},
		{"missing position", map[string]interface{}{"score": 2.0, "lo": 0.5, "hi": 3.0}, false},
		{"missing value field", map[string]interface{}{"pos": 1.0, "score": 2.0, "hi": 3.0}, false},
		{"non-numeric importance", map[string]interface{}{"pos": 1.0, "score": "high", "lo": 0.5, "hi": 3.0}, false},
		{"not finite", map[string]interface{}{"pos": 1.0, "score": "NaN", "lo": 0.5, "hi": 3.0}, false},
		{"unsupported type", map[string]interface{}{"pos": []int{1}, "score": 2.0, "lo": 0.5, "hi": 3.0}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Entry(tc.record)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSchemaEntry_ValueFallback(t *testing.T) {
	entry, err := schema1D.Entry(map[string]interface{}{"pos": 4.0, "val": 7.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, entry.Pos)
	assert.Equal(t, 7.5, entry.Importance)
	assert.Equal(t, 7.5, entry.MinValue)
	assert.Equal(t, 7.5, entry.MaxValue)
}

func TestSchemaValidate(t *testing.T) {
	assert.Error(t, Schema{Importance: "x"}.Validate())
	assert.Error(t, Schema{Axes: []string{"pos"}}.Validate())
	assert.Error(t, Schema{Axes: []string{""}, Importance: "x"}.Validate())
	assert.NoError(t, schema2D.Validate())
}

func TestEntryJSON(t *testing.T) {
	entry := points1D(t, [2]float64{3, 15.99})[0].withUID("abc")
	data, err := entry.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"pos": 3, "val": 15.99, "uid": "abc"}`, string(data))

	var decoded Entry
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, "abc", decoded.UID)
	assert.Equal(t, map[string]interface{}{"pos": 3.0, "val": 15.99}, decoded.Fields)
}

func TestRetain(t *testing.T) {
	entries := points1D(t, [2]float64{0, 1}, [2]float64{1, 5}, [2]float64{2, 3}, [2]float64{3, 5}, [2]float64{4, 2})

	top := TopByImportance(3)(entries)
	require.Len(t, top, 3)
	assert.Equal(t, []float64{1}, top[0].Pos, "ties keep input order")
	assert.Equal(t, []float64{3}, top[1].Pos)
	assert.Equal(t, []float64{2}, top[2].Pos)
	assert.Equal(t, []float64{0}, entries[0].Pos, "input must not be reordered")

	assert.Len(t, TopByImportance(-1)(entries), len(entries))
	assert.Len(t, KeepAll(entries), len(entries))
	assert.Len(t, RandomSample(10, rand.New(rand.NewSource(1)))(entries), len(entries))

	a := RandomSample(2, rand.New(rand.NewSource(42)))(entries)
	b := RandomSample(2, rand.New(rand.NewSource(42)))(entries)
	assert.Len(t, a, 2)
	assert.Equal(t, a, b, "same seed should give the same sample")
}

func TestExtent(t *testing.T) {
	entries := points2D(t, [3]float64{4, -1, 1}, [3]float64{2, 7, 1}, [3]float64{9, 3, 1})
	assert.Equal(t, []Span{{2, 9}, {-1, 7}}, Extent(entries, 2))
	assert.Equal(t, []Span{{}, {}}, Extent(nil, 2))
	assert.Equal(t, 8.0, maxWidth(Extent(entries, 2)))
	assert.Equal(t, "[start:2, end:9]", Span{2, 9}.String())
}
