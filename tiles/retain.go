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
	"math/rand"
	"sort"
)

// Retain reduces the candidate entries of a tile to the ones shown.  It
// must not modify its input.
type Retain func([]Entry) []Entry

// KeepAll shows every candidate.
func KeepAll(entries []Entry) []Entry {
	return entries
}

// TopByImportance keeps the n most important entries, ordered by
// descending importance.  Ties keep their input order.  A negative n keeps
// everything.
func TopByImportance(n int) Retain {
	return func(entries []Entry) []Entry {
		ranked := make([]Entry, len(entries))
		copy(ranked, entries)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Importance > ranked[j].Importance
		})
		if n >= 0 && len(ranked) > n {
			ranked = ranked[:n]
		}
		return ranked
	}
}

// RandomSample keeps a uniform sample of at most n entries.  The result is
// reproducible for a given rng seed and input.
func RandomSample(n int, rng *rand.Rand) Retain {
	return func(entries []Entry) []Entry {
		if n < 0 || len(entries) <= n {
			return entries
		}
		shuffled := make([]Entry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled[:n]
	}
}
