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


// Package tiles builds multi-resolution tile pyramids from scored,
// positioned entries.
//
// Two strategies are provided.  BuildPyramid partitions an N-dimensional
// domain into 2^Z equal cells per axis at every zoom level Z.
// MakeBinaryTiles recursively bisects a 1-dimensional domain.
package tiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	errNoAxes          = errors.New("schema has no position axes")
	errNoImportance    = errors.New("schema has no importance field")
	errWrongDimensions = errors.New("entry dimensions do not match schema")
)

// Schema names the fields of a record that hold its position, importance
// and value range.
type Schema struct {
	// Axes lists the position fields, one per dimension.
	Axes []string
	// Importance ranks entries for retention.
	Importance string
	// MinValue and MaxValue name the fields used for the tileset value
	// range.  If empty, the importance field is used.
	MinValue, MaxValue string
}

// Validate checks that s can be used to read entries.
func (s Schema) Validate() error {
	if len(s.Axes) == 0 {
		return errNoAxes
	}
	for i, axis := range s.Axes {
		if axis == "" {
			return fmt.Errorf("axis %d has no field name", i)
		}
	}
	if s.Importance == "" {
		return errNoImportance
	}
	return nil
}

func (s Schema) minValueField() string {
	if s.MinValue == "" {
		return s.Importance
	}
	return s.MinValue
}

func (s Schema) maxValueField() string {
	if s.MaxValue == "" {
		return s.Importance
	}
	return s.MaxValue
}

// Entry is a single positioned, scored record.  Entries are treated as
// immutable: tiling copies an entry before assigning its UID.
type Entry struct {
	Pos        []float64
	Importance float64
	MinValue   float64
	MaxValue   float64

	// Fields holds the complete source record.
	Fields map[string]interface{}
	// UID is assigned when the entry is placed in a tile.
	UID string
}

// Entry converts record into an Entry, checking that every field named by
// s is present and numeric.
func (s Schema) Entry(record map[string]interface{}) (Entry, error) {
	if err := s.Validate(); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Pos:    make([]float64, len(s.Axes)),
		Fields: record,
	}
	for i, axis := range s.Axes {
		v, err := number(record, axis)
		if err != nil {
			return Entry{}, err
		}
		entry.Pos[i] = v
	}

	var err error
	if entry.Importance, err = number(record, s.Importance); err != nil {
		return Entry{}, err
	}
	if entry.MinValue, err = number(record, s.minValueField()); err != nil {
		return Entry{}, err
	}
	if entry.MaxValue, err = number(record, s.maxValueField()); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// withUID returns a copy of e carrying uid.
func (e Entry) withUID(uid string) Entry {
	e.UID = uid
	return e
}

// MarshalJSON writes the source fields of e together with its UID.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.UID != "" {
		out["uid"] = e.UID
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the source fields of an entry.  Only UID and Fields
// are restored; the numeric fields need a Schema (see Schema.Entry).
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if uid, ok := fields["uid"].(string); ok {
		e.UID = uid
		delete(fields, "uid")
	}
	e.Fields = fields
	return nil
}

func number(record map[string]interface{}, field string) (float64, error) {
	v, err := rawNumber(record, field)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("field %q is not finite: %g", field, v)
	}
	return v, nil
}

func rawNumber(record map[string]interface{}, field string) (float64, error) {
	raw, ok := record[field]
	if !ok {
		return 0, fmt.Errorf("missing field %q", field)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %v", field, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q is not numeric: %q", field, v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("field %q has unsupported type %T", field, raw)
}
