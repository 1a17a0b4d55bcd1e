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


// Package input loads tiling entries from JSON or delimited tabular files.
package input

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/googlegenomics/hitiles/internal/binary"
	"github.com/googlegenomics/hitiles/tiles"
	"github.com/klauspost/compress/gzip"
)

// SortedPositionField holds the rank of each entry when Options.SortBy is
// set.
const SortedPositionField = "sorted_position"

var (
	errNotJSONArray = errors.New("not a JSON array")
	errNoHeader     = errors.New("no header row")
)

// Options controls how input files are interpreted.
type Options struct {
	// Schema names the position, importance and value fields.
	Schema tiles.Schema
	// ColumnNames, if set, names the columns of a tabular file that has no
	// header row.
	ColumnNames []string
	// SortBy, if set, replaces the position axes with the rank of each
	// entry when sorted by this field.
	SortBy string
	// Delimiter separates tabular columns.  Defaults to a tab.
	Delimiter rune
}

// ParseError reports an input file that could not be read as JSON or as a
// delimited table.
type ParseError struct {
	Path string
	Err  error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", err.Path, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// Load reads entries from the file at path, or from stdin if path is "-".
func Load(path string, opts Options) ([]tiles.Entry, error) {
	if path == "-" {
		return Read(os.Stdin, "<stdin>", opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %v", err)
	}
	defer f.Close()
	return Read(f, path, opts)
}

// Read reads entries from r.  gzip (and BGZF) compressed input is detected
// and decompressed.  The data is parsed as a JSON array of objects and, if
// that fails, as a delimited table.  name is used in error messages.
func Read(r io.Reader, name string, opts Options) ([]tiles.Entry, error) {
	records, err := ReadRecords(r, name, opts)
	if err != nil {
		return nil, err
	}

	schema := opts.Schema
	if opts.SortBy != "" {
		records = rankBy(records, opts.SortBy)
		schema.Axes = []string{SortedPositionField}
	}

	entries := make([]tiles.Entry, len(records))
	for i, record := range records {
		entry, err := schema.Entry(record)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %v", name, i, err)
		}
		entries[i] = entry
	}
	return entries, nil
}

// ReadRecords returns the raw records of r without validating them.
func ReadRecords(r io.Reader, name string, opts Options) ([]map[string]interface{}, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if binary.HasMagic(br, binary.GzipMagic) {
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &ParseError{name, fmt.Errorf("initializing gzip reader: %v", err)}
		}
		defer gzr.Close()
		src = gzr
	}

	data, err := ioutil.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", name, err)
	}

	if records, err := parseJSON(data); err == nil {
		return records, nil
	}
	records, err := parseTable(data, opts)
	if err != nil {
		return nil, &ParseError{name, err}
	}
	return records, nil
}

func parseJSON(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotJSONArray
	}
	var records []map[string]interface{}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
	}
	return records, nil
}

func parseTable(data []byte, opts Options) ([]map[string]interface{}, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.LazyQuotes = true

	columns := opts.ColumnNames
	if len(columns) == 0 {
		header, err := r.Read()
		if err == io.EOF {
			return nil, errNoHeader
		}
		if err != nil {
			return nil, fmt.Errorf("reading header: %v", err)
		}
		columns = header
	} else {
		r.FieldsPerRecord = len(columns)
	}

	var records []map[string]interface{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			record[column] = parseCell(row[i])
		}
		records = append(records, record)
	}
	return records, nil
}

// parseCell returns a finite number when the cell holds one, or the text.
func parseCell(cell string) interface{} {
	if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return cell
}

// rankBy returns copies of records sorted by field, each carrying its rank
// in SortedPositionField.  Records missing the field sort last.
func rankBy(records []map[string]interface{}, field string) []map[string]interface{} {
	ranked := make([]map[string]interface{}, len(records))
	for i, record := range records {
		copied := make(map[string]interface{}, len(record)+1)
		for k, v := range record {
			copied[k] = v
		}
		ranked[i] = copied
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i][field], ranked[j][field])
	})
	for i, record := range ranked {
		record[SortedPositionField] = float64(i)
	}
	return ranked
}

func less(a, b interface{}) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	}
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	switch {
	case aok && bok:
		return fa < fb
	case aok != bok:
		return aok
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
