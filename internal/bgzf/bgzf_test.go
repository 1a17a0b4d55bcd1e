// Copyright 2017 Google Inc.
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


package bgzf

import (
	"bytes"
	"io"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestEncodeBlock_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty block (EOF marker)", nil},
		{"single byte block", []byte{0x42}},
		{"json", []byte(`{"zoom": 0, "tile_num": [0], "shown": []}`)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			block, err := EncodeBlock(tc.data)
			if err != nil {
				t.Fatalf("Failed to encode block: %v", err)
			}
			data, bsize, err := DecodeBlock(bytes.NewReader(block))
			if err != nil {
				t.Fatalf("Failed to decode block: %v", err)
			}
			if got, want := int(bsize), len(block); got != want {
				t.Errorf("Wrong block size: got %d, want %d", got, want)
			}
			if !bytes.Equal(data, tc.data) {
				t.Errorf("Wrong data: got %q, want %q", data, tc.data)
			}
		})
	}
}

func TestEncodeBlock_BlockSizes(t *testing.T) {
	if _, err := EncodeBlock(make([]byte, MaximumBlockSize+1)); err == nil {
		t.Fatal("EncodeBlock() should fail with block over size limit but didn't")
	}
	if _, err := EncodeBlock(make([]byte, MaximumBlockSize)); err != nil {
		t.Fatal("EncodeBlock() should succeed with block at size limit but didn't")
	}
}

func TestDecodeBlock_NotBGZF(t *testing.T) {
	var buffer bytes.Buffer
	gzw := gzip.NewWriter(&buffer)
	gzw.Write([]byte("plain gzip"))
	gzw.Close()

	if _, _, err := DecodeBlock(&buffer); err == nil {
		t.Error("DecodeBlock accepted a gzip member without a BGZF header")
	}
}

func TestWriter(t *testing.T) {
	random := make([]byte, 3*maximumDataSize+17)
	rand.New(rand.NewSource(1)).Read(random)

	testCases := []struct {
		name   string
		data   []byte
		blocks int
	}{
		{"empty", nil, 1},
		{"small", []byte("hello, tiles"), 2},
		{"exactly one block", bytes.Repeat([]byte{'a'}, maximumDataSize), 2},
		{"incompressible", random, 5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buffer bytes.Buffer
			w := NewWriter(&buffer)
			// Uneven writes exercise block boundaries.
			for data := tc.data; len(data) > 0; {
				n := 1000
				if n > len(data) {
					n = len(data)
				}
				if _, err := w.Write(data[:n]); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				data = data[n:]
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			encoded := buffer.Bytes()
			r := bytes.NewReader(encoded)
			blocks := 0
			for {
				_, _, err := DecodeBlock(r)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Failed to decode block %d: %v", blocks, err)
				}
				blocks++
			}
			if got, want := blocks, tc.blocks; got != want {
				t.Errorf("Wrong block count: got %d, want %d", got, want)
			}

			got, err := ioutil.ReadAll(NewReader(bytes.NewReader(encoded)))
			if err != nil {
				t.Fatalf("Reader failed: %v", err)
			}
			if !bytes.Equal(got, tc.data) {
				t.Errorf("Reader returned %d bytes, want %d", len(got), len(tc.data))
			}

			gzr, err := gzip.NewReader(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("gzip reader failed: %v", err)
			}
			if got, err := ioutil.ReadAll(gzr); err != nil || !bytes.Equal(got, tc.data) {
				t.Errorf("Output is not readable as plain gzip: %v", err)
			}
		})
	}
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w := NewWriter(ioutil.Discard)
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Write after Close succeeded")
	}
}
