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


// Package bgzf provides support for reading and writing BGZF files.
//
// BGZF is a series of concatenated gzip members, each no larger than 64KiB,
// so any gzip reader can decompress the output of Writer.
package bgzf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// MaximumBlockSize is the maximum BGZF block size.
const MaximumBlockSize = 65536

// maximumDataSize is the amount of uncompressed data placed in one block.
// It leaves room for incompressible input to stay under MaximumBlockSize.
const maximumDataSize = 0xff00

var errBlockTooLarge = errors.New("compressed block exceeds maximum block size")

// DecodeBlock decodes a single BGZF block from r and returns the uncompressed
// data and the original block size (or an error).  Note that DecodeBlock may
// read bytes past the end of the block if r does not implement io.ByteReader.
// At the end of the input it returns io.EOF.
func DecodeBlock(r io.Reader) ([]byte, uint16, error) {
	gzr, err := gzip.NewReader(r)
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		return nil, 0, fmt.Errorf("initializing gzip reader: %v", err)
	}
	defer gzr.Close()

	extra := gzr.Header.Extra
	if len(extra) < 6 {
		return nil, 0, fmt.Errorf("missing BGZF extra field (%d bytes)", len(extra))
	}
	if extra[0] != 0x42 || extra[1] != 0x43 {
		return nil, 0, fmt.Errorf("unexpected extra ID: %x", extra[0:2])
	}
	if extra[2] != 2 || extra[3] != 0 {
		return nil, 0, fmt.Errorf("unexpected extra length: %x", extra[2:4])
	}

	gzr.Multistream(false)
	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, gzr); err != nil {
		return nil, 0, fmt.Errorf("decompressing data: %v", err)
	}
	return buffer.Bytes(), (uint16(extra[4]) | uint16(extra[5])<<8) + 1, nil
}

// EncodeBlock returns a single BGZF block that encodes the bytes in data.
func EncodeBlock(data []byte) ([]byte, error) {
	if len(data) > MaximumBlockSize {
		return nil, errors.New("data exceeds maximum block size")
	}

	var buffer bytes.Buffer
	gzw := gzip.NewWriter(&buffer)

	gzw.Header.Extra = []byte{
		0x42, 0x43, // Extra ID.
		0x02, 0x00, // Length of extra data (2 bytes).
		0x88, 0x88, // BSIZE (filled in after writing the archive).
	}
	if _, err := gzw.Write(data); err != nil {
		return nil, fmt.Errorf("writing compressed data: %v", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("closing writer: %v", err)
	}
	if buffer.Len() > MaximumBlockSize {
		return nil, errBlockTooLarge
	}
	bsize := buffer.Len() - 1
	encoded := buffer.Bytes()
	encoded[16] = byte(bsize)
	encoded[17] = byte(bsize >> 8)
	return encoded, nil
}

// Writer compresses data into BGZF blocks.  Close must be called to flush
// the final block and the EOF marker.
type Writer struct {
	w       io.Writer
	pending []byte
	closed  bool
}

// NewWriter returns a Writer that writes BGZF blocks to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write buffers p, emitting a block each time a full block of data is
// available.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed writer")
	}
	n := len(p)
	for len(p) > 0 {
		room := maximumDataSize - len(w.pending)
		if room > len(p) {
			room = len(p)
		}
		w.pending = append(w.pending, p[:room]...)
		p = p[room:]
		if len(w.pending) == maximumDataSize {
			if err := w.flush(); err != nil {
				return n - len(p), err
			}
		}
	}
	return n, nil
}

func (w *Writer) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	block, err := EncodeBlock(w.pending)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(block); err != nil {
		return fmt.Errorf("writing block: %v", err)
	}
	w.pending = w.pending[:0]
	return nil
}

// Close flushes any buffered data and writes the EOF marker block.  It does
// not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.flush(); err != nil {
		return err
	}
	eof, err := EncodeBlock(nil)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(eof); err != nil {
		return fmt.Errorf("writing EOF marker: %v", err)
	}
	return nil
}

// Reader decompresses a BGZF stream block by block.
type Reader struct {
	r       *bufio.Reader
	current []byte
	err     error
}

// NewReader returns a Reader that decodes the BGZF blocks in r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.current) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.current, _, r.err = DecodeBlock(r.r)
	}
	n := copy(p, r.current)
	r.current = r.current[n:]
	return n, nil
}
