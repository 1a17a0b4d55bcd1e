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


package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/googlegenomics/hitiles/internal/bgzf"
	"github.com/googlegenomics/hitiles/tiles"
)

// Dir writes objects as files below a root directory.  Directories are
// created as objects are written.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root}
}

// NewObject returns a handle to the file name below the root.
func (d *Dir) NewObject(name string) Object {
	return dirObject{filepath.Join(d.root, filepath.FromSlash(name))}
}

// Close is a no-op; every file is closed by its writer.
func (d *Dir) Close() error {
	return nil
}

type dirObject struct {
	path string
}

func (o dirObject) NewWriter(ctx context.Context) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %v", err)
	}
	f, err := os.Create(o.path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %v", err)
	}
	return f, nil
}

// ReadInfo reads the tileset metadata written to root.
func ReadInfo(root string) (*tiles.TilesetInfo, error) {
	var info tiles.TilesetInfo
	if err := readObject(root, InfoName, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ReadTile reads the grid tile with the given (zoom, position...) key from
// root, whether or not it was compressed.
func ReadTile(root string, key ...int) (*tiles.Tile, error) {
	var tile tiles.Tile
	if err := readObject(root, tiles.KeyPath(key)+tileSuffix, &tile); err != nil {
		return nil, err
	}
	return &tile, nil
}

// ReadBinaryTile reads a tile written by WriteBinaryTiles.
func ReadBinaryTile(root string, zoom, num int) (*tiles.BinaryTile, error) {
	var tile tiles.BinaryTile
	if err := readObject(root, tiles.KeyPath([]int{zoom, num})+tileSuffix, &tile); err != nil {
		return nil, err
	}
	return &tile, nil
}

func readObject(root, name string, v interface{}) error {
	path := filepath.Join(root, filepath.FromSlash(name))

	var r io.Reader
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		f, err = os.Open(path + compressedSuffix)
		if err != nil {
			return newNotFoundError("opening "+name, err)
		}
		defer f.Close()
		r = bgzf.NewReader(f)
	} else if err != nil {
		return fmt.Errorf("opening %s: %v", name, err)
	} else {
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %v", name, err)
	}
	return nil
}
