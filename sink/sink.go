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


// Package sink writes tilesets to a local directory, a Google Cloud Storage
// bucket or a SQLite database.
package sink

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
)

var errInvalidGCSTarget = errors.New("invalid gs:// target (want gs://bucket[/prefix])")

// Sink is an interface to the storage a tileset is written to.
type Sink interface {
	// NewObject returns a handle to the named object.  Names are slash
	// separated paths relative to the root of the sink.
	NewObject(name string) Object
	// Close flushes and releases the sink.
	Close() error
}

// Object is a single named output in a Sink.
type Object interface {
	// NewWriter returns a writer that replaces the content of the object.
	// The content is stored when the writer is closed.
	NewWriter(ctx context.Context) (io.WriteCloser, error)
}

// OpenOptions configures how Open connects to remote storage.
type OpenOptions struct {
	// Token is an OAuth2 bearer token used for GCS requests.
	Token string
	// Anonymous disables GCS client authorization.
	Anonymous bool
}

func (opts OpenOptions) clientOptions() []option.ClientOption {
	switch {
	case opts.Token != "":
		return []option.ClientOption{TokenOption(opts.Token)}
	case opts.Anonymous:
		return []option.ClientOption{AnonymousOption()}
	}
	return nil
}

// Open returns the sink described by target:
//
//	gs://bucket/prefix           a GCS bucket
//	sqlite:path, *.db, *.sqlite  a SQLite database
//	anything else                a local directory
func Open(ctx context.Context, target string, opts OpenOptions) (Sink, error) {
	if v := strings.TrimPrefix(target, "gs://"); v != target {
		bucket, prefix, err := parseGCSTarget(v)
		if err != nil {
			return nil, err
		}
		return NewGCS(ctx, bucket, prefix, opts.clientOptions()...)
	}
	if v := strings.TrimPrefix(target, "sqlite:"); v != target {
		return NewSQLite(ctx, v)
	}
	switch filepath.Ext(target) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLite(ctx, target)
	}
	return NewDir(target), nil
}

// parseGCSTarget splits "bucket/prefix" into its parts.
func parseGCSTarget(path string) (string, string, error) {
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errInvalidGCSTarget
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], strings.Trim(parts[1], "/"), nil
}
