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
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// GCS writes objects to a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS returns a GCS sink writing below prefix in bucket.  Without
// options the application default credentials are used.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %v", err)
	}
	return &GCS{client, bucket, prefix}, nil
}

// TokenOption returns a client option that authorizes requests with the
// OAuth2 bearer token.
func TokenOption(token string) option.ClientOption {
	return option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	}))
}

// AnonymousOption returns a client option that does not use any form of
// client authorization.
func AnonymousOption() option.ClientOption {
	return option.WithHTTPClient(http.DefaultClient)
}

// NewObject returns a handle to the object name below the prefix.
func (g *GCS) NewObject(name string) Object {
	name = path.Join(g.prefix, name)
	return gcsObject{g.client.Bucket(g.bucket).Object(name), name}
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

type gcsObject struct {
	*storage.ObjectHandle
	name string
}

func (o gcsObject) NewWriter(ctx context.Context) (io.WriteCloser, error) {
	w := o.ObjectHandle.NewWriter(ctx)
	w.ContentType = "application/json"
	if strings.HasSuffix(o.name, compressedSuffix) {
		w.ContentEncoding = "gzip"
	}
	return gcsWriter{w, o.name}, nil
}

type gcsWriter struct {
	*storage.Writer
	name string
}

func (w gcsWriter) Write(p []byte) (int, error) {
	n, err := w.Writer.Write(p)
	if err != nil {
		return n, newStorageError("writing "+w.name, err)
	}
	return n, nil
}

func (w gcsWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		return newStorageError("uploading "+w.name, err)
	}
	return nil
}
