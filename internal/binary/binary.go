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


// Package binary provides support for sniffing binary data.
package binary

import (
	"bufio"
	"bytes"
)

// GzipMagic starts every gzip member, including BGZF blocks.
var GzipMagic = []byte{0x1f, 0x8b}

// HasMagic reports whether the next bytes of r are want, without consuming
// them.
func HasMagic(r *bufio.Reader, want []byte) bool {
	got, err := r.Peek(len(want))
	return err == nil && bytes.Equal(got, want)
}
