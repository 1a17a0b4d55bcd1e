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
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// storageError is used to capture errors with a well known cause.
type storageError struct {
	name  string
	code  int
	cause error
}

func (err *storageError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *storageError) Unwrap() error {
	return err.cause
}

// ErrorName returns the name of a storage error ("NotFound",
// "PermissionDenied" or "InvalidAuthentication"), or "" if err has none.
func ErrorName(err error) string {
	var serr *storageError
	if errors.As(err, &serr) {
		return serr.name
	}
	return ""
}

func newStorageErrorWithName(name string, code int, context string, err error) error {
	return &storageError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newStorageErrorWithName("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newPermissionDeniedError(context string, err error) error {
	return newStorageErrorWithName("PermissionDenied", http.StatusForbidden, context, err)
}

func newNotFoundError(context string, err error) error {
	return newStorageErrorWithName("NotFound", http.StatusNotFound, context, err)
}

func newStorageError(context string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return newNotFoundError(context, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		}
	}
	return fmt.Errorf("%s: %w", context, err)
}
