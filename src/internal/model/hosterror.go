/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package model

import (
	"errors"
	"fmt"
)

// HostError attaches an ErrorKind to an underlying sentinel
// error so callers can both errors.Is against the sentinel and classify the
// failure for is_error/HTTP-status mapping without a second lookup table.
type HostError struct {
	Kind ErrorKind
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

// NewError wraps err with kind.
func NewError(kind ErrorKind, err error) *HostError {
	return &HostError{Kind: kind, Err: err}
}

// Errorf builds the wrapped error like fmt.Errorf and attaches kind.
func Errorf(kind ErrorKind, format string, args ...any) *HostError {
	return &HostError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is a
// *HostError, defaulting to Internal otherwise.
func KindOf(err error) ErrorKind {
	var he *HostError
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindInternal
}
