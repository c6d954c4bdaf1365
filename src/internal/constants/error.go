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

package constants

import "errors"

// Component / Lifecycle Manager errors.
var (
	ErrComponentNotFound   = errors.New("component not found")
	ErrInvalidWasmPath     = errors.New("path does not refer to a .wasm file")
	ErrRelativeFilePath    = errors.New("file:// URI must be absolute")
	ErrCompileFailed       = errors.New("component failed to compile")
	ErrPersistFailed       = errors.New("failed to persist component to plugin directory")
)

// Registry / tool-lookup errors.
var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrAmbiguousTool = errors.New("multiple components found for tool")
)

// Resource Fetcher errors.
var (
	ErrUnsupportedScheme  = errors.New("unsupported URI scheme")
	ErrFetchFailed        = errors.New("failed to fetch resource")
	ErrOCIPolicyPullUnsupported = errors.New("OCI policy pulling not implemented yet")
)

// Policy Store errors.
var (
	ErrPolicyNotFound    = errors.New("no policy found for component")
	ErrPolicyParseFailed = errors.New("failed to parse policy document")
	ErrInvalidPermission = errors.New("invalid permission type")
	ErrEmptyHost         = errors.New("host must not be empty")
	ErrEmptyURI          = errors.New("uri must not be empty")
	ErrEmptyAccess       = errors.New("access list must not be empty")
	ErrInvalidAccess     = errors.New("access must be one of: read, write")
)

// Value Bridge errors.
var (
	ErrNumberShape    = errors.New("JSON number is neither a valid i64 nor f64")
	ErrInvalidChar    = errors.New("string does not contain exactly one unicode codepoint")
	ErrShape          = errors.New("value does not match expected shape")
	ErrUnknownShape   = errors.New("object does not match any known discriminator shape")
	ErrResourceInput  = errors.New("inbound resource references are not accepted")
	ErrStandaloneNull = errors.New("stand-alone null is not a valid argument")
)

// Invoker / execution errors.
var (
	ErrInterfaceNotFound = errors.New("interface not found")
	ErrFunctionNotFound  = errors.New("function not found")
)

// Internal errors: lock poisoning, filesystem invariant violations.
var (
	ErrInternal = errors.New("internal error")
)
