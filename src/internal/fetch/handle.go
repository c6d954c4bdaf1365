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

// Package fetch implements the Resource Fetcher: resolving file://, oci://,
// and https:// URIs to local files with deterministic naming and cleanup on
// failure.
package fetch

import (
	"io"
	"os"
	"path/filepath"
)

// Handle is a resolved local file. Local handles point at a path the caller
// does not own and must never delete. Temp handles own a scratch directory
// that is removed when Cleanup runs; a file CopyTo has already moved out of
// it is unaffected.
type Handle interface {
	// Path is the resolved local file's path.
	Path() string
	// CopyTo persists the file into dir, renaming (Temp) or copying (Local)
	// as appropriate, and returns the new path.
	CopyTo(dir, filename string) (string, error)
	// Cleanup removes any scratch state owned by this handle. Safe to call
	// more than once. Local handles are a no-op.
	Cleanup()
}

// Local wraps a pre-existing file the Fetcher does not own.
type Local struct {
	path string
}

func NewLocal(path string) *Local { return &Local{path: path} }

func (l *Local) Path() string { return l.path }

func (l *Local) CopyTo(dir, filename string) (string, error) {
	dst := filepath.Join(dir, filename)
	if err := copyFile(l.path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (l *Local) Cleanup() {}

// Temp wraps a file fetched into a scratch directory this handle owns.
// Cleanup deletes tempDir entirely; CopyTo renames the file out first.
type Temp struct {
	tempDir string
	path    string
	moved   bool
}

func NewTemp(tempDir, path string) *Temp {
	return &Temp{tempDir: tempDir, path: path}
}

func (t *Temp) Path() string { return t.path }

func (t *Temp) CopyTo(dir, filename string) (string, error) {
	dst := filepath.Join(dir, filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.Rename(t.path, dst); err != nil {
		// Cross-device rename: fall back to copy + remove.
		if cerr := copyFile(t.path, dst); cerr != nil {
			return "", cerr
		}
		_ = os.Remove(t.path)
	}
	t.moved = true
	return dst, nil
}

func (t *Temp) Cleanup() {
	_ = os.RemoveAll(t.tempDir)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return err
	}
	return os.Rename(out.Name(), dst)
}
