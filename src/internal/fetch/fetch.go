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

package fetch

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

// Fetcher resolves file://, oci://, and https:// URIs to local Handles.
// downloadsDir is the scratch directory Temp handles are created under
// (typically <plugin_dir>/downloads).
type Fetcher struct {
	downloadsDir string
	httpClient   *http.Client
}

func NewFetcher(downloadsDir string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{downloadsDir: downloadsDir, httpClient: client}
}

// Fetch dispatches on uri's scheme. forComponent gates the file:// .wasm
// extension check: it is only enforced when fetching a component, not a
// policy document.
func (f *Fetcher) Fetch(ctx context.Context, uri string, forComponent bool) (Handle, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, model.Errorf(model.KindInvalidInput, "URI has no scheme: %q", uri)
	}
	switch scheme {
	case "file":
		// file:///abs/path splits to rest="/abs/path"; anything without the
		// leading slash (file://relative/...) fails the IsAbs check below.
		return f.fetchFile(rest, forComponent)
	case "oci":
		if !forComponent {
			// OCI policy pulling is not implemented yet; only
			// components may be fetched from a registry.
			return nil, model.NewError(model.KindInvalidInput, constants.ErrOCIPolicyPullUnsupported)
		}
		return f.fetchOCI(ctx, rest)
	case "https":
		return f.fetchHTTPS(ctx, uri)
	default:
		return nil, model.NewError(model.KindInvalidInput, constants.ErrUnsupportedScheme)
	}
}

func (f *Fetcher) fetchFile(path string, forComponent bool) (Handle, error) {
	if !filepath.IsAbs(path) {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrRelativeFilePath)
	}
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return nil, model.NewError(model.KindFetch, err)
	}
	if info.IsDir() {
		return nil, model.Errorf(model.KindInvalidInput, "file:// path is a directory: %s", clean)
	}
	if forComponent && filepath.Ext(clean) != ".wasm" {
		return nil, model.Errorf(model.KindInvalidInput, "file:// component path must end in .wasm: %s", clean)
	}
	return NewLocal(clean), nil
}

// newScratchDir creates a fresh temp directory under downloadsDir, creating
// the scratch root itself if it does not exist yet (it is wiped at startup
// and absent on a fresh install).
func (f *Fetcher) newScratchDir(pattern string) (string, error) {
	if err := os.MkdirAll(f.downloadsDir, 0o755); err != nil {
		return "", model.NewError(model.KindFetch, err)
	}
	dir, err := os.MkdirTemp(f.downloadsDir, pattern)
	if err != nil {
		return "", model.NewError(model.KindFetch, err)
	}
	return dir, nil
}

// sanitizeForFilename replaces characters that cannot appear in a path
// segment on any common filesystem: slashes become _ and colons become -.
func sanitizeForFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}
