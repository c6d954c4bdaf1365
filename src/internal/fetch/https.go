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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"componenthost/src/internal/model"
)

var knownExtensions = []string{".wasm", ".yaml", ".yml"}

func (f *Fetcher) fetchHTTPS(ctx context.Context, uri string) (Handle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, model.NewError(model.KindInvalidInput, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, model.NewError(model.KindFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, model.Errorf(model.KindFetch, "GET %s: %d: %s", uri, resp.StatusCode, body)
	}

	tempDir, err := f.newScratchDir("https-*")
	if err != nil {
		return nil, err
	}

	filename := filenameFromURL(uri)
	dst := tempDir + string(os.PathSeparator) + filename
	out, err := os.Create(dst)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}
	if err := out.Close(); err != nil {
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}

	return NewTemp(tempDir, dst), nil
}

// filenameFromURL derives a local filename from the final path segment of
// uri. A segment ending in a known extension (.wasm, .yaml, .yml) is kept
// as-is; any other segment gets ".bin" appended, and an empty path yields
// "download".
func filenameFromURL(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "" || base == "/" || base == "." {
		return "download"
	}
	for _, ext := range knownExtensions {
		if strings.HasSuffix(base, ext) {
			return base
		}
	}
	return fmt.Sprintf("%s.bin", base)
}
