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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

const (
	ociManifestAccept = "application/vnd.oci.image.manifest.v1+json, " +
		"application/vnd.docker.distribution.manifest.v2+json"
)

type ociManifest struct {
	MediaType string     `json:"mediaType"`
	Layers    []ociLayer `json:"layers"`
}

type ociLayer struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

type ociRef struct {
	registry string
	repo     string
	tag      string
	digest   string
}

var wwwAuthBearer = regexp.MustCompile(`realm="([^"]+)"(?:,service="([^"]+)")?(?:,scope="([^"]+)")?`)

// parseOCIReference parses "registry/repo:tag" or "registry/repo@digest"
// (the "oci://" prefix already stripped by the caller).
func parseOCIReference(rest string) (ociRef, error) {
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return ociRef{}, model.Errorf(model.KindInvalidInput, "invalid OCI reference %q: missing repo", rest)
	}
	registry := rest[:slash]
	remainder := rest[slash+1:]
	if registry == "" || remainder == "" {
		return ociRef{}, model.Errorf(model.KindInvalidInput, "invalid OCI reference %q", rest)
	}
	if at := strings.LastIndex(remainder, "@"); at >= 0 {
		return ociRef{registry: registry, repo: remainder[:at], digest: remainder[at+1:]}, nil
	}
	if colon := strings.LastIndex(remainder, ":"); colon >= 0 {
		return ociRef{registry: registry, repo: remainder[:colon], tag: remainder[colon+1:]}, nil
	}
	return ociRef{registry: registry, repo: remainder, tag: "latest"}, nil
}

func (r ociRef) reference() string {
	if r.digest != "" {
		return r.digest
	}
	return r.tag
}

func (f *Fetcher) fetchOCI(ctx context.Context, rest string) (Handle, error) {
	ref, err := parseOCIReference(rest)
	if err != nil {
		return nil, err
	}

	manifest, err := f.getOCIManifest(ctx, ref)
	if err != nil {
		return nil, model.NewError(model.KindFetch, err)
	}
	if len(manifest.Layers) == 0 {
		return nil, model.Errorf(model.KindFetch, "OCI manifest for %s/%s has no layers", ref.registry, ref.repo)
	}
	layer := manifest.Layers[0]

	body, err := f.getOCIBlob(ctx, ref, layer.Digest)
	if err != nil {
		return nil, model.NewError(model.KindFetch, err)
	}
	defer body.Close()

	tempDir, err := f.newScratchDir("oci-*")
	if err != nil {
		return nil, err
	}

	ext := ".wasm"
	if strings.Contains(layer.MediaType, "yaml") {
		ext = ".yaml"
	}
	sanitizedRepo := sanitizeForFilename(ref.registry + "/" + ref.repo)
	path := tempDir + string(os.PathSeparator) + sanitizedRepo + ext

	out, err := os.Create(path)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}
	if err := out.Close(); err != nil {
		os.RemoveAll(tempDir)
		return nil, model.NewError(model.KindFetch, err)
	}

	return NewTemp(tempDir, path), nil
}

func (f *Fetcher) getOCIManifest(ctx context.Context, ref ociRef) (*ociManifest, error) {
	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", ref.registry, ref.repo, ref.reference())
	resp, err := f.doOCIRequest(ctx, url, ociManifestAccept, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("manifest fetch for %s failed: %d: %s", url, resp.StatusCode, body)
	}

	var m ociManifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding OCI manifest: %w", err)
	}
	return &m, nil
}

func (f *Fetcher) getOCIBlob(ctx context.Context, ref ociRef, digest string) (io.ReadCloser, error) {
	url := fmt.Sprintf("https://%s/v2/%s/blobs/%s", ref.registry, ref.repo, digest)
	resp, err := f.doOCIRequest(ctx, url, "*/*", ref)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("blob fetch for %s failed: %d: %s", url, resp.StatusCode, body)
	}
	return resp.Body, nil
}

// doOCIRequest issues req, transparently completing an anonymous bearer
// token challenge (WWW-Authenticate: Bearer realm=...) the way public
// registries commonly require even for unauthenticated pulls.
func (f *Fetcher) doOCIRequest(ctx context.Context, url, accept string, ref ociRef) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	challenge := resp.Header.Get("WWW-Authenticate")
	resp.Body.Close()
	token, terr := f.anonymousBearerToken(ctx, challenge)
	if terr != nil {
		return nil, fmt.Errorf("OCI auth challenge for %s: %w", ref.registry, terr)
	}

	req2, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req2.Header.Set("Accept", accept)
	req2.Header.Set("Authorization", "Bearer "+token)
	return f.httpClient.Do(req2)
}

func (f *Fetcher) anonymousBearerToken(ctx context.Context, challenge string) (string, error) {
	m := wwwAuthBearer.FindStringSubmatch(challenge)
	if m == nil {
		return "", model.NewError(model.KindInvalidInput, constants.ErrUnsupportedScheme)
	}
	realm, service, scope := m[1], m[2], m[3]

	tokenURL := realm
	q := "?"
	if service != "" {
		tokenURL += q + "service=" + service
		q = "&"
	}
	if scope != "" {
		tokenURL += q + "scope=" + scope
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token endpoint %s returned %d", tokenURL, resp.StatusCode)
	}

	var payload struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Token != "" {
		return payload.Token, nil
	}
	return payload.AccessToken, nil
}
