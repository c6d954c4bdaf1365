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

package policystore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/fetch"
	"componenthost/src/internal/model"
)

// Store owns the in-memory policy registry (component_id -> PolicyInfo) and
// the on-disk sidecars it is built from. Component existence is verified by
// the caller (the Lifecycle Manager owns the component map); Store itself
// only ever answers "do I have a policy for this id".
type Store struct {
	mu        sync.RWMutex
	policies  map[string]model.PolicyInfo
	pluginDir string
	fetcher   *fetch.Fetcher
	defaults  model.SandboxDefaults
}

func New(pluginDir string, fetcher *fetch.Fetcher, defaults model.SandboxDefaults) *Store {
	return &Store{
		policies:  make(map[string]model.PolicyInfo),
		pluginDir: pluginDir,
		fetcher:   fetcher,
		defaults:  defaults,
	}
}

func (s *Store) sidecarPaths(componentID string) (policyPath, metaPath string) {
	return filepath.Join(s.pluginDir, componentID+".policy.yaml"),
		filepath.Join(s.pluginDir, componentID+".policy.meta.json")
}

// Get returns the policy-registry entry for componentID, or ErrPolicyNotFound.
func (s *Store) Get(componentID string) (model.PolicyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.policies[componentID]
	if !ok {
		return model.PolicyInfo{}, model.NewError(model.KindNotFound, constants.ErrPolicyNotFound)
	}
	return info, nil
}

// TemplateFor returns the current sandbox template for componentID, falling
// back to DefaultTemplate when no policy is attached.
func (s *Store) TemplateFor(componentID string) model.SandboxTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.policies[componentID]; ok {
		return info.Template
	}
	return DefaultTemplate(s.defaults)
}

// Attach fetches policyURI, parses it, copies it into the plugin directory
// alongside a provenance sidecar, builds a fresh template, and installs the
// new policy-registry entry.
// The caller must have already verified componentID exists.
func (s *Store) Attach(ctx context.Context, componentID, policyURI string) (model.PolicyInfo, error) {
	handle, err := s.fetcher.Fetch(ctx, policyURI, false)
	if err != nil {
		return model.PolicyInfo{}, err
	}
	defer handle.Cleanup()

	raw, err := os.ReadFile(handle.Path())
	if err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindFetch, err)
	}

	var doc model.PolicyDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindParse, fmt.Errorf("%w: %v", constants.ErrPolicyParseFailed, err))
	}

	policyPath, metaPath := s.sidecarPaths(componentID)
	if err := os.MkdirAll(s.pluginDir, 0o755); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}
	if _, err := handle.CopyTo(s.pluginDir, componentID+".policy.yaml"); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}

	meta := model.PolicyMeta{SourceURI: policyURI, AttachedAt: time.Now().Unix()}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}

	info := model.PolicyInfo{
		ComponentID: componentID,
		Document:    doc,
		Meta:        meta,
		LocalPath:   policyPath,
		Template:    BuildTemplate(doc, s.pluginDir, s.defaults),
	}

	s.mu.Lock()
	s.policies[componentID] = info
	s.mu.Unlock()

	return info, nil
}

// Detach removes the in-memory entry and deletes both sidecars if present.
// Never fails if the component has no policy.
func (s *Store) Detach(componentID string) error {
	s.mu.Lock()
	delete(s.policies, componentID)
	s.mu.Unlock()

	policyPath, metaPath := s.sidecarPaths(componentID)
	if _, err := os.Stat(policyPath); err == nil {
		if err := os.Remove(policyPath); err != nil {
			return model.NewError(model.KindInternal, err)
		}
	}
	if _, err := os.Stat(metaPath); err == nil {
		if err := os.Remove(metaPath); err != nil {
			return model.NewError(model.KindInternal, err)
		}
	}
	return nil
}

// NetworkGrant is the parsed form of a "network" GrantPermission request.
type NetworkGrant struct {
	Host string
}

// StorageGrant is the parsed form of a "storage" GrantPermission request.
type StorageGrant struct {
	URI    string
	Access []string
}

// ParseGrantDetails validates and extracts a grant request's details.
func ParseGrantDetails(permissionType string, details map[string]any) (any, error) {
	switch permissionType {
	case "network":
		host, _ := details["host"].(string)
		if host == "" {
			return nil, model.NewError(model.KindInvalidInput, constants.ErrEmptyHost)
		}
		return NetworkGrant{Host: host}, nil
	case "storage":
		uri, _ := details["uri"].(string)
		if uri == "" {
			return nil, model.NewError(model.KindInvalidInput, constants.ErrEmptyURI)
		}
		rawAccess, _ := details["access"].([]any)
		if len(rawAccess) == 0 {
			return nil, model.NewError(model.KindInvalidInput, constants.ErrEmptyAccess)
		}
		access := make([]string, 0, len(rawAccess))
		for _, a := range rawAccess {
			s, ok := a.(string)
			if !ok || (s != "read" && s != "write") {
				return nil, model.NewError(model.KindInvalidInput, constants.ErrInvalidAccess)
			}
			access = append(access, s)
		}
		return StorageGrant{URI: uri, Access: access}, nil
	default:
		return nil, model.NewError(model.KindInvalidInput, constants.ErrInvalidPermission)
	}
}

// Grant merges a validated grant into componentID's policy sidecar (creating
// a minimal one if none exists) and rebuilds its template. The caller must
// have already verified componentID exists and parsed details into grant via
// ParseGrantDetails.
func (s *Store) Grant(componentID string, grant any) (model.PolicyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, exists := s.policies[componentID]
	doc := info.Document
	if !exists {
		doc = model.PolicyDocument{Version: "1.0"}
	}

	switch g := grant.(type) {
	case NetworkGrant:
		mergeNetworkGrant(&doc, g)
	case StorageGrant:
		mergeStorageGrant(&doc, g)
	default:
		return model.PolicyInfo{}, model.Errorf(model.KindInternal, "unknown grant type %T", grant)
	}

	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}
	policyPath, metaPath := s.sidecarPaths(componentID)
	if err := os.MkdirAll(s.pluginDir, 0o755); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}
	if err := os.WriteFile(policyPath, raw, 0o644); err != nil {
		return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
	}

	meta := info.Meta
	if !exists {
		meta = model.PolicyMeta{SourceURI: "grant://" + componentID, AttachedAt: time.Now().Unix()}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
		}
		if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
			return model.PolicyInfo{}, model.NewError(model.KindInternal, err)
		}
	}

	updated := model.PolicyInfo{
		ComponentID: componentID,
		Document:    doc,
		Meta:        meta,
		LocalPath:   policyPath,
		Template:    BuildTemplate(doc, s.pluginDir, s.defaults),
	}
	s.policies[componentID] = updated
	return updated, nil
}

func mergeNetworkGrant(doc *model.PolicyDocument, g NetworkGrant) {
	if doc.Permissions.Network == nil {
		doc.Permissions.Network = &model.NetworkPermissions{}
	}
	for _, existing := range doc.Permissions.Network.Allow {
		if existing.Host == g.Host {
			return
		}
	}
	doc.Permissions.Network.Allow = append(doc.Permissions.Network.Allow, model.NetworkAllow{Host: g.Host})
}

func mergeStorageGrant(doc *model.PolicyDocument, g StorageGrant) {
	if doc.Permissions.Storage == nil {
		doc.Permissions.Storage = &model.StoragePermissions{}
	}
	for i, existing := range doc.Permissions.Storage.Allow {
		if existing.URI == g.URI {
			doc.Permissions.Storage.Allow[i].Access = unionAccess(existing.Access, g.Access)
			return
		}
	}
	doc.Permissions.Storage.Allow = append(doc.Permissions.Storage.Allow, model.StorageAllow{URI: g.URI, Access: g.Access})
}

func unionAccess(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// LoadFromDisk reads <pluginDir>/<componentID>.policy.yaml and its meta
// sidecar if present, installs the resulting entry in the policy registry,
// and returns it. Used by restart recovery: a parse failure here is reported
// to the caller but is not fatal for the server, which degrades that
// component to the default template.
func (s *Store) LoadFromDisk(componentID string) (model.PolicyInfo, bool, error) {
	policyPath, metaPath := s.sidecarPaths(componentID)
	raw, err := os.ReadFile(policyPath)
	if os.IsNotExist(err) {
		return model.PolicyInfo{}, false, nil
	}
	if err != nil {
		return model.PolicyInfo{}, true, model.NewError(model.KindFetch, err)
	}

	var doc model.PolicyDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return model.PolicyInfo{}, true, model.NewError(model.KindParse, fmt.Errorf("%w: %v", constants.ErrPolicyParseFailed, err))
	}

	var meta model.PolicyMeta
	if metaRaw, err := os.ReadFile(metaPath); err == nil {
		_ = json.Unmarshal(metaRaw, &meta)
	}

	info := model.PolicyInfo{
		ComponentID: componentID,
		Document:    doc,
		Meta:        meta,
		LocalPath:   policyPath,
		Template:    BuildTemplate(doc, s.pluginDir, s.defaults),
	}

	s.mu.Lock()
	s.policies[componentID] = info
	s.mu.Unlock()

	return info, true, nil
}

