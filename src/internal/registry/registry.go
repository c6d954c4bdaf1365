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

// Package registry implements the Component Registry: a
// tool_name -> {component_id, schema} index and its reverse, component_id ->
// tool names. Both indexes sit behind a single multi-reader/single-writer
// lock so registration and unregistration are atomic with respect to
// concurrent readers.
package registry

import (
	"sort"
	"strings"
	"sync"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

// Registry is safe for concurrent use. Read locks are held only for the
// duration of a lookup; callers never hold the lock across engine
// invocations.
type Registry struct {
	mu sync.RWMutex

	// tools maps tool_name -> ordered list of contributing {component_id, schema}.
	tools map[string][]model.ToolInfo

	// reverse maps component_id -> tool names it currently contributes.
	reverse map[string][]string
}

func New() *Registry {
	return &Registry{
		tools:   make(map[string][]model.ToolInfo),
		reverse: make(map[string][]string),
	}
}

// Register indexes every tool in schema under componentID. The caller must
// have already called Unregister(componentID) if replacing an existing
// component's schema.
func (r *Registry) Register(componentID string, schema model.FunctionSchemaSet) error {
	if schema.Tools == nil {
		return model.Errorf(model.KindInvalidInput, "schema for component %q has no tools array", componentID)
	}
	for _, tool := range schema.Tools {
		if tool.Name == "" {
			return model.Errorf(model.KindInvalidInput, "tool schema for component %q has an empty name", componentID)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(schema.Tools))
	for _, tool := range schema.Tools {
		r.tools[tool.Name] = append(r.tools[tool.Name], model.ToolInfo{ComponentID: componentID, Schema: tool})
		names = append(names, tool.Name)
	}
	r.reverse[componentID] = names
	return nil
}

// Unregister removes every tool componentID contributed. Safe to call on a
// component with no registered tools.
func (r *Registry) Unregister(componentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(componentID)
}

func (r *Registry) unregisterLocked(componentID string) {
	names, ok := r.reverse[componentID]
	if !ok {
		return
	}
	for _, name := range names {
		bucket := r.tools[name]
		filtered := bucket[:0]
		for _, info := range bucket {
			if info.ComponentID != componentID {
				filtered = append(filtered, info)
			}
		}
		if len(filtered) == 0 {
			delete(r.tools, name)
		} else {
			r.tools[name] = filtered
		}
	}
	delete(r.reverse, componentID)
}

// ToolInfo returns the bucket of contributors for name, or ErrToolNotFound.
func (r *Registry) ToolInfo(name string) ([]model.ToolInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket, ok := r.tools[name]
	if !ok || len(bucket) == 0 {
		return nil, model.NewError(model.KindNotFound, constants.ErrToolNotFound)
	}
	out := make([]model.ToolInfo, len(bucket))
	copy(out, bucket)
	return out, nil
}

// ListTools enumerates every tool schema across every component, flattened,
// with no deduplication.
func (r *Registry) ListTools() []model.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []model.ToolSchema
	for _, name := range names {
		for _, info := range r.tools[name] {
			out = append(out, info.Schema)
		}
	}
	return out
}

// ComponentIDForTool resolves the unique owner of a tool name, or fails with
// an Ambiguous error listing every candidate when more than one component
// contributes it.
func (r *Registry) ComponentIDForTool(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, ok := r.tools[name]
	if !ok || len(bucket) == 0 {
		return "", model.NewError(model.KindNotFound, constants.ErrToolNotFound)
	}
	if len(bucket) == 1 {
		return bucket[0].ComponentID, nil
	}

	ids := make([]string, len(bucket))
	for i, info := range bucket {
		ids[i] = info.ComponentID
	}
	return "", model.Errorf(model.KindAmbiguous, "multiple components found for tool '%s': %s", name, strings.Join(ids, ", "))
}

// ToolNamesFor returns the tool names componentID currently contributes, for
// restart-recovery invariant checks and diagnostics.
func (r *Registry) ToolNamesFor(componentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.reverse[componentID]
	out := make([]string, len(names))
	copy(out, names)
	return out
}
