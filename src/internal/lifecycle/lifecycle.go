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

// Package lifecycle implements the Lifecycle Manager: the orchestrator
// owning the component map, the Component Registry, the Policy Store, and
// the engine handle, driving load/unload/uninstall, policy mutation, and
// per-call execution.
package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/engine"
	"componenthost/src/internal/fetch"
	"componenthost/src/internal/invoker"
	"componenthost/src/internal/model"
	"componenthost/src/internal/policystore"
	"componenthost/src/internal/registry"
	"componenthost/src/internal/utils"
	"componenthost/src/internal/valuebridge"
)

// loadedComponent pairs a compiled component with the exports it advertised,
// so Execute does not need to ask the engine for its export tree again.
type loadedComponent struct {
	compiled engine.CompiledComponent
	exports  []engine.ExportNode
}

// Manager owns the plugin directory and all sidecars exclusively; it shares
// the engine handle and the registry/policy tables with concurrent readers
// through their own internal locking. Locks are
// always acquired component-map -> registry -> policy-registry and never
// held across engine invocations or network I/O.
type Manager struct {
	mu         sync.RWMutex
	components map[string]*loadedComponent

	pluginDir string
	eng       engine.ComponentEngine
	fetcher   *fetch.Fetcher
	reg       *registry.Registry
	policies  *policystore.Store
}

// New builds a Manager pointed at pluginDir. The caller is responsible for
// calling Restore to reconstruct state from an existing plugin directory.
func New(pluginDir string, eng engine.ComponentEngine, fetcher *fetch.Fetcher, reg *registry.Registry, policies *policystore.Store) *Manager {
	return &Manager{
		components: make(map[string]*loadedComponent),
		pluginDir:  pluginDir,
		eng:        eng,
		fetcher:    fetcher,
		reg:        reg,
		policies:   policies,
	}
}

func componentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load fetches uri, compiles it, generates its tool schema, installs it into
// the registry, persists it into the plugin directory, and finally installs
// the compiled component into the component map.
func (m *Manager) Load(ctx context.Context, uri string) (string, model.LoadOutcome, error) {
	handle, err := m.fetcher.Fetch(ctx, uri, true)
	if err != nil {
		return "", 0, err
	}
	defer handle.Cleanup()

	data, err := os.ReadFile(handle.Path())
	if err != nil {
		return "", 0, model.NewError(model.KindFetch, err)
	}

	compiled, err := m.eng.Compile(ctx, handle.Path(), data)
	if err != nil {
		return "", 0, model.NewError(model.KindCompile, err)
	}

	componentID := componentIDFromPath(handle.Path())
	exports := compiled.Exports()
	schema := valuebridge.ComponentExportsToSchema(toComponentExports(exports))

	// Registry update strictly precedes insertion into the component map:
	// a racing tool-call sees either the old schema+component or the new
	// pair, never a mix.
	m.reg.Unregister(componentID)
	if err := m.reg.Register(componentID, schema); err != nil {
		return "", 0, err
	}

	if _, err := handle.CopyTo(m.pluginDir, componentID+".wasm"); err != nil {
		// File persistence failed: roll the registry back before returning,
		// leaving the in-memory component map untouched.
		m.reg.Unregister(componentID)
		return "", 0, model.NewError(model.KindInternal, constants.ErrPersistFailed)
	}

	m.mu.Lock()
	_, existed := m.components[componentID]
	m.components[componentID] = &loadedComponent{compiled: compiled, exports: exports}
	m.mu.Unlock()

	outcome := model.LoadNew
	if existed {
		outcome = model.LoadReplaced
	}
	return componentID, outcome, nil
}

// Unload removes componentID from the in-memory component map and the
// registry. Disk state (the .wasm file and any policy sidecars) is left
// untouched.
func (m *Manager) Unload(componentID string) error {
	m.mu.Lock()
	if _, ok := m.components[componentID]; !ok {
		m.mu.Unlock()
		return model.NewError(model.KindNotFound, constants.ErrComponentNotFound)
	}
	delete(m.components, componentID)
	m.mu.Unlock()

	m.reg.Unregister(componentID)
	return nil
}

// Uninstall unloads componentID and deletes its <id>.wasm file.
func (m *Manager) Uninstall(componentID string) error {
	if err := m.Unload(componentID); err != nil {
		return err
	}
	path := filepath.Join(m.pluginDir, componentID+".wasm")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return model.NewError(model.KindInternal, err)
	}
	return nil
}

// ListComponents returns every currently loaded component id.
func (m *Manager) ListComponents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.components))
	for id := range m.components {
		out = append(out, id)
	}
	return out
}

func (m *Manager) lookup(componentID string) (*loadedComponent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lc, ok := m.components[componentID]
	if !ok {
		return nil, model.NewError(model.KindNotFound, constants.ErrComponentNotFound)
	}
	return lc, nil
}

// Execute resolves functionName against componentID's exports, materializes
// argsJSON, builds a fresh per-call sandbox from the component's current
// template, invokes the function, and serializes the result. A single-string
// result is returned as-is; anything else is returned as its serialized JSON
// form.
func (m *Manager) Execute(ctx context.Context, componentID, functionName string, argsJSON any) (any, error) {
	lc, err := m.lookup(componentID)
	if err != nil {
		return nil, err
	}

	template := m.policies.TemplateFor(componentID)

	inst, err := m.eng.Instantiate(ctx, lc.compiled, template)
	if err != nil {
		return nil, model.NewError(model.KindRuntime, err)
	}
	defer inst.Close()

	result, err := invoker.Invoke(ctx, inst, lc.exports, functionName, argsJSON)
	if err != nil {
		return nil, err
	}
	if s, ok := result.(string); ok {
		return s, nil
	}
	return result, nil
}

// ExecuteByToolName resolves toolName to its unique owning component through
// the registry and executes it there, surfacing an Ambiguous error when more
// than one component exports the same tool name. Callers that already know
// the component id should call Execute.
func (m *Manager) ExecuteByToolName(ctx context.Context, toolName string, argsJSON any) (any, error) {
	componentID, err := m.reg.ComponentIDForTool(toolName)
	if err != nil {
		return nil, err
	}
	return m.Execute(ctx, componentID, toolName, argsJSON)
}

// AttachPolicy verifies componentID exists and delegates to the Policy Store.
func (m *Manager) AttachPolicy(ctx context.Context, componentID, policyURI string) (model.PolicyInfo, error) {
	if _, err := m.lookup(componentID); err != nil {
		return model.PolicyInfo{}, err
	}
	return m.policies.Attach(ctx, componentID, policyURI)
}

// DetachPolicy delegates to the Policy Store; it does not require componentID
// to currently be loaded, honoring the "never fails if the component
// has no policy" rule for the no-policy case.
func (m *Manager) DetachPolicy(componentID string) error {
	return m.policies.Detach(componentID)
}

// GrantPermission verifies componentID exists, validates details, and
// delegates the merge to the Policy Store.
func (m *Manager) GrantPermission(componentID, permissionType string, details map[string]any) (model.PolicyInfo, error) {
	if _, err := m.lookup(componentID); err != nil {
		return model.PolicyInfo{}, err
	}
	grant, err := policystore.ParseGrantDetails(permissionType, details)
	if err != nil {
		return model.PolicyInfo{}, err
	}
	return m.policies.Grant(componentID, grant)
}

// GetPolicy returns the current policy-registry entry for componentID.
func (m *Manager) GetPolicy(componentID string) (model.PolicyInfo, error) {
	return m.policies.Get(componentID)
}

// ComponentSchema returns the full generated schema document for a single
// loaded component, for introspection tooling alongside get-policy.
func (m *Manager) ComponentSchema(componentID string) (model.FunctionSchemaSet, error) {
	lc, err := m.lookup(componentID)
	if err != nil {
		return model.FunctionSchemaSet{}, err
	}
	return valuebridge.ComponentExportsToSchema(toComponentExports(lc.exports)), nil
}

// ListTools proxies to the registry.
func (m *Manager) ListTools() []model.ToolSchema {
	return m.reg.ListTools()
}

// ToolInfo proxies to the registry, returning every component that
// contributes toolName along with the schema it advertised. Used by the
// control API to validate a call-tool request's arguments against the
// schema of the specific component the call will be dispatched to.
func (m *Manager) ToolInfo(toolName string) ([]model.ToolInfo, error) {
	return m.reg.ToolInfo(toolName)
}

// Restore scans the plugin directory at startup: it compiles every .wasm,
// registers each in the Component Registry, and for each component whose
// sidecar exists, rebuilds and installs its template. A policy parse failure
// is logged and that component continues with the default template; it is
// never startup-fatal.
func (m *Manager) Restore(ctx context.Context) error {
	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.NewError(model.KindInternal, err)
	}

	// downloads/ only ever holds in-flight download scratch; anything left in
	// it belongs to a fetch that died mid-transfer.
	if err := os.RemoveAll(filepath.Join(m.pluginDir, "downloads")); err != nil {
		utils.LogWarn("restore: failed to wipe downloads scratch", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wasm" {
			continue
		}
		path := filepath.Join(m.pluginDir, entry.Name())
		componentID := componentIDFromPath(path)

		data, err := os.ReadFile(path)
		if err != nil {
			utils.LogWarn("restore: failed to read "+path, err)
			continue
		}
		compiled, err := m.eng.Compile(ctx, path, data)
		if err != nil {
			utils.LogWarn("restore: failed to compile "+path, err)
			continue
		}

		exports := compiled.Exports()
		schema := valuebridge.ComponentExportsToSchema(toComponentExports(exports))
		m.reg.Unregister(componentID)
		if err := m.reg.Register(componentID, schema); err != nil {
			utils.LogWarn("restore: failed to register "+componentID, err)
			continue
		}

		m.mu.Lock()
		m.components[componentID] = &loadedComponent{compiled: compiled, exports: exports}
		m.mu.Unlock()

		utils.LogComponentEvent(componentID, "restored from disk")

		if _, found, err := m.policies.LoadFromDisk(componentID); err != nil {
			utils.LogWarn("restore: unparseable policy for "+componentID+", using default template", err)
		} else if !found {
			continue
		}
	}
	return nil
}

// toComponentExports adapts the engine's export-tree shape to the Value
// Bridge's ComponentExport shape; the two packages intentionally declare
// identical but independent types so neither depends on the other.
func toComponentExports(nodes []engine.ExportNode) []valuebridge.ComponentExport {
	out := make([]valuebridge.ComponentExport, len(nodes))
	for i, n := range nodes {
		out[i] = valuebridge.ComponentExport{
			Name:     n.Name,
			Function: n.Function,
			Nested:   toComponentExports(n.Nested),
		}
	}
	return out
}
