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

package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"componenthost/src/internal/engine"
	"componenthost/src/internal/fetch"
	"componenthost/src/internal/model"
	"componenthost/src/internal/policystore"
	"componenthost/src/internal/registry"
)

func echoSignature() model.FunctionSignature {
	return model.FunctionSignature{
		Name:    "echo",
		Params:  []model.WitField{{Name: "s", Type: model.WitType{Kind: model.KindString}}},
		Results: []model.WitType{{Kind: model.KindString}},
	}
}

func writeWasmFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake-wasm-bytes"), 0o644); err != nil {
		t.Fatalf("write wasm file: %v", err)
	}
	return path
}

func newTestManager(t *testing.T) (*Manager, *engine.FakeEngine, string) {
	t.Helper()
	pluginDir := t.TempDir()
	eng := engine.NewFakeEngine()
	fetcher := fetch.NewFetcher(filepath.Join(pluginDir, "downloads"), nil)
	reg := registry.New()
	policies := policystore.New(pluginDir, fetcher, model.DefaultSandboxDefaults())
	return New(pluginDir, eng, fetcher, reg, policies), eng, pluginDir
}

func TestLoadAndExecuteRoundTrip(t *testing.T) {
	mgr, eng, _ := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "echo.wasm")

	sig := echoSignature()
	component := engine.NewFakeComponent(
		[]engine.ExportNode{{Name: "echo", Function: &sig}},
		map[string]engine.FakeCall{
			"echo": func(ctx context.Context, args []model.Value) ([]model.Value, error) {
				return []model.Value{args[0]}, nil
			},
		},
	)
	eng.Register(wasmPath, component)

	id, outcome, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if id != "echo" {
		t.Fatalf("want component id echo, got %s", id)
	}
	if outcome != model.LoadNew {
		t.Fatalf("want LoadNew, got %v", outcome)
	}

	tools := mgr.ListTools()
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("expected echo tool registered, got %+v", tools)
	}

	out, err := mgr.Execute(context.Background(), "echo", "echo", map[string]any{"s": "hi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hi" {
		t.Fatalf("want hi, got %v", out)
	}
}

func TestLoadReplaceReportsReplacedOutcome(t *testing.T) {
	mgr, eng, _ := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "echo.wasm")

	sig := echoSignature()
	component := engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil)
	eng.Register(wasmPath, component)

	if _, outcome, err := mgr.Load(context.Background(), "file://"+wasmPath); err != nil || outcome != model.LoadNew {
		t.Fatalf("first load: outcome=%v err=%v", outcome, err)
	}

	// Re-register the same path (the fetcher's Local handle re-copies it).
	eng.Register(wasmPath, component)
	_, outcome, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if outcome != model.LoadReplaced {
		t.Fatalf("want LoadReplaced, got %v", outcome)
	}
}

func TestUnloadRemovesFromMemoryNotDisk(t *testing.T) {
	mgr, eng, pluginDir := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "echo.wasm")
	sig := echoSignature()
	eng.Register(wasmPath, engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil))

	id, _, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := mgr.Unload(id); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if _, err := mgr.Execute(context.Background(), id, "echo", nil); model.KindOf(err) != model.KindNotFound {
		t.Fatalf("expected NotFound after unload, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(pluginDir, "echo.wasm")); err != nil {
		t.Fatalf("expected wasm file to remain on disk: %v", err)
	}
}

func TestUninstallRemovesFromDisk(t *testing.T) {
	mgr, eng, pluginDir := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "echo.wasm")
	sig := echoSignature()
	eng.Register(wasmPath, engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil))

	id, _, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := mgr.Uninstall(id); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if _, err := os.Stat(filepath.Join(pluginDir, "echo.wasm")); !os.IsNotExist(err) {
		t.Fatalf("expected wasm file removed, stat err = %v", err)
	}
}

func TestAmbiguousToolAcrossTwoComponents(t *testing.T) {
	mgr, eng, _ := newTestManager(t)
	srcDir := t.TempDir()

	runSig := model.FunctionSignature{Name: "run", Results: []model.WitType{{Kind: model.KindString}}}

	pathA := writeWasmFile(t, srcDir, "a.wasm")
	eng.Register(pathA, engine.NewFakeComponent([]engine.ExportNode{{Name: "run", Function: &runSig}}, map[string]engine.FakeCall{
		"run": func(ctx context.Context, args []model.Value) ([]model.Value, error) {
			return []model.Value{model.StringValue("from-a")}, nil
		},
	}))
	pathB := writeWasmFile(t, srcDir, "b.wasm")
	eng.Register(pathB, engine.NewFakeComponent([]engine.ExportNode{{Name: "run", Function: &runSig}}, map[string]engine.FakeCall{
		"run": func(ctx context.Context, args []model.Value) ([]model.Value, error) {
			return []model.Value{model.StringValue("from-b")}, nil
		},
	}))

	if _, _, err := mgr.Load(context.Background(), "file://"+pathA); err != nil {
		t.Fatalf("load a: %v", err)
	}
	if _, _, err := mgr.Load(context.Background(), "file://"+pathB); err != nil {
		t.Fatalf("load b: %v", err)
	}

	_, err := mgr.ExecuteByToolName(context.Background(), "run", nil)
	if model.KindOf(err) != model.KindAmbiguous {
		t.Fatalf("want KindAmbiguous, got %v", err)
	}

	out, err := mgr.Execute(context.Background(), "a", "run", nil)
	if err != nil {
		t.Fatalf("scoped execute: %v", err)
	}
	if out != "from-a" {
		t.Fatalf("want from-a, got %v", out)
	}
}

func TestComponentSchemaReturnsGeneratedSchema(t *testing.T) {
	mgr, eng, _ := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "echo.wasm")
	sig := echoSignature()
	eng.Register(wasmPath, engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil))

	id, _, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	schema, err := mgr.ComponentSchema(id)
	if err != nil {
		t.Fatalf("component schema: %v", err)
	}
	if len(schema.Tools) != 1 || schema.Tools[0].Name != "echo" {
		t.Fatalf("want single echo tool schema, got %+v", schema.Tools)
	}

	if _, err := mgr.ComponentSchema("no-such-component"); model.KindOf(err) != model.KindNotFound {
		t.Fatalf("want NotFound for unknown component, got %v", err)
	}
}

func TestRestoreWipesDownloadScratch(t *testing.T) {
	pluginDir := t.TempDir()
	downloads := filepath.Join(pluginDir, "downloads")
	if err := os.MkdirAll(downloads, 0o755); err != nil {
		t.Fatalf("mkdir downloads: %v", err)
	}
	stale := filepath.Join(downloads, "half-fetched.wasm")
	if err := os.WriteFile(stale, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write stale download: %v", err)
	}

	eng := engine.NewFakeEngine()
	fetcher := fetch.NewFetcher(downloads, nil)
	mgr := New(pluginDir, eng, fetcher, registry.New(), policystore.New(pluginDir, fetcher, model.DefaultSandboxDefaults()))
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale download wiped, stat err = %v", err)
	}
}

func TestRestoreReconstructsComponentsAndPolicies(t *testing.T) {
	pluginDir := t.TempDir()
	eng := engine.NewFakeEngine()
	fetcher := fetch.NewFetcher(filepath.Join(pluginDir, "downloads"), nil)
	reg := registry.New()
	policies := policystore.New(pluginDir, fetcher, model.DefaultSandboxDefaults())

	wasmPath := writeWasmFile(t, pluginDir, "x.wasm")
	if err := os.WriteFile(filepath.Join(pluginDir, "x.policy.yaml"), []byte(`
version: "1.0"
permissions:
  network:
    allow:
      - host: example.com
`), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	sig := echoSignature()
	eng.Register(wasmPath, engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil))

	mgr := New(pluginDir, eng, fetcher, reg, policies)
	if err := mgr.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	components := mgr.ListComponents()
	if len(components) != 1 || components[0] != "x" {
		t.Fatalf("want [x], got %v", components)
	}

	info, err := mgr.GetPolicy("x")
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if filepath.Base(info.LocalPath) != "x.policy.yaml" {
		t.Fatalf("want local_path basename x.policy.yaml, got %s", info.LocalPath)
	}
	if !info.Template.Network.AllowTCP {
		t.Fatalf("expected restored template to allow network")
	}
}

func TestAttachDetachPolicyThroughManager(t *testing.T) {
	mgr, eng, _ := newTestManager(t)
	srcDir := t.TempDir()
	wasmPath := writeWasmFile(t, srcDir, "a.wasm")
	sig := echoSignature()
	eng.Register(wasmPath, engine.NewFakeComponent([]engine.ExportNode{{Name: "echo", Function: &sig}}, nil))

	id, _, err := mgr.Load(context.Background(), "file://"+wasmPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	policyPath := filepath.Join(srcDir, "p.yaml")
	if err := os.WriteFile(policyPath, []byte(`version: "1.0"`), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	info, err := mgr.AttachPolicy(context.Background(), id, "file://"+policyPath)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if info.Meta.SourceURI != "file://"+policyPath {
		t.Fatalf("unexpected source uri %s", info.Meta.SourceURI)
	}

	if err := mgr.DetachPolicy(id); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if _, err := mgr.GetPolicy(id); model.KindOf(err) != model.KindNotFound {
		t.Fatalf("want NotFound after detach, got %v", err)
	}

	if _, err := mgr.AttachPolicy(context.Background(), "no-such-component", "file://"+policyPath); model.KindOf(err) != model.KindNotFound {
		t.Fatalf("want NotFound for unknown component, got %v", err)
	}
}
