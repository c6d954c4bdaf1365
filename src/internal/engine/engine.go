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

// Package engine declares the narrow interfaces the core consumes from the
// WebAssembly execution engine: compilation, sandbox instantiation, and
// invocation. No concrete engine implementation lives in this repository;
// the runtime is an external collaborator wired in by the operator.
// internal/engine/fake.go supplies an in-memory stand-in so
// internal/lifecycle and internal/invoker can be exercised by tests.
package engine

import (
	"context"

	"componenthost/src/internal/model"
)

// ComponentEngine compiles raw component bytes and instantiates compiled
// components inside a sandbox built from a SandboxTemplate.
type ComponentEngine interface {
	// Compile validates and compiles component bytes read from localPath.
	// Compile failures map to KindCompile.
	Compile(ctx context.Context, localPath string, bytes []byte) (CompiledComponent, error)

	// Instantiate builds a fresh sandbox from template and instantiates
	// component inside it. Each call owns an independent sandbox instance.
	Instantiate(ctx context.Context, component CompiledComponent, template model.SandboxTemplate) (Instance, error)
}

// CompiledComponent is an opaque compiled component handle plus its
// exported-function tree, as reported by the engine.
type CompiledComponent interface {
	// Exports describes the component's export tree for schema generation
	// and export resolution.
	Exports() []ExportNode
}

// ExportNode mirrors valuebridge.ComponentExport at the engine boundary: a
// leaf function, or a nested instance/component export.
type ExportNode struct {
	Name     string
	Function *model.FunctionSignature
	Nested   []ExportNode
}

// Instance is a single per-call sandbox instantiation of a compiled
// component. It is owned by the invoking task and discarded at the end of
// the call; cancellation simply drops it.
type Instance interface {
	// Call invokes the named function (already resolved to its signature)
	// with materialized arguments, and returns the unconverted engine
	// results. Runtime failures map to KindRuntime.
	Call(ctx context.Context, fn model.FunctionSignature, args []model.Value) ([]model.Value, error)

	// Close releases any resources the instance holds. Safe to call more
	// than once.
	Close() error
}
