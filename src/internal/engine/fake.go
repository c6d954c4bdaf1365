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

package engine

import (
	"context"
	"sync"

	"componenthost/src/internal/model"
)

// FakeCall is the behavior a FakeComponent runs when a function is invoked.
type FakeCall func(ctx context.Context, args []model.Value) ([]model.Value, error)

// FakeComponent is a CompiledComponent whose export tree and call behavior
// are supplied directly by the test, standing in for a real compiled
// component.
type FakeComponent struct {
	exports []ExportNode
	calls   map[string]FakeCall
}

// NewFakeComponent builds a fake component from its export tree. calls maps
// the FunctionSignature.Name passed to Call (the leaf function's own name,
// or the dotted tool name when the signature's Name is empty) to the
// behavior invoked for that function.
func NewFakeComponent(exports []ExportNode, calls map[string]FakeCall) *FakeComponent {
	return &FakeComponent{exports: exports, calls: calls}
}

func (c *FakeComponent) Exports() []ExportNode { return c.exports }

// FakeEngine is an in-memory ComponentEngine: Compile returns whatever
// CompiledComponent was pre-registered for a given localPath, and
// Instantiate returns a FakeInstance bound to it. Used by
// internal/lifecycle and internal/invoker tests.
type FakeEngine struct {
	mu         sync.Mutex
	components map[string]*FakeComponent
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{components: make(map[string]*FakeComponent)}
}

// Register associates localPath with component so a subsequent Compile call
// for that path returns it.
func (e *FakeEngine) Register(localPath string, component *FakeComponent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.components[localPath] = component
}

func (e *FakeEngine) Compile(ctx context.Context, localPath string, data []byte) (CompiledComponent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.components[localPath]
	if !ok {
		return nil, model.Errorf(model.KindCompile, "fake engine: no component registered for %s", localPath)
	}
	return c, nil
}

func (e *FakeEngine) Instantiate(ctx context.Context, component CompiledComponent, template model.SandboxTemplate) (Instance, error) {
	fc, ok := component.(*FakeComponent)
	if !ok {
		return nil, model.Errorf(model.KindInternal, "fake engine: unexpected component type %T", component)
	}
	return &FakeInstance{component: fc, template: template}, nil
}

// FakeInstance is the Instance returned by FakeEngine.Instantiate.
type FakeInstance struct {
	component *FakeComponent
	template  model.SandboxTemplate
	closed    bool
}

func (i *FakeInstance) Call(ctx context.Context, fn model.FunctionSignature, args []model.Value) ([]model.Value, error) {
	call, ok := i.component.calls[fn.Name]
	if !ok {
		return nil, model.Errorf(model.KindRuntime, "fake instance: no behavior registered for %s", fn.Name)
	}
	return call(ctx, args)
}

func (i *FakeInstance) Close() error {
	i.closed = true
	return nil
}
