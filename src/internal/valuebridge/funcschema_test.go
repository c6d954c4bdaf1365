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

package valuebridge

import (
	"testing"

	"componenthost/src/internal/model"
)

func TestFunctionToToolSchemaNoResults(t *testing.T) {
	fn := model.FunctionSignature{
		Name: "log",
		Params: []model.WitField{
			{Name: "message", Type: model.WitType{Kind: model.KindString}},
		},
	}
	tool := FunctionToToolSchema("log", fn)
	if tool.OutputSchema != nil {
		t.Errorf("expected nil OutputSchema for zero results, got %#v", tool.OutputSchema)
	}
	input, ok := tool.InputSchema.(map[string]any)
	if !ok {
		t.Fatalf("expected map input schema, got %#v", tool.InputSchema)
	}
	required, ok := input["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "message" {
		t.Errorf("required = %#v", input["required"])
	}
}

func TestFunctionToToolSchemaMultiResult(t *testing.T) {
	fn := model.FunctionSignature{
		Name:    "divmod",
		Results: []model.WitType{{Kind: model.KindS64}, {Kind: model.KindS64}},
	}
	tool := FunctionToToolSchema("divmod", fn)
	out, ok := tool.OutputSchema.(map[string]any)
	if !ok || out["type"] != "array" {
		t.Fatalf("expected array output schema, got %#v", tool.OutputSchema)
	}
	items, ok := out["items"].([]any)
	if !ok || len(items) != 2 {
		t.Errorf("items = %#v", out["items"])
	}
}

func TestGatherExportedFunctionsNesting(t *testing.T) {
	fn := model.FunctionSignature{Name: "get"}
	tree := []ComponentExport{
		{Name: "top-level-fn", Function: &fn},
		{
			Name: "kv-store",
			Nested: []ComponentExport{
				{Name: "get", Function: &fn},
				{Name: "set", Function: &fn},
			},
		},
	}
	got := GatherExportedFunctions(tree)
	if len(got) != 3 {
		t.Fatalf("expected 3 leaf functions, got %d: %#v", len(got), got)
	}
	names := map[string]bool{}
	for _, f := range got {
		names[f.ToolName] = true
	}
	for _, want := range []string{"top-level-fn", "kv-store.get", "kv-store.set"} {
		if !names[want] {
			t.Errorf("missing dotted tool name %q in %v", want, names)
		}
	}
}

func TestComponentExportsToSchema(t *testing.T) {
	fn := model.FunctionSignature{
		Name:    "ping",
		Results: []model.WitType{{Kind: model.KindBool}},
	}
	schema := ComponentExportsToSchema([]ComponentExport{{Name: "ping", Function: &fn}})
	if len(schema.Tools) != 1 || schema.Tools[0].Name != "ping" {
		t.Fatalf("unexpected schema: %#v", schema)
	}
}
