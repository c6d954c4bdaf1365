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
	"fmt"

	"componenthost/src/internal/model"
)

// FunctionToToolSchema builds {name, description, inputSchema, outputSchema?}
// for one exported function. outputSchema is omitted for
// zero results, the single result's schema for one, and an array-of-schemas
// form for two or more (so callers needing strict ordering of multi-value
// results can validate against an array instead of the val0/val1 object
// form — see DESIGN.md's vals_to_json ordering decision).
func FunctionToToolSchema(name string, fn model.FunctionSignature) model.ToolSchema {
	properties := make(map[string]any, len(fn.Params))
	required := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		properties[p.Name] = TypeToJSONSchema(p.Type)
		required = append(required, p.Name)
	}

	inputSchema := map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}

	tool := model.ToolSchema{
		Name:        name,
		Description: fmt.Sprintf("Auto-generated schema for function '%s'", name),
		InputSchema: inputSchema,
	}

	switch len(fn.Results) {
	case 0:
		// no outputSchema
	case 1:
		tool.OutputSchema = TypeToJSONSchema(fn.Results[0])
	default:
		items := make([]any, len(fn.Results))
		for i, r := range fn.Results {
			items[i] = TypeToJSONSchema(r)
		}
		tool.OutputSchema = map[string]any{"type": "array", "items": items}
	}

	return tool
}

// ExportedFunction is one leaf entry discovered while walking a component's
// export tree: its dotted tool name and its signature.
type ExportedFunction struct {
	ToolName  string
	Signature model.FunctionSignature
}

// ComponentExport describes one node of a component's export tree, as
// reported by the execution engine: either a function at this level, or a
// nested instance/component whose own exports recurse with this node's name
// as a "<parent>." prefix.
type ComponentExport struct {
	Name     string
	Function *model.FunctionSignature // non-nil for a leaf function export
	Nested   []ComponentExport        // non-nil for an interface/instance export
}

// GatherExportedFunctions walks the export tree and returns every leaf
// function with its fully-qualified dotted tool name.
func GatherExportedFunctions(exports []ComponentExport) []ExportedFunction {
	var out []ExportedFunction
	gatherInto(exports, "", &out)
	return out
}

func gatherInto(exports []ComponentExport, prefix string, out *[]ExportedFunction) {
	for _, e := range exports {
		name := e.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		if e.Function != nil {
			*out = append(*out, ExportedFunction{ToolName: name, Signature: *e.Function})
			continue
		}
		if e.Nested != nil {
			gatherInto(e.Nested, name, out)
		}
	}
}

// ComponentExportsToSchema builds the {"tools": [...]} document for a
// whole component.
func ComponentExportsToSchema(exports []ComponentExport) model.FunctionSchemaSet {
	fns := GatherExportedFunctions(exports)
	tools := make([]model.ToolSchema, 0, len(fns))
	for _, fn := range fns {
		tools = append(tools, FunctionToToolSchema(fn.ToolName, fn.Signature))
	}
	return model.FunctionSchemaSet{Tools: tools}
}
