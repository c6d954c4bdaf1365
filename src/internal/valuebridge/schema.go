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

// Package valuebridge implements the Value Bridge: JSON Schema generation
// for exported component functions and bidirectional JSON <-> typed value
// conversion, using __-prefixed discriminator objects so round-trips are
// well-defined.
package valuebridge

import "componenthost/src/internal/model"

// TypeToJSONSchema builds the JSON Schema fragment for a single WIT type.
func TypeToJSONSchema(t model.WitType) map[string]any {
	switch t.Kind {
	case model.KindBool:
		return map[string]any{"type": "boolean"}
	case model.KindS8, model.KindS16, model.KindS32, model.KindS64,
		model.KindU8, model.KindU16, model.KindU32, model.KindU64,
		model.KindFloat32, model.KindFloat64:
		return map[string]any{"type": "number"}
	case model.KindChar:
		return map[string]any{"type": "string", "description": "1 unicode codepoint"}
	case model.KindString:
		return map[string]any{"type": "string"}
	case model.KindList:
		var elem map[string]any
		if t.Elem != nil {
			elem = TypeToJSONSchema(*t.Elem)
		}
		return map[string]any{"type": "array", "items": elem}
	case model.KindRecord:
		return recordSchema(t.Fields)
	case model.KindTuple:
		return tupleSchema(t.Elems)
	case model.KindVariant:
		return variantSchema(t.Cases)
	case model.KindEnum:
		return enumSchema(t.Names)
	case model.KindOption:
		return optionSchema(t.Some)
	case model.KindResult:
		return resultSchema(t)
	case model.KindFlags:
		return flagsSchema(t.FlagNames)
	case model.KindResource:
		return map[string]any{"type": "object", "description": "opaque resource handle; cannot be supplied as input"}
	default:
		return map[string]any{}
	}
}

func recordSchema(fields []model.WitField) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		properties[f.Name] = TypeToJSONSchema(f.Type)
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func tupleSchema(elems []model.WitType) map[string]any {
	items := make([]any, len(elems))
	for i, e := range elems {
		items[i] = TypeToJSONSchema(e)
	}
	n := len(elems)
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"__tuple": map[string]any{
				"type":        "array",
				"prefixItems": items,
				"minItems":    n,
				"maxItems":    n,
			},
		},
		"required": []string{"__tuple"},
	}
}

func variantSchema(cases []model.WitCase) map[string]any {
	oneOf := make([]any, 0, len(cases))
	for _, c := range cases {
		props := map[string]any{
			"__variant": map[string]any{"const": c.Name},
		}
		required := []string{"__variant"}
		if c.Type != nil {
			props["val"] = TypeToJSONSchema(*c.Type)
			required = append(required, "val")
		}
		oneOf = append(oneOf, map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		})
	}
	return map[string]any{"oneOf": oneOf}
}

func enumSchema(names []string) map[string]any {
	oneOf := make([]any, 0, len(names))
	for _, n := range names {
		oneOf = append(oneOf, map[string]any{
			"type": "object",
			"properties": map[string]any{
				"__enum": map[string]any{"const": n},
			},
			"required": []string{"__enum"},
		})
	}
	return map[string]any{"oneOf": oneOf}
}

func optionSchema(some *model.WitType) map[string]any {
	noneShape := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"__option": map[string]any{"const": "None"},
		},
		"required": []string{"__option"},
	}
	someProps := map[string]any{
		"__option": map[string]any{"const": "Some"},
	}
	someRequired := []string{"__option"}
	if some != nil {
		someProps["val"] = TypeToJSONSchema(*some)
		someRequired = append(someRequired, "val")
	}
	someShape := map[string]any{
		"type":       "object",
		"properties": someProps,
		"required":   someRequired,
	}
	return map[string]any{"oneOf": []any{noneShape, someShape}}
}

func resultSchema(t model.WitType) map[string]any {
	okProps := map[string]any{"__result": map[string]any{"const": "Ok"}}
	okRequired := []string{"__result", "val"}
	if t.Ok != nil {
		okProps["val"] = TypeToJSONSchema(*t.Ok)
	} else {
		okProps["val"] = map[string]any{"type": "null"}
	}
	errProps := map[string]any{"__result": map[string]any{"const": "Err"}}
	errRequired := []string{"__result", "val"}
	if t.Err != nil {
		errProps["val"] = TypeToJSONSchema(*t.Err)
	} else {
		errProps["val"] = map[string]any{"type": "null"}
	}
	return map[string]any{"oneOf": []any{
		map[string]any{"type": "object", "properties": okProps, "required": okRequired},
		map[string]any{"type": "object", "properties": errProps, "required": errRequired},
	}}
}

func flagsSchema(names []string) map[string]any {
	properties := make(map[string]any, len(names))
	for _, n := range names {
		properties[n] = map[string]any{"type": "boolean"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"__flags": map[string]any{
				"type":       "object",
				"properties": properties,
			},
		},
		"required": []string{"__flags"},
	}
}
