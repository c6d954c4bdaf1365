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

// Package invoker implements the Invoker: export resolution, JSON argument
// materialization, and result serialization for a single tool call. It is a
// pure function of its inputs with no persistent state.
package invoker

import (
	"context"
	"strings"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/engine"
	"componenthost/src/internal/model"
	"componenthost/src/internal/valuebridge"
)

// ResolveExport splits functionName on the first '.' (an interface-qualified
// tool name) and walks exports to find the leaf FunctionSignature.
// Precise "Interface not found" / "Function not found"
// errors are raised so callers can distinguish the two failure points.
func ResolveExport(exports []engine.ExportNode, functionName string) (model.FunctionSignature, error) {
	iface, fn, qualified := strings.Cut(functionName, ".")
	if !qualified {
		for _, node := range exports {
			if node.Name == functionName && node.Function != nil {
				return *node.Function, nil
			}
		}
		return model.FunctionSignature{}, model.NewError(model.KindNotFound, constants.ErrFunctionNotFound)
	}

	for _, node := range exports {
		if node.Name == iface && node.Nested != nil {
			for _, leaf := range node.Nested {
				if leaf.Name == fn && leaf.Function != nil {
					return *leaf.Function, nil
				}
			}
			return model.FunctionSignature{}, model.NewError(model.KindNotFound, constants.ErrFunctionNotFound)
		}
	}
	return model.FunctionSignature{}, model.NewError(model.KindNotFound, constants.ErrInterfaceNotFound)
}

// MaterializeArgs converts a JSON arguments object (decoded by
// valuebridge.DecodeJSON) into the ordered typed-value argument list a
// function signature expects, coercing values back to the declared
// parameter type after the lossy JSON ingress (e.g. a
// single-codepoint String argument is coerced to Char when the parameter
// declares Char).
func MaterializeArgs(params []model.WitField, argsJSON any) ([]model.Value, error) {
	obj, ok := argsJSON.(map[string]any)
	if argsJSON != nil && !ok {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}

	out := make([]model.Value, len(params))
	for i, p := range params {
		raw, present := obj[p.Name]
		if !present {
			return nil, model.Errorf(model.KindInvalidInput, "missing required argument %q", p.Name)
		}
		v, err := valuebridge.JSONToValue(raw)
		if err != nil {
			return nil, err
		}
		coerced, err := coerceToParamType(v, p.Type)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

// coerceToParamType re-widens a Bridge-ingested value to the parameter's
// declared WIT type. The Bridge always parses JSON numbers to S64/Float64
// and single-codepoint strings to String. Only the top-level argument value
// is coerced: values nested inside lists, records, tuples, variants,
// options and results keep the types the Bridge parsed them as.
func coerceToParamType(v model.Value, t model.WitType) (model.Value, error) {
	switch t.Kind {
	case model.KindChar:
		s, ok := v.(model.StringValue)
		if !ok {
			return v, nil
		}
		r, err := valuebridge.CoerceCharFromString(string(s))
		if err != nil {
			return nil, err
		}
		return model.CharValue(r), nil
	case model.KindS8, model.KindS16, model.KindS32, model.KindS64:
		if iv, ok := v.(model.IntValue); ok {
			return model.IntValue{Width: t.Kind, V: iv.V}, nil
		}
		return v, nil
	case model.KindU8, model.KindU16, model.KindU32, model.KindU64:
		if iv, ok := v.(model.IntValue); ok {
			return model.UintValue{Width: t.Kind, V: uint64(iv.V)}, nil
		}
		return v, nil
	case model.KindFloat32:
		if fv, ok := v.(model.FloatValue); ok {
			return model.FloatValue{Width: model.KindFloat32, V: fv.V}, nil
		}
		if iv, ok := v.(model.IntValue); ok {
			return model.FloatValue{Width: model.KindFloat32, V: float64(iv.V)}, nil
		}
		return v, nil
	case model.KindFloat64:
		if iv, ok := v.(model.IntValue); ok {
			return model.FloatValue{Width: model.KindFloat64, V: float64(iv.V)}, nil
		}
		return v, nil
	default:
		return v, nil
	}
}

// Invoke resolves functionName against exports, materializes argsJSON into
// typed arguments, runs the call against inst, and serializes the results
// back to JSON via valuebridge.ValsToJSON.
func Invoke(ctx context.Context, inst engine.Instance, exports []engine.ExportNode, functionName string, argsJSON any) (any, error) {
	sig, err := ResolveExport(exports, functionName)
	if err != nil {
		return nil, err
	}
	// The signature's Name is what the engine expects the call to carry;
	// fall back to the dotted lookup name if the engine left it blank.
	if sig.Name == "" {
		sig.Name = functionName
	}

	args, err := MaterializeArgs(sig.Params, argsJSON)
	if err != nil {
		return nil, err
	}

	results, err := inst.Call(ctx, sig, args)
	if err != nil {
		return nil, model.NewError(model.KindRuntime, err)
	}

	return valuebridge.ValsToJSON(results), nil
}
