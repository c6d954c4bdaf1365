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
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

// DecodeJSON parses data the way the Bridge requires: numbers are kept as
// json.Number so JSONToValue can try int64 before falling back to float64
// instead of losing precision to an eager float conversion.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, model.NewError(model.KindParse, err)
	}
	return v, nil
}

// JSONToValue converts a decoded JSON value (as produced by DecodeJSON) into
// a typed Value. A stand-alone null is
// rejected: null is only meaningful as the "val" of a Result.
func JSONToValue(v any) (model.Value, error) {
	switch t := v.(type) {
	case nil:
		return nil, model.NewError(model.KindInvalidInput, constants.ErrStandaloneNull)
	case bool:
		return model.BoolValue(t), nil
	case json.Number:
		return numberToValue(t)
	case int64:
		// Produced by ValueToJSON rather than DecodeJSON; the round-trip law
		// json_to_val(val_to_json(v)) == v depends on accepting it here.
		return model.IntValue{Width: model.KindS64, V: t}, nil
	case uint64:
		return model.IntValue{Width: model.KindS64, V: int64(t)}, nil
	case float64:
		return model.FloatValue{Width: model.KindFloat64, V: t}, nil
	case string:
		return model.StringValue(t), nil
	case []any:
		items := make(model.ListValue, 0, len(t))
		for _, e := range t {
			cv, err := JSONToValue(e)
			if err != nil {
				return nil, err
			}
			items = append(items, cv)
		}
		return items, nil
	case map[string]any:
		return objectToValue(t)
	default:
		return nil, model.Errorf(model.KindInternal, "unsupported decoded JSON type %T", v)
	}
}

func numberToValue(n json.Number) (model.Value, error) {
	if i, err := n.Int64(); err == nil {
		return model.IntValue{Width: model.KindS64, V: i}, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrNumberShape)
	}
	return model.FloatValue{Width: model.KindFloat64, V: f}, nil
}

// objectToValue classifies a JSON object by discriminator priority:
// __result -> __variant -> __option -> (single-key) __tuple -> __enum ->
// __resource (rejected) -> __flags -> otherwise a Record.
func objectToValue(obj map[string]any) (model.Value, error) {
	if raw, ok := obj["__result"]; ok {
		return objectToResult(obj, raw)
	}
	if raw, ok := obj["__variant"]; ok {
		return objectToVariant(obj, raw)
	}
	if raw, ok := obj["__option"]; ok {
		return objectToOption(obj, raw)
	}
	if len(obj) == 1 {
		if raw, ok := obj["__tuple"]; ok {
			return objectToTuple(raw)
		}
	}
	if raw, ok := obj["__enum"]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
		}
		return model.EnumValue(name), nil
	}
	if _, ok := obj["__resource"]; ok {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrResourceInput)
	}
	if raw, ok := obj["__flags"]; ok {
		return objectToFlags(raw)
	}
	return objectToRecord(obj)
}

func objectToResult(obj map[string]any, tagRaw any) (model.Value, error) {
	tag, ok := tagRaw.(string)
	if !ok || (tag != "Ok" && tag != "Err") {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	rawVal, hasVal := obj["val"]
	var val model.Value
	if hasVal && rawVal != nil {
		v, err := JSONToValue(rawVal)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return model.ResultValue{Ok: tag == "Ok", Val: val}, nil
}

func objectToVariant(obj map[string]any, tagRaw any) (model.Value, error) {
	tag, ok := tagRaw.(string)
	if !ok {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	var val model.Value
	if rawVal, hasVal := obj["val"]; hasVal {
		v, err := JSONToValue(rawVal)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return model.VariantValue{Tag: tag, Val: val}, nil
}

func objectToOption(obj map[string]any, tagRaw any) (model.Value, error) {
	tag, ok := tagRaw.(string)
	if !ok || (tag != "None" && tag != "Some") {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	if tag == "None" {
		return model.OptionValue{}, nil
	}
	rawVal, hasVal := obj["val"]
	if !hasVal {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	v, err := JSONToValue(rawVal)
	if err != nil {
		return nil, err
	}
	return model.OptionValue{Val: v}, nil
}

func objectToTuple(raw any) (model.Value, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	items := make(model.TupleValue, 0, len(arr))
	for _, e := range arr {
		v, err := JSONToValue(e)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func objectToFlags(raw any) (model.Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, model.NewError(model.KindInvalidInput, constants.ErrShape)
	}
	var set model.FlagsValue
	for k, v := range m {
		if b, ok := v.(bool); ok && b {
			set = append(set, k)
		}
	}
	return set, nil
}

func objectToRecord(obj map[string]any) (model.Value, error) {
	fields := make(model.RecordValue, 0, len(obj))
	for k, v := range obj {
		cv, err := JSONToValue(v)
		if err != nil {
			return nil, err
		}
		fields = append(fields, model.Field{Name: k, Val: cv})
	}
	return fields, nil
}

// ValueToJSON serializes a typed Value back to its JSON wire form.
// NaN/Inf floats serialize as their
// string form since JSON has no representation for them.
func ValueToJSON(v model.Value) any {
	switch t := v.(type) {
	case model.BoolValue:
		return bool(t)
	case model.IntValue:
		return t.V
	case model.UintValue:
		return t.V
	case model.FloatValue:
		if math.IsNaN(t.V) || math.IsInf(t.V, 0) {
			return strconv.FormatFloat(t.V, 'g', -1, 64)
		}
		return t.V
	case model.CharValue:
		return string(rune(t))
	case model.StringValue:
		return string(t)
	case model.ListValue:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = ValueToJSON(e)
		}
		return arr
	case model.RecordValue:
		obj := make(map[string]any, len(t))
		for _, f := range t {
			obj[f.Name] = ValueToJSON(f.Val)
		}
		return obj
	case model.TupleValue:
		arr := make([]any, len(t))
		for i, e := range t {
			arr[i] = ValueToJSON(e)
		}
		return map[string]any{"__tuple": arr}
	case model.VariantValue:
		obj := map[string]any{"__variant": t.Tag}
		if t.Val != nil {
			obj["val"] = ValueToJSON(t.Val)
		}
		return obj
	case model.EnumValue:
		return map[string]any{"__enum": string(t)}
	case model.OptionValue:
		if t.Val == nil {
			return map[string]any{"__option": "None"}
		}
		return map[string]any{"__option": "Some", "val": ValueToJSON(t.Val)}
	case model.ResultValue:
		tag := "Err"
		if t.Ok {
			tag = "Ok"
		}
		var val any
		if t.Val != nil {
			val = ValueToJSON(t.Val)
		}
		return map[string]any{"__result": tag, "val": val}
	case model.FlagsValue:
		set := make(map[string]any, len(t))
		for _, name := range t {
			set[name] = true
		}
		return map[string]any{"__flags": set}
	case model.ResourceValue:
		return map[string]any{"__resource": string(t)}
	default:
		return nil
	}
}

// CoerceCharFromString validates that s holds exactly one unicode codepoint,
// per the Char wire form. Used by argument materialization when the
// function signature declares a Char parameter: the Bridge's own JSON
// ingress never produces a Char, only String, so the coercion happens
// against the signature.
func CoerceCharFromString(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, model.NewError(model.KindInvalidInput, constants.ErrInvalidChar)
	}
	return r, nil
}
