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
	"reflect"
	"testing"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

func TestJSONToValuePrimitives(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.Value
	}{
		{"bool true", `true`, model.BoolValue(true)},
		{"integer", `42`, model.IntValue{Width: model.KindS64, V: 42}},
		{"negative integer", `-7`, model.IntValue{Width: model.KindS64, V: -7}},
		{"float falls back", `3.5`, model.FloatValue{Width: model.KindFloat64, V: 3.5}},
		{"string", `"hello"`, model.StringValue("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeJSON([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			got, err := JSONToValue(decoded)
			if err != nil {
				t.Fatalf("JSONToValue: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJSONToValueStandaloneNullRejected(t *testing.T) {
	decoded, err := DecodeJSON([]byte(`null`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	_, err = JSONToValue(decoded)
	if model.KindOf(err) != model.KindInvalidInput {
		t.Fatalf("expected InvalidInput kind, got %v", err)
	}
	he := asHostError(t, err)
	if he.Err != constants.ErrStandaloneNull {
		t.Errorf("expected ErrStandaloneNull, got %v", he.Err)
	}
}

func TestObjectToValueDiscriminatorPriority(t *testing.T) {
	// A __result object parses as a Result, and its val, a __variant object
	// that carries a val key besides its discriminator, parses as a Variant
	// rather than being treated as a Record.
	decoded, err := DecodeJSON([]byte(`{"__result":"Ok","val":{"__variant":"A","val":1}}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	got, err := JSONToValue(decoded)
	if err != nil {
		t.Fatalf("JSONToValue: %v", err)
	}
	res, ok := got.(model.ResultValue)
	if !ok || !res.Ok {
		t.Fatalf("expected Ok ResultValue, got %#v", got)
	}
	variant, ok := res.Val.(model.VariantValue)
	if !ok || variant.Tag != "A" {
		t.Fatalf("expected nested VariantValue tag A, got %#v", res.Val)
	}
}

func TestObjectToValueTupleRequiresSingleKey(t *testing.T) {
	// __tuple alongside another key is not a tuple discriminator: it falls
	// through to being treated as an ordinary Record.
	decoded, err := DecodeJSON([]byte(`{"__tuple":[1,2],"extra":true}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	got, err := JSONToValue(decoded)
	if err != nil {
		t.Fatalf("JSONToValue: %v", err)
	}
	if _, ok := got.(model.RecordValue); !ok {
		t.Fatalf("expected RecordValue fallback, got %#v", got)
	}
}

func TestObjectToValueResource(t *testing.T) {
	decoded, err := DecodeJSON([]byte(`{"__resource":"component-a/table-handle"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	_, err = JSONToValue(decoded)
	he := asHostError(t, err)
	if he.Err != constants.ErrResourceInput {
		t.Errorf("expected ErrResourceInput, got %v", he.Err)
	}
}

func TestObjectToValueFlags(t *testing.T) {
	decoded, err := DecodeJSON([]byte(`{"__flags":{"read":true,"write":false,"exec":true}}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	got, err := JSONToValue(decoded)
	if err != nil {
		t.Fatalf("JSONToValue: %v", err)
	}
	flags, ok := got.(model.FlagsValue)
	if !ok {
		t.Fatalf("expected FlagsValue, got %#v", got)
	}
	set := map[string]bool{}
	for _, f := range flags {
		set[f] = true
	}
	if !set["read"] || !set["exec"] || set["write"] {
		t.Errorf("unexpected flags set: %v", flags)
	}
}

func TestValueToJSONRoundTripOption(t *testing.T) {
	cases := []model.Value{
		model.OptionValue{},
		model.OptionValue{Val: model.StringValue("x")},
		model.ResultValue{Ok: true, Val: model.IntValue{Width: model.KindS64, V: 1}},
		model.ResultValue{Ok: false, Val: model.StringValue("bad input")},
		model.EnumValue("Red"),
		model.TupleValue{model.BoolValue(true), model.StringValue("y")},
	}
	for _, v := range cases {
		asJSON := ValueToJSON(v)
		m, ok := asJSON.(map[string]any)
		if !ok {
			t.Fatalf("expected object wire form for %#v, got %#v", v, asJSON)
		}
		back, err := objectToValue(m)
		if err != nil {
			t.Fatalf("round trip failed for %#v: %v", v, err)
		}
		if !reflect.DeepEqual(back, v) {
			t.Errorf("round trip mismatch: got %#v, want %#v", back, v)
		}
	}
}

func TestVariantSerializationPerArm(t *testing.T) {
	tests := []struct {
		name string
		v    model.Value
		want map[string]any
	}{
		{"no payload", model.VariantValue{Tag: "a"}, map[string]any{"__variant": "a"}},
		{"string payload", model.VariantValue{Tag: "b", Val: model.StringValue("x")}, map[string]any{"__variant": "b", "val": "x"}},
		{"integer payload", model.VariantValue{Tag: "c", Val: model.IntValue{Width: model.KindS64, V: 42}}, map[string]any{"__variant": "c", "val": int64(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValueToJSON(tt.v)
			if !reflect.DeepEqual(got, any(tt.want)) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCoerceCharFromString(t *testing.T) {
	r, err := CoerceCharFromString("é")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 'é' {
		t.Errorf("got %q, want 'é'", r)
	}

	if _, err := CoerceCharFromString("ab"); model.KindOf(err) != model.KindInvalidInput {
		t.Errorf("expected InvalidInput for multi-rune string, got %v", err)
	}
}

func asHostError(t *testing.T, err error) *model.HostError {
	t.Helper()
	he, ok := err.(*model.HostError)
	if !ok {
		t.Fatalf("expected *model.HostError, got %T (%v)", err, err)
	}
	return he
}
