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

// ValsToJSON aggregates a function's result values into the object form
// {"val0": ..., "val1": ..., ...}. A single result serializes bare, with no
// wrapping object, matching the single-value OutputSchema built by
// FunctionToToolSchema. Callers of ten or more results see keys in
// lexicographic rather than positional order once re-marshaled through a Go
// map (val0, val1, val10, val11, ..., val2, ...) — see DESIGN.md's ordering
// note. Callers needing strict positional order should
// prefer the array-shaped OutputSchema and a dedicated array encoding
// instead of relying on key order here.
func ValsToJSON(vals []model.Value) any {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return ValueToJSON(vals[0])
	default:
		obj := make(map[string]any, len(vals))
		for i, v := range vals {
			obj[fmt.Sprintf("val%d", i)] = ValueToJSON(v)
		}
		return obj
	}
}

// JSONToVals is ValsToJSON's inverse, given the expected result count n (the
// function signature tells the caller how many results to expect; the wire
// form alone cannot distinguish a single Record result from a multi-result
// aggregate).
func JSONToVals(v any, n int) ([]model.Value, error) {
	switch n {
	case 0:
		return nil, nil
	case 1:
		val, err := JSONToValue(v)
		if err != nil {
			return nil, err
		}
		return []model.Value{val}, nil
	default:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, model.Errorf(model.KindInvalidInput, "expected %d-result object, got %T", n, v)
		}
		out := make([]model.Value, n)
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("val%d", i)
			raw, present := obj[key]
			if !present {
				return nil, model.Errorf(model.KindInvalidInput, "missing result key %q", key)
			}
			val, err := JSONToValue(raw)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
}
