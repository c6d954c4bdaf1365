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

package controlapi

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"

	"componenthost/src/internal/model"
)

// validateArguments checks a decoded call-tool arguments value against the
// JSON Schema the Value Bridge generated for the target tool, before the
// call reaches the Invoker. inputSchema is whatever the schema generator
// produced (a plain map[string]any tree); it is round-tripped through
// encoding/json into an openapi3.Schema so kin-openapi's own validator runs
// it, rather than hand-rolling a second JSON Schema walker in this package.
func validateArguments(inputSchema any, arguments any) error {
	if inputSchema == nil {
		return nil
	}

	raw, err := json.Marshal(inputSchema)
	if err != nil {
		return model.NewError(model.KindInternal, err)
	}

	var schema openapi3.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return model.NewError(model.KindInternal, err)
	}

	if err := schema.VisitJSON(arguments); err != nil {
		return model.Errorf(model.KindInvalidInput, "arguments do not match tool schema: %v", err)
	}
	return nil
}
