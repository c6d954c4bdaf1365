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

package registry

import (
	"errors"
	"strings"
	"testing"

	"componenthost/src/internal/constants"
	"componenthost/src/internal/model"
)

func schemaFor(names ...string) model.FunctionSchemaSet {
	tools := make([]model.ToolSchema, len(names))
	for i, n := range names {
		tools[i] = model.ToolSchema{Name: n, Description: "d"}
	}
	return model.FunctionSchemaSet{Tools: tools}
}

func TestRegisterAndListTools(t *testing.T) {
	r := New()
	if err := r.Register("a", schemaFor("echo", "ping")); err != nil {
		t.Fatalf("register: %v", err)
	}
	tools := r.ListTools()
	if len(tools) != 2 {
		t.Fatalf("want 2 tools, got %d", len(tools))
	}
}

func TestUnregisterRemovesEmptyBucket(t *testing.T) {
	r := New()
	_ = r.Register("a", schemaFor("echo"))
	r.Unregister("a")
	if _, err := r.ToolInfo("echo"); !errors.Is(err, constants.ErrToolNotFound) {
		t.Fatalf("want ErrToolNotFound, got %v", err)
	}
	if names := r.ToolNamesFor("a"); len(names) != 0 {
		t.Fatalf("want no tool names after unregister, got %v", names)
	}
}

func TestComponentIDForToolUnique(t *testing.T) {
	r := New()
	_ = r.Register("a", schemaFor("run"))
	id, err := r.ComponentIDForTool("run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "a" {
		t.Fatalf("want a, got %s", id)
	}
}

func TestComponentIDForToolAmbiguous(t *testing.T) {
	r := New()
	_ = r.Register("a", schemaFor("run"))
	_ = r.Register("b", schemaFor("run"))
	_, err := r.ComponentIDForTool("run")
	if err == nil {
		t.Fatal("want ambiguous error")
	}
	if model.KindOf(err) != model.KindAmbiguous {
		t.Fatalf("want KindAmbiguous, got %v", model.KindOf(err))
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Fatalf("error should list both component ids: %v", err)
	}
}

func TestReplaceRequiresUnregisterFirst(t *testing.T) {
	r := New()
	_ = r.Register("a", schemaFor("echo"))
	r.Unregister("a")
	if err := r.Register("a", schemaFor("echo", "new")); err != nil {
		t.Fatalf("register after unregister: %v", err)
	}
	tools := r.ListTools()
	if len(tools) != 2 {
		t.Fatalf("want 2 tools after replace, got %d", len(tools))
	}
}

func TestRegisterRejectsMissingName(t *testing.T) {
	r := New()
	err := r.Register("a", model.FunctionSchemaSet{Tools: []model.ToolSchema{{Name: ""}}})
	if model.KindOf(err) != model.KindInvalidInput {
		t.Fatalf("want KindInvalidInput, got %v", model.KindOf(err))
	}
}
