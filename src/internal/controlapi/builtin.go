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
	"net/http"

	"github.com/gin-gonic/gin"

	"componenthost/src/internal/audit"
	"componenthost/src/internal/dto"
	"componenthost/src/internal/model"
)

// builtinTools are the control operations advertised as ordinary tool-schema
// entries alongside component-derived tools when builtin tools are enabled.
// They carry inline input schemas since no component export backs them.
func builtinTools() []model.ToolSchema {
	return []model.ToolSchema{
		{
			Name:        "load-component",
			Description: "Dynamically loads a new WebAssembly component. Arguments: uri (string)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uri": map[string]any{"type": "string"},
				},
				"required": []string{"uri"},
			},
		},
		{
			Name:        "unload-component",
			Description: "Dynamically unloads a WebAssembly component. Arguments: id (string)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string"},
				},
				"required": []string{"id"},
			},
		},
	}
}

// callBuiltinTool dispatches a call-tool request naming a builtin control
// tool. Returns false when toolName is not a builtin (or builtins are
// disabled), so the caller falls through to component dispatch. Builtin
// failures surface as is_error:true results exactly like component-call
// failures.
func (s *Server) callBuiltinTool(c *gin.Context, toolName string, arguments any) bool {
	if !s.builtinToolsEnabled {
		return false
	}
	args, _ := arguments.(map[string]any)

	switch toolName {
	case "load-component":
		uri, _ := args["uri"].(string)
		if uri == "" {
			c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: "load-component requires a non-empty uri argument"})
			return true
		}
		componentID, outcome, err := s.manager.Load(c.Request.Context(), uri)
		if err != nil {
			c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: err.Error()})
			return true
		}
		s.recordAndBroadcast(componentID, audit.EventComponentLoaded, outcome.String())
		c.JSON(http.StatusOK, dto.CallToolResponse{Result: dto.LoadComponentResponse{ComponentID: componentID, Outcome: outcome.String()}})
		return true
	case "unload-component":
		id, _ := args["id"].(string)
		if id == "" {
			c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: "unload-component requires a non-empty id argument"})
			return true
		}
		if err := s.manager.Unload(id); err != nil {
			c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: err.Error()})
			return true
		}
		s.recordAndBroadcast(id, audit.EventComponentUnloaded, "")
		c.JSON(http.StatusOK, dto.CallToolResponse{Result: "unloaded " + id})
		return true
	default:
		return false
	}
}
