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
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"componenthost/src/internal/audit"
	"componenthost/src/internal/dto"
	"componenthost/src/internal/events"
	"componenthost/src/internal/model"
	"componenthost/src/internal/utils"
	"componenthost/src/internal/valuebridge"
)

// recordAndBroadcast persists eventType to the durable audit trail (when an
// audit DB is configured) and fans it out to connected operator tooling
// (when a broadcaster is configured). Both are best-effort: a failure to
// record or broadcast never fails the control-API request that triggered
// it, since the Lifecycle Manager operation has already committed.
func (s *Server) recordAndBroadcast(componentID, eventType, detail string) {
	occurredAt := time.Now().Unix()
	if s.auditDB != nil {
		if err := s.auditDB.Record(componentID, eventType, detail, occurredAt); err != nil {
			utils.LogWarn("failed to record audit event", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.Event{
			Type:        eventType,
			ComponentID: componentID,
			Detail:      detail,
			OccurredAt:  occurredAt,
		})
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(utils.HTTPStatus(err), dto.ErrorResponse{Error: err.Error(), Kind: model.KindOf(err).String()})
}

// handleLoadComponent implements POST /components.
func (s *Server) handleLoadComponent(c *gin.Context) {
	var req dto.LoadComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: model.KindInvalidInput.String()})
		return
	}

	componentID, outcome, err := s.manager.Load(c.Request.Context(), req.URI)
	if err != nil {
		respondError(c, err)
		return
	}

	s.recordAndBroadcast(componentID, audit.EventComponentLoaded, outcome.String())
	c.JSON(http.StatusOK, dto.LoadComponentResponse{ComponentID: componentID, Outcome: outcome.String()})
}

// handleUnloadComponent implements DELETE /components/:id.
func (s *Server) handleUnloadComponent(c *gin.Context) {
	componentID := c.Param("id")
	if err := s.manager.Unload(componentID); err != nil {
		respondError(c, err)
		return
	}
	s.recordAndBroadcast(componentID, audit.EventComponentUnloaded, "")
	c.Status(http.StatusNoContent)
}

// handleUninstallComponent implements POST /components/:id/uninstall.
func (s *Server) handleUninstallComponent(c *gin.Context) {
	componentID := c.Param("id")
	if err := s.manager.Uninstall(componentID); err != nil {
		respondError(c, err)
		return
	}
	s.recordAndBroadcast(componentID, audit.EventComponentUninstalled, "")
	c.Status(http.StatusNoContent)
}

// handleListComponents implements GET /components.
func (s *Server) handleListComponents(c *gin.Context) {
	ids := s.manager.ListComponents()
	summaries := make([]dto.ComponentSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, dto.ComponentSummary{ComponentID: id, Tools: s.toolNamesFor(id)})
	}
	c.JSON(http.StatusOK, dto.ListComponentsResponse{Components: summaries})
}

// toolNamesFor derives the tool names a component currently contributes by
// filtering the registry's flattened tool list, since the control API only
// has the Lifecycle Manager's narrow ToolInfo/ListTools surface to work
// with.
func (s *Server) toolNamesFor(componentID string) []string {
	var names []string
	for _, tool := range s.manager.ListTools() {
		infos, err := s.manager.ToolInfo(tool.Name)
		if err != nil {
			continue
		}
		for _, info := range infos {
			if info.ComponentID == componentID {
				names = append(names, tool.Name)
				break
			}
		}
	}
	return names
}

// handleListTools implements GET /tools. Builtin control tools are appended
// after the component-derived entries when enabled.
func (s *Server) handleListTools(c *gin.Context) {
	tools := s.manager.ListTools()
	if s.builtinToolsEnabled {
		tools = append(tools, builtinTools()...)
	}
	c.JSON(http.StatusOK, dto.ListToolsResponse{Tools: tools})
}

// handleComponentSchema implements GET /components/:id/schema, returning the
// full generated schema document for one component.
func (s *Server) handleComponentSchema(c *gin.Context) {
	componentID := c.Param("id")
	schema, err := s.manager.ComponentSchema(componentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ComponentSchemaResponse{ComponentID: componentID, Schema: schema})
}

// handleCallTool implements POST /tools/:name/call. The raw body is decoded
// with valuebridge.DecodeJSON rather than gin's default JSON binding so
// numeric arguments reach the Value Bridge as json.Number, which it parses
// as int64 before falling back to float64.
func (s *Server) handleCallTool(c *gin.Context) {
	toolName := c.Param("name")

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: model.KindInvalidInput.String()})
		return
	}

	var body map[string]any
	if len(raw) > 0 {
		decoded, err := valuebridge.DecodeJSON(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		obj, ok := decoded.(map[string]any)
		if !ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body must be a JSON object", Kind: model.KindInvalidInput.String()})
			return
		}
		body = obj
	}

	componentID, _ := body["component_id"].(string)
	arguments := body["arguments"]

	if s.callBuiltinTool(c, toolName, arguments) {
		return
	}

	schema, schemaErr := s.resolveToolSchema(componentID, toolName)
	if schemaErr == nil {
		if err := validateArguments(schema.InputSchema, arguments); err != nil {
			c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: err.Error()})
			return
		}
	}

	var result any
	if componentID != "" {
		result, err = s.manager.Execute(c.Request.Context(), componentID, toolName, arguments)
	} else {
		result, err = s.manager.ExecuteByToolName(c.Request.Context(), toolName, arguments)
	}

	// Tool call failures never propagate as HTTP errors: they surface as a
	// structured is_error:true result.
	if err != nil {
		c.JSON(http.StatusOK, dto.CallToolResponse{IsError: true, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CallToolResponse{Result: result, IsError: false})
}

// resolveToolSchema finds the ToolSchema that would actually serve a call,
// mirroring ExecuteByToolName's own resolution so validation uses the exact
// schema the Invoker is about to coerce arguments against.
func (s *Server) resolveToolSchema(componentID, toolName string) (model.ToolSchema, error) {
	infos, err := s.manager.ToolInfo(toolName)
	if err != nil {
		return model.ToolSchema{}, err
	}
	if componentID != "" {
		for _, info := range infos {
			if info.ComponentID == componentID {
				return info.Schema, nil
			}
		}
		return model.ToolSchema{}, fmt.Errorf("component %q does not export tool %q", componentID, toolName)
	}
	if len(infos) != 1 {
		return model.ToolSchema{}, fmt.Errorf("ambiguous tool %q", toolName)
	}
	return infos[0].Schema, nil
}

// handleAttachPolicy implements POST /components/:id/policy.
func (s *Server) handleAttachPolicy(c *gin.Context) {
	componentID := c.Param("id")
	var req dto.AttachPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: model.KindInvalidInput.String()})
		return
	}

	info, err := s.manager.AttachPolicy(c.Request.Context(), componentID, req.PolicyURI)
	if err != nil {
		respondError(c, err)
		return
	}
	s.recordAndBroadcast(componentID, audit.EventPolicyAttached, req.PolicyURI)
	c.JSON(http.StatusOK, dto.ToPolicyResponse(info))
}

// handleDetachPolicy implements DELETE /components/:id/policy.
func (s *Server) handleDetachPolicy(c *gin.Context) {
	componentID := c.Param("id")
	if err := s.manager.DetachPolicy(componentID); err != nil {
		respondError(c, err)
		return
	}
	s.recordAndBroadcast(componentID, audit.EventPolicyDetached, "")
	c.Status(http.StatusNoContent)
}

// handleGetPolicy implements GET /components/:id/policy.
func (s *Server) handleGetPolicy(c *gin.Context) {
	componentID := c.Param("id")
	info, err := s.manager.GetPolicy(componentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPolicyResponse(info))
}

// handleGrantPermission implements POST /components/:id/permissions.
func (s *Server) handleGrantPermission(c *gin.Context) {
	componentID := c.Param("id")
	var req dto.GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Kind: model.KindInvalidInput.String()})
		return
	}

	info, err := s.manager.GrantPermission(componentID, req.PermissionType, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	s.recordAndBroadcast(componentID, audit.EventPermissionGranted, req.PermissionType)
	c.JSON(http.StatusOK, dto.ToPolicyResponse(info))
}
