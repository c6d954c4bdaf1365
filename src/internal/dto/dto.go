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

// Package dto holds the request/response wire shapes for the control API
// surface, kept separate from internal/model so that HTTP JSON tags never
// leak into the domain types the rest of the host operates on.
package dto

import "componenthost/src/internal/model"

// LoadComponentRequest is the body of POST /components.
type LoadComponentRequest struct {
	URI string `json:"uri" binding:"required"`
}

// LoadComponentResponse reports the outcome of a Load call.
type LoadComponentResponse struct {
	ComponentID string `json:"component_id"`
	Outcome     string `json:"outcome"`
}

// ComponentSummary is one entry of GET /components.
type ComponentSummary struct {
	ComponentID string   `json:"component_id"`
	Tools       []string `json:"tools"`
}

// ListComponentsResponse is the body of GET /components.
type ListComponentsResponse struct {
	Components []ComponentSummary `json:"components"`
}

// ListToolsResponse is the body of GET /tools.
type ListToolsResponse struct {
	Tools []model.ToolSchema `json:"tools"`
}

// ComponentSchemaResponse is the body of GET /components/:id/schema.
type ComponentSchemaResponse struct {
	ComponentID string                  `json:"component_id"`
	Schema      model.FunctionSchemaSet `json:"schema"`
}

// CallToolRequest is the body of POST /tools/:name/call. ComponentID is
// optional: when omitted the tool name must resolve unambiguously through
// the registry.
type CallToolRequest struct {
	ComponentID string         `json:"component_id,omitempty"`
	Arguments   map[string]any `json:"arguments"`
}

// CallToolResponse wraps a tool call's result or its structured failure:
// failures surface as is_error:true rather than HTTP errors.
type CallToolResponse struct {
	Result  any    `json:"result,omitempty"`
	IsError bool   `json:"is_error"`
	Error   string `json:"error,omitempty"`
}

// AttachPolicyRequest is the body of POST /components/:id/policy.
type AttachPolicyRequest struct {
	PolicyURI string `json:"policy_uri" binding:"required"`
}

// GrantPermissionRequest is the body of POST /components/:id/permissions.
type GrantPermissionRequest struct {
	PermissionType string         `json:"permission_type" binding:"required"`
	Details        map[string]any `json:"details" binding:"required"`
}

// PolicyResponse is the body of GET /components/:id/policy and the response
// of attach/grant operations.
type PolicyResponse struct {
	ComponentID string `json:"component_id"`
	SourceURI   string `json:"source_uri,omitempty"`
	AttachedAt  int64  `json:"attached_at,omitempty"`
	LocalPath   string `json:"local_path,omitempty"`
}

// ToPolicyResponse projects a model.PolicyInfo into its wire shape.
func ToPolicyResponse(info model.PolicyInfo) PolicyResponse {
	return PolicyResponse{
		ComponentID: info.ComponentID,
		SourceURI:   info.Meta.SourceURI,
		AttachedAt:  info.Meta.AttachedAt,
		LocalPath:   info.LocalPath,
	}
}

// ErrorResponse is the body returned for every failed control API request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
