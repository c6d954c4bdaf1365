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

package model

// PolicyDocument is the parsed form of a component's <id>.policy.yaml
// sidecar. Field names follow the YAML surface verbatim.
type PolicyDocument struct {
	Version     string      `yaml:"version"`
	Description string      `yaml:"description,omitempty"`
	Permissions Permissions `yaml:"permissions,omitempty"`
}

// Permissions groups the three capability domains a policy can grant.
type Permissions struct {
	Network     *NetworkPermissions     `yaml:"network,omitempty"`
	Storage     *StoragePermissions     `yaml:"storage,omitempty"`
	Environment *EnvironmentPermissions `yaml:"environment,omitempty"`
}

type NetworkPermissions struct {
	Allow []NetworkAllow `yaml:"allow,omitempty"`
}

type NetworkAllow struct {
	Host string `yaml:"host"`
}

type StoragePermissions struct {
	Allow []StorageAllow `yaml:"allow,omitempty"`
}

type StorageAllow struct {
	URI    string   `yaml:"uri"`
	Access []string `yaml:"access"`
}

type EnvironmentPermissions struct {
	Allow []EnvironmentAllow `yaml:"allow,omitempty"`
}

type EnvironmentAllow struct {
	Key string `yaml:"key"`
}

// PolicyMeta is the provenance sidecar <id>.policy.meta.json.
type PolicyMeta struct {
	SourceURI  string `json:"source_uri"`
	AttachedAt int64  `json:"attached_at"`
}

// PolicyInfo is the policy-registry entry returned by get-policy: the
// materialized template plus the document, its provenance, and the sidecar
// path it was read from.
type PolicyInfo struct {
	ComponentID string
	Document    PolicyDocument
	Meta        PolicyMeta
	LocalPath   string
	Template    SandboxTemplate
}
