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

// Package policystore implements the Policy Store and Sandbox Template
// Builder: parsing, persisting, and merging policy documents, and
// materializing them into immutable sandbox templates.
package policystore

import (
	"path/filepath"
	"strings"

	"componenthost/src/internal/model"
)

// BuildTemplate translates doc plus pluginRoot into an immutable sandbox
// template. Components with no attached policy get DefaultTemplate
// instead (see Store.TemplateFor).
func BuildTemplate(doc model.PolicyDocument, pluginRoot string, defaults model.SandboxDefaults) model.SandboxTemplate {
	tmpl := model.SandboxTemplate{
		AllowStdout: defaults.AllowStdout,
		AllowStderr: defaults.AllowStderr,
		AllowArgs:   defaults.AllowArgs,
	}

	if doc.Permissions.Network != nil && len(doc.Permissions.Network.Allow) > 0 {
		tmpl.Network = model.NetworkCapability{AllowTCP: true, AllowUDP: true, AllowIPNameLookup: true}
	}

	if doc.Permissions.Storage != nil {
		for _, allow := range doc.Permissions.Storage.Allow {
			if !strings.HasPrefix(allow.URI, "fs://") {
				continue
			}
			hostPath := strings.TrimPrefix(allow.URI, "fs://")
			if !filepath.IsAbs(hostPath) {
				hostPath = filepath.Join(pluginRoot, hostPath)
			}
			dirPerms, filePerms := accessToPerms(allow.Access)
			tmpl.PreopenedDirs = append(tmpl.PreopenedDirs, model.PreopenedDir{
				HostPath:  hostPath,
				GuestPath: guestPathFromURI(allow.URI),
				DirPerms:  dirPerms,
				FilePerms: filePerms,
			})
		}
	}

	if doc.Permissions.Environment != nil {
		for _, allow := range doc.Permissions.Environment.Allow {
			tmpl.ConfigVars = append(tmpl.ConfigVars, model.EnvVar{Key: allow.Key, Value: ""})
		}
	}

	return tmpl
}

// DefaultTemplate is used when no policy is attached: network denied, no
// preopened directories, no env variables, stderr only.
func DefaultTemplate(defaults model.SandboxDefaults) model.SandboxTemplate {
	return model.SandboxTemplate{
		AllowStdout: false,
		AllowStderr: defaults.AllowStderr,
		AllowArgs:   defaults.AllowArgs,
	}
}

func accessToPerms(access []string) (dirPerms, filePerms model.Perms) {
	var read, write bool
	for _, a := range access {
		switch a {
		case "read":
			read = true
		case "write":
			write = true
		}
	}
	switch {
	case read && write:
		return model.PermsReadWrite, model.PermsReadWrite
	case read:
		return model.PermsReadOnly, model.PermsReadOnly
	case write:
		return model.PermsWriteOnly, model.PermsWriteOnly
	default:
		return model.PermsNone, model.PermsNone
	}
}

// guestPathFromURI returns the path portion of an fs:// URI, i.e. the URI
// with its scheme stripped.
func guestPathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "fs://")
}
