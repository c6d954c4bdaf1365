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

package config

import (
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// Server holds the configuration parameters for the component host.
type Server struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"DEBUG"`

	// Control API server configurations
	Port string `envconfig:"PORT" default:"9243"`

	// Expose load-component/unload-component as ordinary tool-schema
	// entries on the list-tools surface, callable through call-tool.
	BuiltinToolsEnabled bool `envconfig:"BUILTIN_TOOLS_ENABLED" default:"true"`

	// Plugin directory configurations
	Plugins Plugins `envconfig:"PLUGINS"`

	// Sandbox template builder defaults
	Sandbox Sandbox `envconfig:"SANDBOX"`

	// Audit trail database configurations
	Audit Audit `envconfig:"AUDIT"`

	// JWT Authentication configurations
	JWT JWT `envconfig:"JWT"`

	// WebSocket event-stream configurations
	WebSocket WebSocket `envconfig:"WEBSOCKET"`

	// TLS configurations
	TLS TLS `envconfig:"TLS"`
}

// Plugins holds the on-disk layout the Lifecycle Manager owns exclusively.
type Plugins struct {
	Dir         string `envconfig:"DIR" default:"./data/plugins"`
	DownloadDir string `envconfig:"DOWNLOAD_DIR" default:"./data/plugins/downloads"`
}

// Sandbox holds the Sandbox Template Builder's configured defaults for
// allow_stdout/allow_stderr/allow_args, applied when a policy doesn't
// override them.
type Sandbox struct {
	AllowStdout bool `envconfig:"ALLOW_STDOUT" default:"false"`
	AllowStderr bool `envconfig:"ALLOW_STDERR" default:"true"`
	AllowArgs   bool `envconfig:"ALLOW_ARGS" default:"true"`
}

// TLS holds TLS certificate configuration.
type TLS struct {
	CertDir string `envconfig:"CERT_DIR" default:"./data/certs"`
}

// JWT holds JWT-specific configuration for the control API.
type JWT struct {
	SecretKey      string   `envconfig:"SECRET_KEY" default:"your-secret-key-change-in-production"`
	Issuer         string   `envconfig:"ISSUER" default:"componenthost"`
	SkipPaths      []string `envconfig:"SKIP_PATHS" default:"/health,/metrics"`
	SkipValidation bool     `envconfig:"SKIP_VALIDATION" default:"true"` // Skip signature validation for development
}

// WebSocket holds the lifecycle event-stream's connection limits.
type WebSocket struct {
	MaxConnections    int `envconfig:"WS_MAX_CONNECTIONS" default:"1000"`
	ConnectionTimeout int `envconfig:"WS_CONNECTION_TIMEOUT" default:"30"` // seconds
	RateLimitPerMin   int `envconfig:"WS_RATE_LIMIT_PER_MINUTE" default:"10"`
}

// Audit holds the audit-trail database configuration. Only SQLite is
// supported (see DESIGN.md for why Postgres support was dropped).
type Audit struct {
	Driver          string `envconfig:"DRIVER" default:"sqlite3"`
	Path            string `envconfig:"DB_PATH" default:"./data/audit.db"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME" default:"300"` // seconds

	// ExecuteSchemaDDL controls whether to run the schema DDL on startup.
	ExecuteSchemaDDL bool `envconfig:"EXECUTE_SCHEMA_DDL" default:"true"`
}

var (
	processOnce     sync.Once
	settingInstance *Server
)

// GetConfig initializes and returns a singleton instance of the Server
// configuration struct. It uses sync.Once to ensure that the initialization
// logic is executed only once, making it safe for concurrent use. If there is
// an error during initialization, the function panics.
func GetConfig() *Server {
	var err error
	processOnce.Do(func() {
		settingInstance = &Server{}
		err = envconfig.Process("", settingInstance)
		if err == nil {
			err = validatePluginsConfig(&settingInstance.Plugins)
		}
	})
	if err != nil {
		panic(err)
	}
	return settingInstance
}

// validatePluginsConfig ensures the Lifecycle Manager has a directory to own
// exclusively; an empty value would resolve to the process's working
// directory, which is never what an operator intends.
func validatePluginsConfig(cfg *Plugins) error {
	if cfg.Dir == "" {
		return fmt.Errorf("plugin directory is not configured: set PLUGINS_DIR")
	}
	if cfg.DownloadDir == "" {
		return fmt.Errorf("plugin download directory is not configured: set PLUGINS_DOWNLOAD_DIR")
	}
	return nil
}
