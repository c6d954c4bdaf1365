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

package main

import (
	"context"
	"log"
	"time"

	"componenthost/src/config"
	"componenthost/src/internal/audit"
	"componenthost/src/internal/controlapi"
	"componenthost/src/internal/engine"
	"componenthost/src/internal/events"
	"componenthost/src/internal/fetch"
	"componenthost/src/internal/lifecycle"
	"componenthost/src/internal/model"
	"componenthost/src/internal/policystore"
	"componenthost/src/internal/registry"
)

func main() {
	cfg := config.GetConfig()

	auditDB, err := audit.NewConnection(&cfg.Audit)
	if err != nil {
		log.Fatal("Failed to open audit database:", err)
	}
	if cfg.Audit.ExecuteSchemaDDL {
		if err := auditDB.InitSchema(); err != nil {
			log.Fatal("Failed to initialize audit schema:", err)
		}
	}

	fetcher := fetch.NewFetcher(cfg.Plugins.DownloadDir, nil)
	reg := registry.New()
	defaults := model.SandboxDefaults{
		AllowStdout: cfg.Sandbox.AllowStdout,
		AllowStderr: cfg.Sandbox.AllowStderr,
		AllowArgs:   cfg.Sandbox.AllowArgs,
	}
	policies := policystore.New(cfg.Plugins.Dir, fetcher, defaults)

	// The execution engine (compilation, linking of host capability
	// wirings, instantiation) is an external collaborator the core only
	// consumes through the narrow engine.ComponentEngine interface; no
	// concrete WebAssembly runtime ships in this repository. Operators
	// wire a real engine.ComponentEngine here.
	var eng engine.ComponentEngine = engine.NewFakeEngine()

	manager := lifecycle.New(cfg.Plugins.Dir, eng, fetcher, reg, policies)
	if err := manager.Restore(context.Background()); err != nil {
		log.Fatal("Failed to restore plugin directory state:", err)
	}

	broadcasterDefaults := events.DefaultBroadcasterConfig()
	broadcaster := events.NewBroadcaster(events.BroadcasterConfig{
		MaxSubscribers:    cfg.WebSocket.MaxConnections,
		HeartbeatInterval: broadcasterDefaults.HeartbeatInterval,
		HeartbeatTimeout:  time.Duration(cfg.WebSocket.ConnectionTimeout) * time.Second,
	})

	srv := controlapi.NewServer(cfg, manager, auditDB, broadcaster)

	log.Println("Starting component host control API...")
	if err := srv.Start(cfg.Port, cfg.TLS.CertDir); err != nil {
		log.Fatal("Failed to start control API server:", err)
	}
}
