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

package audit

import (
	"path/filepath"
	"testing"

	"componenthost/src/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.Audit{
		Driver:          "sqlite3",
		Path:            filepath.Join(t.TempDir(), "audit.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 300,
	}
	db, err := NewConnection(cfg)
	if err != nil {
		t.Fatalf("open audit db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestRecordAndListForComponent(t *testing.T) {
	db := newTestDB(t)

	if err := db.Record("a", EventComponentLoaded, "New", 100); err != nil {
		t.Fatalf("record load: %v", err)
	}
	if err := db.Record("b", EventComponentLoaded, "New", 101); err != nil {
		t.Fatalf("record other component: %v", err)
	}
	if err := db.Record("a", EventPolicyAttached, "file:///p.yaml", 102); err != nil {
		t.Fatalf("record attach: %v", err)
	}
	if err := db.Record("a", EventComponentUnloaded, "", 103); err != nil {
		t.Fatalf("record unload: %v", err)
	}

	events, err := db.ListForComponent("a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("want 3 events for component a, got %d", len(events))
	}
	wantTypes := []string{EventComponentLoaded, EventPolicyAttached, EventComponentUnloaded}
	for i, want := range wantTypes {
		if events[i].EventType != want {
			t.Errorf("event %d: want type %s, got %s", i, want, events[i].EventType)
		}
		if events[i].ComponentID != "a" {
			t.Errorf("event %d: want component a, got %s", i, events[i].ComponentID)
		}
	}
	if events[1].Detail != "file:///p.yaml" {
		t.Errorf("want attach detail preserved, got %q", events[1].Detail)
	}
}

func TestListForUnknownComponentIsEmpty(t *testing.T) {
	db := newTestDB(t)
	events, err := db.ListForComponent("nope")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("want no events, got %d", len(events))
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.InitSchema(); err != nil {
		t.Fatalf("second InitSchema: %v", err)
	}
	if err := db.Record("a", EventPermissionGranted, "network", 1); err != nil {
		t.Fatalf("record after re-init: %v", err)
	}
}
