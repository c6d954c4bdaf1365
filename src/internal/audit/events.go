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

import "fmt"

// Event types recorded to the audit trail. These mirror the Lifecycle
// Manager's state machine transitions.
const (
	EventComponentLoaded     = "component_loaded"
	EventComponentUnloaded   = "component_unloaded"
	EventComponentUninstalled = "component_uninstalled"
	EventPolicyAttached      = "policy_attached"
	EventPolicyDetached      = "policy_detached"
	EventPermissionGranted   = "permission_granted"
)

// Event is one row of the audit_events table.
type Event struct {
	ID          int64
	ComponentID string
	EventType   string
	Detail      string
	OccurredAt  int64
}

// Record inserts a new audit event. occurredAt is passed in by the caller
// (rather than read from time.Now here) so callers share a single clock read
// per request and tests can supply deterministic timestamps.
func (db *DB) Record(componentID, eventType, detail string, occurredAt int64) error {
	_, err := db.Exec(
		`INSERT INTO audit_events (component_id, event_type, detail, occurred_at) VALUES (?, ?, ?, ?)`,
		componentID, eventType, detail, occurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// ListForComponent returns every audit event recorded for componentID,
// oldest first.
func (db *DB) ListForComponent(componentID string) ([]Event, error) {
	rows, err := db.Query(
		`SELECT id, component_id, event_type, detail, occurred_at FROM audit_events WHERE component_id = ? ORDER BY occurred_at ASC, id ASC`,
		componentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ComponentID, &e.EventType, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
