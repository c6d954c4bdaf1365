/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package events

import (
	"sync"
	"time"
)

// Subscriber represents an operator tool connected to the lifecycle event
// stream. This wrapper decouples subscriber management from the underlying
// transport protocol.
//
// Design rationale: By wrapping the Transport interface, we can:
//   - Track subscriber metadata (connection time, heartbeat status)
//   - Support multiple transport implementations (WebSocket, SSE, gRPC)
//   - Manage subscriber lifecycle (connect, heartbeat, disconnect) uniformly
type Subscriber struct {
	// ID uniquely identifies this subscriber connection.
	ID string

	// ConnectedAt records when the subscriber connected.
	ConnectedAt time.Time

	// LastHeartbeat records the timestamp of the most recent heartbeat (pong)
	// received. Updated automatically by the pong handler.
	LastHeartbeat time.Time

	// Transport provides the underlying protocol implementation for message
	// delivery. Abstraction allows swapping WebSocket for other protocols
	// without changing broadcast logic.
	Transport Transport

	mu     sync.RWMutex
	closed bool
}

// NewSubscriber creates a new Subscriber wrapper around transport.
func NewSubscriber(id string, transport Transport) *Subscriber {
	now := time.Now()
	return &Subscriber{
		ID:            id,
		ConnectedAt:   now,
		LastHeartbeat: now,
		Transport:     transport,
	}
}

// Send delivers a message to the subscriber through the underlying
// transport. Thread-safe; can be called concurrently with Close.
func (s *Subscriber) Send(message []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrConnectionClosed
	}
	return s.Transport.Send(message)
}

// Close terminates the subscriber connection gracefully. Idempotent.
func (s *Subscriber) Close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Transport.Close(code, reason)
}

// IsClosed reports whether the subscriber has been explicitly closed.
func (s *Subscriber) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// UpdateHeartbeat records the current time as the last heartbeat timestamp.
func (s *Subscriber) UpdateHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastHeartbeat = time.Now()
}

// GetLastHeartbeat returns the timestamp of the most recent heartbeat.
func (s *Subscriber) GetLastHeartbeat() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastHeartbeat
}

// Status represents the current state of a subscriber for monitoring.
type Status struct {
	ID            string    `json:"id"`
	ConnectedAt   time.Time `json:"connectedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	State         string    `json:"state"` // "connected", "stale", "closed"
}

// GetStatus returns the current subscriber status for monitoring
// (Broadcaster.Statuses).
func (s *Subscriber) GetStatus(heartbeatTimeout time.Duration) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := "connected"
	if s.closed {
		state = "closed"
	} else if time.Since(s.LastHeartbeat) > heartbeatTimeout {
		state = "stale"
	}

	return Status{
		ID:            s.ID,
		ConnectedAt:   s.ConnectedAt,
		LastHeartbeat: s.LastHeartbeat,
		State:         state,
	}
}
