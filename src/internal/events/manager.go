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

// Package events broadcasts Lifecycle Manager state transitions (component
// loaded/unloaded/uninstalled, policy attached/detached, permission granted)
// to connected operator tooling over a transport-agnostic connection
// abstraction. Delivery is best-effort: the audit log, not this stream, is
// the durable record (see DESIGN.md).
package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one lifecycle transition broadcast to subscribers.
type Event struct {
	Type        string `json:"type"`
	ComponentID string `json:"component_id"`
	Detail      string `json:"detail,omitempty"`
	OccurredAt  int64  `json:"occurred_at"`
}

// Event type constants mirror internal/audit's event_type values so the
// live stream and the durable trail agree on vocabulary.
const (
	EventComponentLoaded      = "component_loaded"
	EventComponentUnloaded    = "component_unloaded"
	EventComponentUninstalled = "component_uninstalled"
	EventPolicyAttached       = "policy_attached"
	EventPolicyDetached       = "policy_detached"
	EventPermissionGranted    = "permission_granted"
)

// Broadcaster fans a lifecycle event out to every connected subscriber. It
// maintains an in-memory registry of active subscriber connections, manages
// heartbeats, and handles graceful/ungraceful disconnection.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	maxSubscribers    int
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// BroadcasterConfig configures a Broadcaster.
type BroadcasterConfig struct {
	MaxSubscribers    int           // Maximum concurrent subscriber connections (default 1000)
	HeartbeatInterval time.Duration // Ping interval (default 20s)
	HeartbeatTimeout  time.Duration // Pong timeout (default 30s)
}

// DefaultBroadcasterConfig returns sensible default configuration values.
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		MaxSubscribers:    1000,
		HeartbeatInterval: 20 * time.Second,
		HeartbeatTimeout:  30 * time.Second,
	}
}

// NewBroadcaster creates a new event broadcaster with the provided configuration.
func NewBroadcaster(cfg BroadcasterConfig) *Broadcaster {
	return &Broadcaster{
		subscribers:       make(map[string]*Subscriber),
		maxSubscribers:    cfg.MaxSubscribers,
		heartbeatInterval: cfg.HeartbeatInterval,
		heartbeatTimeout:  cfg.HeartbeatTimeout,
		shutdownCh:        make(chan struct{}),
	}
}

// Register adds a new subscriber and starts heartbeat monitoring for it.
// Returns a MaxSubscribersError if the configured limit has been reached.
func (b *Broadcaster) Register(transport Transport) (*Subscriber, error) {
	b.mu.Lock()
	if len(b.subscribers) >= b.maxSubscribers {
		count := len(b.subscribers)
		b.mu.Unlock()
		return nil, &MaxSubscribersError{CurrentCount: count, MaxAllowed: b.maxSubscribers}
	}
	sub := NewSubscriber(uuid.New().String(), transport)
	b.subscribers[sub.ID] = sub
	total := len(b.subscribers)
	b.mu.Unlock()

	b.wg.Add(1)
	go b.monitorHeartbeat(sub)

	log.Printf("[INFO] Event subscriber connected: id=%s totalSubscribers=%d", sub.ID, total)
	return sub, nil
}

// Unregister removes a subscriber and closes it gracefully. Idempotent.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	total := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	if err := sub.Close(1000, "normal closure"); err != nil {
		log.Printf("[ERROR] Failed to close subscriber: id=%s error=%v", id, err)
	}
	log.Printf("[INFO] Event subscriber disconnected: id=%s totalSubscribers=%d", id, total)
}

// Broadcast publishes event to every connected subscriber, dropping (and
// unregistering) any that fail to receive it.
func (b *Broadcaster) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal lifecycle event: %v", err)
		return
	}

	b.mu.RLock()
	targets := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.Send(payload); err != nil {
			log.Printf("[WARN] Failed to deliver event to subscriber: id=%s error=%v", sub.ID, err)
			b.Unregister(sub.ID)
		}
	}
}

// Count returns the number of currently connected subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Statuses returns the current Status of every connected subscriber.
func (b *Broadcaster) Statuses() []Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Status, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		out = append(out, sub.GetStatus(b.heartbeatTimeout))
	}
	return out
}

func (b *Broadcaster) monitorHeartbeat(sub *Subscriber) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.heartbeatInterval)
	defer ticker.Stop()

	sub.Transport.EnablePongHandler(func(string) error {
		sub.UpdateHeartbeat()
		return nil
	})

	for {
		select {
		case <-b.shutdownCh:
			return
		case <-ticker.C:
			if sub.IsClosed() {
				return
			}
			if time.Since(sub.GetLastHeartbeat()) > b.heartbeatTimeout {
				log.Printf("[WARN] Heartbeat timeout: id=%s lastHeartbeat=%v", sub.ID, sub.GetLastHeartbeat())
				b.Unregister(sub.ID)
				return
			}
			if err := sub.Transport.SendPing(); err != nil {
				log.Printf("[ERROR] Failed to send ping: id=%s error=%v", sub.ID, err)
				b.Unregister(sub.ID)
				return
			}
		}
	}
}

// Shutdown gracefully closes every subscriber and stops heartbeat
// monitoring, waiting for all monitor goroutines to exit.
func (b *Broadcaster) Shutdown() {
	log.Println("[INFO] Shutting down event broadcaster...")
	close(b.shutdownCh)

	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Close(1000, "server shutdown"); err != nil {
			log.Printf("[ERROR] Failed to close subscriber during shutdown: id=%s error=%v", sub.ID, err)
		}
	}

	b.wg.Wait()
	log.Println("[INFO] Event broadcaster shutdown complete")
}
