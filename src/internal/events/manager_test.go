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
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport used to test Broadcaster/Subscriber
// wiring without a real network connection.
type fakeTransport struct {
	mu          sync.Mutex
	sent        [][]byte
	closed      bool
	closeCode   int
	closeReason string
	sendErr     error
	pingErr     error
	pongHandler func(string) error
}

func (f *fakeTransport) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
	return nil
}

func (f *fakeTransport) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeTransport) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeTransport) EnablePongHandler(handler func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pongHandler = handler
}

func (f *fakeTransport) SendPing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeTransport) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegisterAndBroadcastDeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster(DefaultBroadcasterConfig())
	transport := &fakeTransport{}

	sub, err := b.Register(transport)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Count())
	}

	b.Broadcast(Event{Type: EventComponentLoaded, ComponentID: "abc", OccurredAt: 1})

	msgs := transport.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 delivered message, got %d", len(msgs))
	}
	var got Event
	if err := json.Unmarshal(msgs[0], &got); err != nil {
		t.Fatalf("unmarshal delivered event: %v", err)
	}
	if got.Type != EventComponentLoaded || got.ComponentID != "abc" {
		t.Fatalf("unexpected event payload: %+v", got)
	}

	b.Unregister(sub.ID)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers after unregister, got %d", b.Count())
	}
	if !transport.isClosed() {
		t.Fatal("expected transport to be closed on unregister")
	}
}

func TestBroadcastUnregistersFailingSubscriber(t *testing.T) {
	b := NewBroadcaster(DefaultBroadcasterConfig())
	good := &fakeTransport{}
	bad := &fakeTransport{sendErr: errConnectionClosedForTest}

	if _, err := b.Register(good); err != nil {
		t.Fatalf("Register good failed: %v", err)
	}
	if _, err := b.Register(bad); err != nil {
		t.Fatalf("Register bad failed: %v", err)
	}
	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Broadcast(Event{Type: EventComponentUnloaded, ComponentID: "x", OccurredAt: 2})

	if b.Count() != 1 {
		t.Fatalf("expected failing subscriber to be unregistered, got %d subscribers", b.Count())
	}
	if len(good.messages()) != 1 {
		t.Fatalf("expected good subscriber to receive the event")
	}
}

func TestRegisterRejectsAtMaxSubscribers(t *testing.T) {
	b := NewBroadcaster(BroadcasterConfig{MaxSubscribers: 1, HeartbeatInterval: time.Minute, HeartbeatTimeout: time.Minute})

	if _, err := b.Register(&fakeTransport{}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := b.Register(&fakeTransport{})
	if err == nil {
		t.Fatal("expected error registering beyond max subscribers")
	}
	if _, ok := err.(*MaxSubscribersError); !ok {
		t.Fatalf("expected *MaxSubscribersError, got %T", err)
	}
}

func TestShutdownClosesAllSubscribers(t *testing.T) {
	b := NewBroadcaster(DefaultBroadcasterConfig())
	t1 := &fakeTransport{}
	t2 := &fakeTransport{}
	if _, err := b.Register(t1); err != nil {
		t.Fatalf("Register t1: %v", err)
	}
	if _, err := b.Register(t2); err != nil {
		t.Fatalf("Register t2: %v", err)
	}

	b.Shutdown()

	if !t1.isClosed() || !t2.isClosed() {
		t.Fatal("expected all transports to be closed after Shutdown")
	}
}

func TestSubscriberStatusReflectsHeartbeat(t *testing.T) {
	sub := NewSubscriber("s1", &fakeTransport{})
	status := sub.GetStatus(time.Minute)
	if status.State != "connected" {
		t.Fatalf("expected connected state, got %s", status.State)
	}

	sub.LastHeartbeat = time.Now().Add(-time.Hour)
	status = sub.GetStatus(time.Minute)
	if status.State != "stale" {
		t.Fatalf("expected stale state, got %s", status.State)
	}

	if err := sub.Close(1000, "done"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	status = sub.GetStatus(time.Minute)
	if status.State != "closed" {
		t.Fatalf("expected closed state, got %s", status.State)
	}
	if err := sub.Send([]byte("x")); err != ErrConnectionClosed {
		t.Fatalf("expected ErrConnectionClosed sending on closed subscriber, got %v", err)
	}
}

var errConnectionClosedForTest = &ConnectionError{Message: "simulated send failure"}
