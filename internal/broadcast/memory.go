// Package broadcast carries sync messages between draft sessions editing the
// same case. Implementations are downstream mirrors only: they never act as a
// source of truth for concurrent writers.
package broadcast

import (
	"context"
	"sync"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

const defaultStreamBuffer = 16

// MemoryHub is an in-process broadcast channel namespaced per case. Delivery
// is best effort: a subscriber with a full buffer drops the message rather
// than blocking the publisher.
type MemoryHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*hubSubscriber
	nextID      int64
	bufferSize  int
}

type hubSubscriber struct {
	id     int64
	stream chan draft.SyncMessage
}

// NewMemoryHub constructs an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		subscribers: make(map[string]map[int64]*hubSubscriber),
		bufferSize:  defaultStreamBuffer,
	}
}

// Subscribe registers a stream for the case. The returned cleanup closes the
// stream; cancelling the context has the same effect.
func (h *MemoryHub) Subscribe(ctx context.Context, caseID draft.CaseID) (<-chan draft.SyncMessage, func()) {
	if caseID == "" {
		closed := make(chan draft.SyncMessage)
		close(closed)
		return closed, func() {}
	}

	subscriber := &hubSubscriber{
		id:     h.nextSequence(),
		stream: make(chan draft.SyncMessage, h.bufferSize),
	}
	h.register(caseID.String(), subscriber)

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.unregister(caseID.String(), subscriber.id)
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish fans the message out to every subscriber of its case, including the
// originating session; receivers filter by client identifier.
func (h *MemoryHub) Publish(ctx context.Context, message draft.SyncMessage) error {
	if message.CaseID == "" || message.Type == "" {
		return nil
	}

	// Sends happen under the read lock so a concurrent unregister cannot
	// close a stream mid-publish. Sends never block, so holding the lock
	// is bounded.
	h.mu.RLock()
	for _, subscriber := range h.subscribers[message.CaseID] {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
	h.mu.RUnlock()
	return nil
}

func (h *MemoryHub) nextSequence() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}

func (h *MemoryHub) register(caseID string, subscriber *hubSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[caseID]; !ok {
		h.subscribers[caseID] = make(map[int64]*hubSubscriber)
	}
	h.subscribers[caseID][subscriber.id] = subscriber
}

func (h *MemoryHub) unregister(caseID string, subscriberID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subscribers := h.subscribers[caseID]
	if subscribers == nil {
		return
	}
	if subscriber, ok := subscribers[subscriberID]; ok {
		delete(subscribers, subscriberID)
		close(subscriber.stream)
	}
	if len(subscribers) == 0 {
		delete(h.subscribers, caseID)
	}
}
