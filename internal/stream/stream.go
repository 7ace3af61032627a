package stream

import (
	"context"
	"sync"
	"time"
)

// ProcessingEvent describes a change in a report's processing status. The
// dashboard subscribes so an upload flips from "processing" to "completed"
// without polling.
type ProcessingEvent struct {
	ReportID  string    `json:"reportId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream fan-outs processing events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan ProcessingEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan ProcessingEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan ProcessingEvent {
	ch := make(chan ProcessingEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt ProcessingEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
