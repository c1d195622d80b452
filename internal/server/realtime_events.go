package server

import (
	"context"
	"encoding/json"
	"log"

	"prismic/internal/observability"
)

// feedEvent is the wire format pushed to connected feed sockets.
type feedEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// publishFeedEvent broadcasts an event to every feed viewer via Redis
// pub/sub. Publishing is best-effort: a failure is logged, never surfaced
// to the request that triggered it.
func (s *Server) publishFeedEvent(ctx context.Context, eventType string, payload any) {
	if s.notifier == nil {
		return
	}

	raw, err := json.Marshal(feedEvent{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("marshal feed event %s: %v", eventType, err)
		return
	}

	if err := s.notifier.PublishBroadcast(ctx, string(raw)); err != nil {
		log.Printf("publish feed event %s: %v", eventType, err)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
}

// publishUserEvent sends an event to a single user's feed sockets.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	if s.notifier == nil {
		return
	}

	raw, err := json.Marshal(feedEvent{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("marshal feed event %s: %v", eventType, err)
		return
	}

	if err := s.notifier.PublishUser(ctx, userID, string(raw)); err != nil {
		log.Printf("publish feed event %s: %v", eventType, err)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
}
