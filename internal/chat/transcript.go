// Package chat exposes the assistant over a websocket session with a
// redis-backed transcript.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
)

const transcriptTTL = 24 * time.Hour

// TranscriptStore keeps per-session conversation transcripts in redis. Turns
// are stored already sanitized; the orchestrator strips identifiers before
// anything reaches this store.
type TranscriptStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewTranscriptStore wraps a redis client.
func NewTranscriptStore(rdb *redis.Client) *TranscriptStore {
	if rdb == nil {
		panic("chat: redis client cannot be nil")
	}
	return &TranscriptStore{
		redis:  rdb,
		tracer: otel.Tracer("carl/transcripts"),
	}
}

// Save replaces the session transcript and refreshes its TTL.
func (s *TranscriptStore) Save(ctx context.Context, sessionID string, turns []assistant.Turn) error {
	ctx, span := s.tracer.Start(ctx, "transcript.save")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal transcript: %w", err)
	}
	if err := s.redis.Set(ctx, transcriptKey(sessionID), data, transcriptTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist transcript: %w", err)
	}
	return nil
}

// Load returns the session transcript; a missing session is an empty one.
func (s *TranscriptStore) Load(ctx context.Context, sessionID string) ([]assistant.Turn, error) {
	ctx, span := s.tracer.Start(ctx, "transcript.load")
	defer span.End()

	data, err := s.redis.Get(ctx, transcriptKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load transcript: %w", err)
	}

	var turns []assistant.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode transcript: %w", err)
	}
	return turns, nil
}

// Append adds turns to the session transcript.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, turns ...assistant.Turn) error {
	existing, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.Save(ctx, sessionID, append(existing, turns...))
}

// Clear deletes the session transcript.
func (s *TranscriptStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("chat: failed to clear transcript: %w", err)
	}
	return nil
}

func transcriptKey(id string) string {
	return fmt.Sprintf("transcript:%s", id)
}
