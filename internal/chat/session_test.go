package chat

import (
	"context"
	"testing"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
)

type countingAssistant struct{ id int }

func (c *countingAssistant) Search(ctx context.Context, req assistant.SearchRequest) (*assistant.SearchResult, error) {
	return &assistant.SearchResult{}, nil
}

func TestSessionManagerCreatesLazilyAndReuses(t *testing.T) {
	created := 0
	m := NewSessionManager(func() Assistant {
		created++
		return &countingAssistant{id: created}
	})

	if created != 0 || m.Len() != 0 {
		t.Fatalf("factory ran before first use: created=%d live=%d", created, m.Len())
	}

	a := m.Session("s1")
	if a != m.Session("s1") {
		t.Error("same session id returned different pipelines")
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	m.Session("s2")
	if created != 2 || m.Len() != 2 {
		t.Errorf("after two sessions: created=%d live=%d, want 2/2", created, m.Len())
	}
}

func TestSessionManagerDropStartsFresh(t *testing.T) {
	created := 0
	m := NewSessionManager(func() Assistant {
		created++
		return &countingAssistant{id: created}
	})

	first := m.Session("s1").(*countingAssistant)
	m.Drop("s1")
	if m.Len() != 0 {
		t.Errorf("live = %d after drop, want 0", m.Len())
	}
	second := m.Session("s1").(*countingAssistant)
	if first.id == second.id {
		t.Error("dropped session came back with the old pipeline")
	}

	// Dropping an unknown id is a no-op.
	m.Drop("never-seen")
}
