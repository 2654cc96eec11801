// Package compliance records privacy-relevant events for later review.
package compliance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// Event names written to the audit log.
const (
	EventCrisisDetected    = "crisis_detected"
	EventPIIRedacted       = "pii_redacted"
	EventTorUnavailable    = "tor_unavailable"
	EventQuickAnswerServed = "quick_answer_served"
)

// AuditEvent is one immutable audit record. Detail strings must never carry
// message text; callers sanitize before handing anything to this package.
type AuditEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	SessionID string    `json:"session_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditService persists audit events to Postgres.
type AuditService struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAuditService creates an audit service over an open database handle.
func NewAuditService(db *sql.DB, logger *logging.Logger) *AuditService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditService{db: db, logger: logger.Component("audit")}
}

// LogEvent records one audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (id, event, session_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Event,
		nullString(event.SessionID),
		nullString(event.Detail),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// Record satisfies the orchestrator's audit hook. Write failures are logged
// and dropped; auditing must never take down the answering path.
func (s *AuditService) Record(ctx context.Context, event, detail string) {
	if err := s.LogEvent(ctx, AuditEvent{Event: event, Detail: detail}); err != nil {
		s.logger.Error("audit write failed", "event", event, "error", err)
	}
}

// AuditFilter narrows a QueryEvents call.
type AuditFilter struct {
	Event     string
	SessionID string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// QueryEvents retrieves audit events, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event, session_id, detail, created_at
		FROM audit_events
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Event != "" {
		query += fmt.Sprintf(" AND event = $%d", argIdx)
		args = append(args, filter.Event)
		argIdx++
	}
	if filter.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var sessionID, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Event, &sessionID, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.SessionID = sessionID.String
		e.Detail = detail.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: audit query iteration: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
