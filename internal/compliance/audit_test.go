package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLogEventInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs(sqlmock.AnyArg(), EventCrisisDetected, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewAuditService(db, nil)
	err = s.LogEvent(context.Background(), AuditEvent{
		Event:  EventCrisisDetected,
		Detail: "mental_health",
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLogEventGeneratesIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewAuditService(db, nil)
	if err := s.LogEvent(context.Background(), AuditEvent{Event: EventPIIRedacted}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnError(context.DeadlineExceeded)

	s := NewAuditService(db, nil)
	// Must not panic or propagate.
	s.Record(context.Background(), EventTorUnavailable, "tor mode requested without a tor channel")
}

func TestQueryEventsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "event", "session_id", "detail", "created_at"}).
		AddRow("e1", EventQuickAnswerServed, "s1", "About 211", now).
		AddRow("e2", EventQuickAnswerServed, "s1", "About Carl", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT id, event, session_id, detail, created_at").
		WithArgs(EventQuickAnswerServed, "s1").
		WillReturnRows(rows)

	s := NewAuditService(db, nil)
	events, err := s.QueryEvents(context.Background(), AuditFilter{
		Event:     EventQuickAnswerServed,
		SessionID: "s1",
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("QueryEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "e1" || events[0].SessionID != "s1" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
