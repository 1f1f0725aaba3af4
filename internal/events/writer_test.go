package events

import (
	"context"
	"testing"
	"time"

	"mprs/internal/db"
	"mprs/internal/migrate"
)

func newTestWriter(t *testing.T) Writer {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Writer{DB: conn, Now: func() time.Time {
		return time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	}}
}

func TestAppendAndTail(t *testing.T) {
	w := newTestWriter(t)
	ctx := context.Background()

	if err := w.Append(ctx, "requisition.submit", "requisition", "MPRS-1", EventPayload{"items": 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(ctx, "requisition.export", "document", "MPRS-1.pdf", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	evts, err := w.Tail(ctx, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	if evts[0].Type != "requisition.export" || evts[1].Type != "requisition.submit" {
		t.Fatalf("events not newest-first: %+v", evts)
	}
	if evts[0].TS != "2024-05-06T10:00:00Z" {
		t.Fatalf("timestamp %q", evts[0].TS)
	}
	if evts[0].Payload != "{}" {
		t.Fatalf("nil payload should serialize empty: %q", evts[0].Payload)
	}
}

func TestTailLimit(t *testing.T) {
	w := newTestWriter(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if err := w.Append(ctx, "requisition.submit", "requisition", "", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	evts, err := w.Tail(ctx, 0)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(evts) != 20 {
		t.Fatalf("default limit should cap at 20, got %d", len(evts))
	}
	evts, err = w.Tail(ctx, 5)
	if err != nil || len(evts) != 5 {
		t.Fatalf("explicit limit: %d, %v", len(evts), err)
	}
}
