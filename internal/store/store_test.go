package store

import (
	"context"
	"database/sql"
	"testing"

	"mprs/internal/db"
	"mprs/internal/domain"
	"mprs/internal/migrate"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestLoadFirstRunIsEmpty(t *testing.T) {
	s := New(newTestDB(t), nil)
	hist, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(hist))
	}
}

func TestLoadUnparsableBlobIsEmpty(t *testing.T) {
	conn := newTestDB(t)
	if _, err := conn.Exec(`INSERT INTO blobs(key,value) VALUES (?,?)`, historyKey, "not json"); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	s := New(conn, nil)
	hist, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unparsable blob should not error: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(hist))
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := New(newTestDB(t), nil)
	ctx := context.Background()

	hist := []domain.Requisition{
		{MPRSNo: "R-2", MPRSDate: "2024-05-02", Status: domain.StatusPending,
			Items: []domain.LineItem{{ItemName: "Cement", Quantity: "20", Unit: "Bag"}}},
		{MPRSNo: "R-1", MPRSDate: "2024-05-01", Status: domain.StatusApproved},
	}
	if err := s.Save(ctx, hist); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].MPRSNo != "R-2" || got[1].MPRSNo != "R-1" {
		t.Fatalf("roundtrip lost order: %+v", got)
	}
	if got[0].Items[0].ItemName != "Cement" {
		t.Fatalf("items not preserved: %+v", got[0].Items)
	}
}

func TestSaveOverwritesPreviousBlob(t *testing.T) {
	s := New(newTestDB(t), nil)
	ctx := context.Background()

	if err := s.Save(ctx, []domain.Requisition{{MPRSNo: "R-1"}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, []domain.Requisition{{MPRSNo: "R-2"}, {MPRSNo: "R-1"}}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].MPRSNo != "R-2" {
		t.Fatalf("second save did not replace blob: %+v", got)
	}
}
