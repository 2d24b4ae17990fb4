package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wavepay/internal/journal/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupJournalTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec("DELETE FROM operation_journal").Error; err != nil {
		t.Fatalf("reset table: %v", err)
	}
	return db
}

func newJournal(t *testing.T, db *gorm.DB) domain.Recorder {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return NewService(Params{DB: db, Log: zap.NewNop(), GenID: node})
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	db := setupJournalTestDB(t)
	svc := newJournal(t, db)

	entry := &domain.Entry{
		Operation: "checkout.authorize",
		SessionID: "cos-1",
		Status:    "pending",
		Amount:    1000,
		Currency:  "XOF",
		Payload:   datatypes.JSON([]byte(`{"id":"cos-1"}`)),
	}
	if err := svc.Record(context.Background(), entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestRecordRejectsMissingOperation(t *testing.T) {
	db := setupJournalTestDB(t)
	svc := newJournal(t, db)

	err := svc.Record(context.Background(), &domain.Entry{SessionID: "cos-1"})
	if !errors.Is(err, domain.ErrMissingOperation) {
		t.Fatalf("expected ErrMissingOperation, got %v", err)
	}
}

func TestListBySessionReturnsNewestFirst(t *testing.T) {
	db := setupJournalTestDB(t)
	svc := newJournal(t, db)

	for _, op := range []string{"checkout.authorize", "checkout.sync", "checkout.refund"} {
		if err := svc.Record(context.Background(), &domain.Entry{
			Operation: op,
			SessionID: "cos-list",
			Status:    "pending",
		}); err != nil {
			t.Fatalf("record %s: %v", op, err)
		}
	}
	if err := svc.Record(context.Background(), &domain.Entry{
		Operation: "checkout.sync",
		SessionID: "cos-other",
		Status:    "completed",
	}); err != nil {
		t.Fatalf("record other session: %v", err)
	}

	entries, err := svc.ListBySession(context.Background(), "cos-list", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Operation != "checkout.refund" {
		t.Fatalf("expected newest first, got %s", entries[0].Operation)
	}
}

func TestListBySessionRequiresSessionID(t *testing.T) {
	db := setupJournalTestDB(t)
	svc := newJournal(t, db)

	if _, err := svc.ListBySession(context.Background(), "  ", 10); !errors.Is(err, domain.ErrMissingSessionID) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
}
