package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry captures an immutable record of one provider operation. The journal
// observes outcomes for reconciliation and support; session state always
// comes from the provider, never from here.
type Entry struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Operation string         `gorm:"type:text;not null;index"`
	SessionID string         `gorm:"type:text;index"`
	RefundID  string         `gorm:"type:text;index"`
	Status    string         `gorm:"type:text;not null"`
	Amount    int64          `gorm:"not null;default:0"`
	Currency  string         `gorm:"type:text"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "operation_journal" }

// Recorder appends operation entries.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Entry, error)
}
