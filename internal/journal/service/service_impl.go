package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wavepay/internal/journal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) domain.Recorder {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("journal.service"),
		genID: p.GenID,
	}
}

// Record appends an entry. Callers treat failures as non-fatal.
func (s *Service) Record(ctx context.Context, entry *domain.Entry) error {
	if entry == nil {
		return domain.ErrNilEntry
	}
	if strings.TrimSpace(entry.Operation) == "" {
		return domain.ErrMissingOperation
	}
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.log.Warn("journal write failed",
			zap.String("operation", entry.Operation),
			zap.String("session_id", entry.SessionID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListBySession returns the newest entries for a session.
func (s *Service) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Entry, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrMissingSessionID
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	var entries []domain.Entry
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
