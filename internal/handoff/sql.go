package handoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cafe-storefront/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SQLSubstrate stores slots as rows of handoff_records. Take deletes the row
// inside a transaction; only the caller whose delete affects the row wins.
type SQLSubstrate struct {
	tx  txRunner
	now func() time.Time
}

func NewSQLSubstrate(tx txRunner) (*SQLSubstrate, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &SQLSubstrate{tx: tx, now: time.Now}, nil
}

func (s *SQLSubstrate) Put(ctx context.Context, key Key, payload []byte, ttl time.Duration) error {
	now := s.now().UTC()
	record := models.HandoffRecord{
		Scope:     key.Scope,
		Slot:      key.Slot,
		Payload:   string(payload),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}, {Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "created_at"}),
		}).Create(&record).Error
	})
}

func (s *SQLSubstrate) Take(ctx context.Context, key Key) ([]byte, error) {
	var payload []byte
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var record models.HandoffRecord
		if err := slotQuery(tx, key).Take(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAbsent
			}
			return err
		}
		res := slotQuery(tx, key).Delete(&models.HandoffRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrAbsent
		}
		if !s.now().Before(record.ExpiresAt) {
			return nil
		}
		payload = []byte(record.Payload)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrAbsent
	}
	return payload, nil
}

// Sweep deletes rows that expired before now and reports how many were removed.
func (s *SQLSubstrate) Sweep(ctx context.Context) (int64, error) {
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", s.now().UTC()).Delete(&models.HandoffRecord{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

func slotQuery(tx *gorm.DB, key Key) *gorm.DB {
	return tx.Where("scope = ? AND slot = ?", key.Scope, key.Slot)
}
