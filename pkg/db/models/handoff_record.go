package models

import "time"

// HandoffRecord is one slot of browser-scoped handoff state that survives the
// payment provider round trip.
type HandoffRecord struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	Slot      string    `gorm:"column:slot;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (HandoffRecord) TableName() string {
	return "handoff_records"
}
