package model

import "time"

type IdempotencyStatus string

const (
	IdempotencyInProgress IdempotencyStatus = "in_progress"
	IdempotencyDone       IdempotencyStatus = "done"
	IdempotencyFailed     IdempotencyStatus = "failed"
)

// IdempotencyRecord remembers which orders a buyer's keyed checkout produced.
type IdempotencyRecord struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement"`
	BuyerID   uint64            `gorm:"column:buyer_id;uniqueIndex:idx_idem_buyer_key;not null"`
	Key       string            `gorm:"column:idem_key;size:128;uniqueIndex:idx_idem_buyer_key;not null"`
	Status    IdempotencyStatus `gorm:"column:status;size:16;not null"`
	OrderIDs  []uint64          `gorm:"column:order_ids;type:text;serializer:json"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}
