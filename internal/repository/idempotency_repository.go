package repository

import (
	"context"
	"time"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimTimeout is how long an in_progress record may go untouched before a
// retry with the same key takes it over. It outlives any single checkout.
const ClaimTimeout = 2 * time.Minute

type IdempotencyRepository interface {
	// Claim reserves (buyerID, key). It returns the stored record and whether the
	// caller now owns it. A failed record, or an in_progress one older than
	// ClaimTimeout, is reclaimed so the buyer can retry.
	Claim(ctx context.Context, buyerID uint64, key string) (*model.IdempotencyRecord, bool, error)
	Complete(ctx context.Context, id uint64, orderIDs []uint64) error
	Fail(ctx context.Context, id uint64) error
}

type idempotencyRepository struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db, timeout: ClaimTimeout, now: time.Now}
}

func (r *idempotencyRepository) Claim(ctx context.Context, buyerID uint64, key string) (*model.IdempotencyRecord, bool, error) {
	if r.db == nil {
		return nil, false, ErrDBNotReady
	}
	rec := model.IdempotencyRecord{BuyerID: buyerID, Key: key, Status: model.IdempotencyInProgress}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &rec, true, nil
	}

	var existing model.IdempotencyRecord
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND idem_key = ?", buyerID, key).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	now := r.now()
	if !reclaimable(&existing, now, r.timeout) {
		return &existing, false, nil
	}

	// The status and updated_at guards let only one concurrent retry win.
	q := r.db.WithContext(ctx).
		Model(&model.IdempotencyRecord{}).
		Where("id = ? AND status = ?", existing.ID, existing.Status)
	if existing.Status == model.IdempotencyInProgress {
		q = q.Where("updated_at < ?", now.Add(-r.timeout))
	}
	res = q.Updates(map[string]any{"status": model.IdempotencyInProgress, "updated_at": now})
	if res.Error != nil {
		return nil, false, res.Error
	}
	existing.Status = model.IdempotencyInProgress
	existing.UpdatedAt = now
	return &existing, res.RowsAffected == 1, nil
}

// reclaimable reports whether a retry may take over rec: failed records always,
// in_progress ones once their owner has been silent for longer than timeout.
func reclaimable(rec *model.IdempotencyRecord, now time.Time, timeout time.Duration) bool {
	switch rec.Status {
	case model.IdempotencyFailed:
		return true
	case model.IdempotencyInProgress:
		return now.Sub(rec.UpdatedAt) > timeout
	default:
		return false
	}
}

func (r *idempotencyRepository) Complete(ctx context.Context, id uint64, orderIDs []uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.IdempotencyRecord{ID: id}).
		Select("status", "order_ids").
		Updates(&model.IdempotencyRecord{Status: model.IdempotencyDone, OrderIDs: orderIDs}).Error
}

func (r *idempotencyRepository) Fail(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.IdempotencyRecord{}).
		Where("id = ?", id).
		Update("status", model.IdempotencyFailed).Error
}
