package repository

import (
	"context"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Order, error)
	FindForSeller(ctx context.Context, id, sellerID uint64) (*model.Order, error)
	TransitionFromPending(ctx context.Context, id, sellerID uint64, status model.OrderStatus) (int64, error)
	ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create writes the order row and its line items in one transaction.
func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(o).Error
	})
}

func (r *orderRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByID).
		Where("id IN ?", ids).
		Order("seller_id ASC").
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) FindForSeller(ctx context.Context, id, sellerID uint64) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByID).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// TransitionFromPending moves a pending order owned by sellerID to status and reports
// how many rows changed; zero means the order was already decided.
func (r *orderRepository) TransitionFromPending(ctx context.Context, id, sellerID uint64, status model.OrderStatus) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND seller_id = ? AND status = ?", id, sellerID, model.OrderStatusPending).
		Update("status", status)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByID).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uint64) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByID).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
