package repository

import (
	"context"
	"strings"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

type ListingFilter struct {
	Category model.Category
	District string
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	FindOwned(ctx context.Context, id, sellerID uint64) (*model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, id, sellerID uint64) (int64, error)
	FindAvailableByIDs(ctx context.Context, ids []uint64) ([]model.Listing, error)
	FindByOwner(ctx context.Context, sellerID uint64) ([]model.Listing, error)
	Browse(ctx context.Context, f ListingFilter) ([]model.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var l model.Listing
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) FindOwned(ctx context.Context, id, sellerID uint64) (*model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var l model.Listing
	if err := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *listingRepository) Delete(ctx context.Context, id, sellerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Delete(&model.Listing{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FindAvailableByIDs loads the available listings among ids in one query. Unknown or
// unavailable ids are simply absent from the result.
func (r *listingRepository) FindAvailableByIDs(ctx context.Context, ids []uint64) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Listing
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND available = ?", ids, true).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) FindByOwner(ctx context.Context, sellerID uint64) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Listing
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) Browse(ctx context.Context, f ListingFilter) ([]model.Listing, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.Listing{}).Where("available = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.District != "" {
		q = q.Where("district = ?", f.District)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(name LIKE ? OR description LIKE ?)", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	switch f.Sort {
	case SortPriceAsc:
		q = q.Order("price ASC").Order("id ASC")
	case SortPriceDesc:
		q = q.Order("price DESC").Order("id DESC")
	case SortOldest:
		q = q.Order("created_at ASC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}
	var list []model.Listing
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
