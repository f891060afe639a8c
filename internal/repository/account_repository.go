package repository

import (
	"context"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	FindByID(ctx context.Context, id uint64) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.Account, error)
	Update(ctx context.Context, a *model.Account) error
	ListPendingSellers(ctx context.Context) ([]model.Account, error)
	Delete(ctx context.Context, id uint64) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id uint64) (*model.Account, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Account
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) FindByVerificationToken(ctx context.Context, token string) (*model.Account, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Account
	if err := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Update(ctx context.Context, a *model.Account) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *accountRepository) ListPendingSellers(ctx context.Context) ([]model.Account, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Account
	if err := r.db.WithContext(ctx).
		Where("role = ? AND approved = ?", model.RoleSeller, false).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Delete(&model.Account{}, id).Error
}
