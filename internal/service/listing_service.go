package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidListing = errors.New("invalid listing")
)

type ListingInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	District    string
	Category    model.Category
	ImageURL    string
	Available   *bool
}

// ListingPatch carries only the fields the seller sent; nil means unchanged.
type ListingPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	District    *string
	Category    *model.Category
	ImageURL    *string
	Available   *bool
}

type ListingService interface {
	Create(ctx context.Context, sellerID uint64, in ListingInput) (*model.Listing, error)
	Update(ctx context.Context, sellerID, id uint64, patch ListingPatch) (*model.Listing, error)
	Delete(ctx context.Context, sellerID, id uint64) error
	ListMine(ctx context.Context, sellerID uint64) ([]model.Listing, error)
	Get(ctx context.Context, id uint64) (*model.Listing, error)
	Browse(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error)
}

type listingService struct {
	repo repository.ListingRepository
}

func NewListingService(repo repository.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

func (s *listingService) Create(ctx context.Context, sellerID uint64, in ListingInput) (*model.Listing, error) {
	l := &model.Listing{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		District:    strings.TrimSpace(in.District),
		Category:    in.Category,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Available:   true,
	}
	if in.Available != nil {
		l.Available = *in.Available
	}
	if err := validateListing(l); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *listingService) Update(ctx context.Context, sellerID, id uint64, patch ListingPatch) (*model.Listing, error) {
	l, err := s.repo.FindOwned(ctx, id, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if patch.Name != nil {
		l.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		l.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.District != nil {
		l.District = strings.TrimSpace(*patch.District)
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		l.ImageURL = strings.TrimSpace(*patch.ImageURL)
	}
	if patch.Available != nil {
		l.Available = *patch.Available
	}
	if err := validateListing(l); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func validateListing(l *model.Listing) error {
	if l.Name == "" || len(l.Name) > 120 {
		return fmt.Errorf("%w: name is required (max 120 characters)", ErrInvalidListing)
	}
	if l.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidListing)
	}
	if !l.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidListing, l.Category)
	}
	if strings.HasPrefix(l.ImageURL, "data:") {
		return fmt.Errorf("%w: imageUrl must be a URL, not data URI", ErrInvalidListing)
	}
	return nil
}

func (s *listingService) Delete(ctx context.Context, sellerID, id uint64) error {
	n, err := s.repo.Delete(ctx, id, sellerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *listingService) ListMine(ctx context.Context, sellerID uint64) ([]model.Listing, error) {
	return s.repo.FindByOwner(ctx, sellerID)
}

func (s *listingService) Get(ctx context.Context, id uint64) (*model.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *listingService) Browse(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error) {
	switch f.Sort {
	case repository.SortNewest, repository.SortOldest, repository.SortPriceAsc, repository.SortPriceDesc:
	default:
		f.Sort = repository.SortNewest
	}
	f.District = strings.TrimSpace(f.District)
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.Browse(ctx, f)
}
