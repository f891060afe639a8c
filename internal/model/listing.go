package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryWedding    Category = "Wedding"
	CategoryBirthday   Category = "Birthday"
	CategoryCupcakes   Category = "Cupcakes"
	CategoryVegan      Category = "Vegan"
	CategoryGlutenFree Category = "Gluten Free"
	CategoryMacarons   Category = "Macarons"
	CategoryCustomize  Category = "Customize"
)

var Categories = []Category{
	CategoryWedding,
	CategoryBirthday,
	CategoryCupcakes,
	CategoryVegan,
	CategoryGlutenFree,
	CategoryMacarons,
	CategoryCustomize,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Listing is a cake offered by a single seller account.
type Listing struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	SellerID    uint64          `gorm:"column:seller_id;index;not null"`
	Name        string          `gorm:"size:120;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	District    string          `gorm:"size:80;index"`
	Category    Category        `gorm:"size:32;index;not null"`
	ImageURL    string          `gorm:"column:image_url;size:512"`
	Available   bool            `gorm:"not null;index"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
