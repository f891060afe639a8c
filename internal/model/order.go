package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusRejected OrderStatus = "rejected"
)

// Decision reports whether s is a status a seller may move a pending order to.
func (s OrderStatus) Decision() bool {
	return s == OrderStatusAccepted || s == OrderStatusRejected
}

type Order struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	BuyerID          uint64          `gorm:"column:buyer_id;index;not null"`
	SellerID         uint64          `gorm:"column:seller_id;index;not null"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DeliveryDistrict string          `gorm:"column:delivery_district;size:120"`
	Note             string          `gorm:"type:text"`
	BuyerPhone       string          `gorm:"column:buyer_phone;size:32"`
	SellerPhone      string          `gorm:"column:seller_phone;size:32"`
	Status           OrderStatus     `gorm:"column:status;size:16;index;not null"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a copy of a listing taken when the order was placed. It carries no
// reference the database enforces, so editing or deleting the listing leaves it untouched.
type OrderItem struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `gorm:"column:order_id;index;not null"`
	ListingID uint64          `gorm:"column:listing_id;not null"`
	Name      string          `gorm:"size:120;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	ImageURL  string          `gorm:"column:image_url;size:512"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func Subtotal(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
