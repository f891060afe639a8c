package model

import "time"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

type Account struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	Name              string    `gorm:"size:120"`
	Email             string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash      string    `gorm:"column:password_hash;size:255"`
	Role              Role      `gorm:"size:16;index;not null"`
	Provider          string    `gorm:"size:16;not null"`
	Verified          bool      `gorm:"not null"`
	Approved          bool      `gorm:"not null;index"`
	VerificationToken *string   `gorm:"column:verification_token;size:64;uniqueIndex"`
	BakeryName        string    `gorm:"column:bakery_name;size:120"`
	District          string    `gorm:"size:80"`
	ContactPhone      string    `gorm:"column:contact_phone;size:32"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
