package model

import "time"

type NotificationStatus string

const (
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
	NotificationStatusDropped NotificationStatus = "dropped"
)

// Notification records one SMS delivery attempt so failed sends can be followed up by hand.
type Notification struct {
	ID          uint64             `gorm:"primaryKey;autoIncrement"`
	MessageID   string             `gorm:"column:message_id;size:64;index"`
	RecipientID uint64             `gorm:"column:recipient_id;index"`
	Kind        string             `gorm:"column:kind;size:32;not null"`
	OrderID     uint64             `gorm:"column:order_id;index"`
	Phone       string             `gorm:"column:phone;size:32"`
	Body        string             `gorm:"column:body;type:text"`
	Status      NotificationStatus `gorm:"column:status;size:16;index;not null"`
	Error       string             `gorm:"column:error;type:text"`
	SentAt      *time.Time         `gorm:"column:sent_at"`
	CreatedAt   time.Time          `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
