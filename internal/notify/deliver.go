package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shinyyama/cakemarket-backend/internal/metrics"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
)

var (
	ErrQueueFull        = errors.New("notification queue full")
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

// Deliverer sends one message over SMS and records the attempt.
type Deliverer struct {
	sender      SMSSender
	repo        repository.NotificationRepository
	metrics     *metrics.Metrics
	log         *slog.Logger
	countryCode string
	now         func() time.Time
}

func NewDeliverer(sender SMSSender, repo repository.NotificationRepository, m *metrics.Metrics, log *slog.Logger, countryCode string) *Deliverer {
	if log == nil {
		log = slog.Default()
	}
	return &Deliverer{
		sender:      sender,
		repo:        repo,
		metrics:     m,
		log:         log,
		countryCode: countryCode,
		now:         time.Now,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, msg Message) error {
	phone := NormalizePhone(msg.Phone, d.countryCode)
	if phone == "" {
		return nil
	}
	err := d.sender.Send(ctx, phone, msg.Body)
	if err != nil {
		d.log.WarnContext(ctx, "sms delivery failed",
			"message_id", msg.ID,
			"kind", msg.Kind,
			"order_id", msg.OrderID,
			"recipient_id", msg.RecipientID,
			"phone", phone,
			"err", err,
		)
		d.record(ctx, msg, phone, model.NotificationStatusFailed, err)
		return err
	}
	d.record(ctx, msg, phone, model.NotificationStatusSent, nil)
	return nil
}

// Drop records a message that never reached the sender.
func (d *Deliverer) Drop(ctx context.Context, msg Message, reason error) {
	d.log.WarnContext(ctx, "sms dropped",
		"message_id", msg.ID,
		"kind", msg.Kind,
		"order_id", msg.OrderID,
		"recipient_id", msg.RecipientID,
		"err", reason,
	)
	d.record(ctx, msg, NormalizePhone(msg.Phone, d.countryCode), model.NotificationStatusDropped, reason)
}

func (d *Deliverer) record(ctx context.Context, msg Message, phone string, status model.NotificationStatus, cause error) {
	d.metrics.ObserveNotification(string(msg.Kind), string(status))
	if d.repo == nil {
		return
	}
	n := &model.Notification{
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		Kind:        string(msg.Kind),
		OrderID:     msg.OrderID,
		Phone:       phone,
		Body:        msg.Body,
		Status:      status,
	}
	if cause != nil {
		n.Error = cause.Error()
	}
	if status == model.NotificationStatusSent {
		sentAt := d.now()
		n.SentAt = &sentAt
	}
	if err := d.repo.Create(ctx, n); err != nil {
		d.log.ErrorContext(ctx, "record notification failed", "message_id", msg.ID, "order_id", msg.OrderID, "err", err)
	}
}
