package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/cakemarket-backend/internal/model"
)

func TestReclaimable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		status  model.IdempotencyStatus
		updated time.Time
		want    bool
	}{
		{"failed", model.IdempotencyFailed, now, true},
		{"fresh in progress", model.IdempotencyInProgress, now.Add(-30 * time.Second), false},
		{"in progress at the limit", model.IdempotencyInProgress, now.Add(-ClaimTimeout), false},
		{"stale in progress", model.IdempotencyInProgress, now.Add(-ClaimTimeout - time.Second), true},
		{"done", model.IdempotencyDone, now.Add(-time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &model.IdempotencyRecord{Status: tt.status, UpdatedAt: tt.updated}
			if got := reclaimable(rec, now, ClaimTimeout); got != tt.want {
				t.Fatalf("reclaimable=%v want %v", got, tt.want)
			}
		})
	}
}

func TestRepositoriesWithoutDB(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccountRepository(nil)
	orders := NewOrderRepository(nil)
	notifications := NewNotificationRepository(nil)
	idem := NewIdempotencyRepository(nil)
	listings := NewListingRepository(nil)

	calls := map[string]func() error{
		"account create":   func() error { return accounts.Create(ctx, &model.Account{}) },
		"account by email": func() error { _, err := accounts.FindByEmail(ctx, "a@b.c"); return err },
		"pending sellers":  func() error { _, err := accounts.ListPendingSellers(ctx); return err },
		"order create":     func() error { return orders.Create(ctx, &model.Order{}) },
		"order transition": func() error {
			_, err := orders.TransitionFromPending(ctx, 1, 2, model.OrderStatusAccepted)
			return err
		},
		"orders by buyer":      func() error { _, err := orders.ListByBuyer(ctx, 1); return err },
		"notification create":  func() error { return notifications.Create(ctx, &model.Notification{}) },
		"notification list":    func() error { _, err := notifications.ListByRecipient(ctx, 1, 10); return err },
		"notification failed":  func() error { _, err := notifications.CountFailed(ctx, 1); return err },
		"idempotency claim":    func() error { _, _, err := idem.Claim(ctx, 1, "k"); return err },
		"idempotency complete": func() error { return idem.Complete(ctx, 1, []uint64{2}) },
		"idempotency fail":     func() error { return idem.Fail(ctx, 1) },
		"listing browse":       func() error { _, err := listings.Browse(ctx, ListingFilter{}); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, ErrDBNotReady) {
			t.Fatalf("%s: err=%v want ErrDBNotReady", name, err)
		}
	}
}
