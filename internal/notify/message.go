package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/cakemarket-backend/internal/model"
)

type Kind string

const (
	KindOrderPlaced Kind = "order_placed"
	KindOrderStatus Kind = "order_status"
)

type Message struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	OrderID     uint64    `json:"orderId"`
	RecipientID uint64    `json:"recipientId"`
	Phone       string    `json:"phone"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Dispatcher hands a message off for delivery. Implementations must not block on the
// SMS provider and never report delivery failures to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}

func newMessage(kind Kind, orderID, recipientID uint64, phone, body string) Message {
	return Message{
		ID:          uuid.NewString(),
		Kind:        kind,
		OrderID:     orderID,
		RecipientID: recipientID,
		Phone:       strings.TrimSpace(phone),
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
}

// OrderPlaced tells the seller a new order is waiting for a decision.
func OrderPlaced(o *model.Order) Message {
	body := fmt.Sprintf("New order received (%d). Please check your dashboard to accept/reject.", o.ID)
	return newMessage(KindOrderPlaced, o.ID, o.SellerID, o.SellerPhone, body)
}

// OrderDecided tells the buyer what the seller decided.
func OrderDecided(o *model.Order, buyerPhone string) Message {
	body := fmt.Sprintf("Your order (%d) was %s by the baker.", o.ID, o.Status)
	return newMessage(KindOrderStatus, o.ID, o.BuyerID, buyerPhone, body)
}
