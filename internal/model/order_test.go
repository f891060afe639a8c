package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSubtotal(t *testing.T) {
	items := []OrderItem{
		{Price: decimal.RequireFromString("1000"), Quantity: 2},
		{Price: decimal.RequireFromString("12.50"), Quantity: 3},
	}
	want := decimal.RequireFromString("2037.50")
	if got := Subtotal(items); !got.Equal(want) {
		t.Fatalf("got=%s want=%s", got, want)
	}
	if got := Subtotal(nil); !got.IsZero() {
		t.Fatalf("empty subtotal=%s", got)
	}
}

func TestOrderStatusDecision(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusAccepted, true},
		{OrderStatusRejected, true},
		{OrderStatusPending, false},
		{OrderStatus("shipped"), false},
		{OrderStatus(""), false},
	}
	for _, tt := range tests {
		if got := tt.status.Decision(); got != tt.want {
			t.Fatalf("%q.Decision()=%v want %v", tt.status, got, tt.want)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	if !CategoryGlutenFree.Valid() {
		t.Fatal("Gluten Free should be valid")
	}
	if Category("Bread").Valid() {
		t.Fatal("Bread should not be valid")
	}
}
