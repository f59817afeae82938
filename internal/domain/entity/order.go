package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden. Las transiciones son de una sola vía:
// pending -> completed | cancelled. Nunca completed -> pending.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus indica si s es un estado de orden conocido.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order representa una orden de compra. Invariante al completar:
// TotalAmount == Σ(item.UnitPrice * item.Quantity).
type Order struct {
	ID                   string
	UserID               string
	Items                []*CartItem
	TotalAmount          decimal.Decimal
	Status               string
	PaymentMethod        string
	PaymentTransactionID string
	Metadata             map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
