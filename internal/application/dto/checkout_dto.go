package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddToCartRequest body para POST /api/checkout/cart.
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest body para POST /api/checkout/process.
type CheckoutRequest struct {
	PaymentMethod   string `json:"payment_method"`
	ShippingAddress string `json:"shipping_address,omitempty"`
}

// OrderItemRequest ítem de una orden administrativa (POST /api/checkout/orders).
// UnitPrice es opcional: si falta, se toma el precio vigente del producto.
type OrderItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderRequest body para POST /api/checkout/orders.
type CreateOrderRequest struct {
	UserID               string             `json:"user_id,omitempty"`
	Items                []OrderItemRequest `json:"items"`
	Status               string             `json:"status,omitempty"`
	PaymentMethod        string             `json:"payment_method,omitempty"`
	PaymentTransactionID string             `json:"payment_transaction_id,omitempty"`
	Metadata             map[string]any     `json:"metadata,omitempty"`
}

// CartItemResponse representación HTTP de una línea de carrito u orden.
type CartItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse representación HTTP de una orden.
type OrderResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Items         []*CartItemResponse `json:"items"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	Metadata      map[string]any      `json:"metadata,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
