package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem representa una línea de carrito. Mientras OrderID es nil la línea
// pertenece al carrito del usuario; al asignarse OrderID pasa a ser ítem de esa
// orden (una línea nunca pertenece a dos órdenes).
type CartItem struct {
	ID        string
	OrderID   *string
	ProductID string
	UserID    string
	Quantity  int
	UnitPrice decimal.Decimal // precio congelado al momento de agregar al carrito
	CreatedAt time.Time
	UpdatedAt time.Time

	// ProductName es de solo lectura, poblado por JOIN en las consultas.
	ProductName string
}

// Subtotal devuelve UnitPrice * Quantity.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
