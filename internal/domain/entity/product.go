package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de la tienda.
// El stock NO vive aquí: se maneja en Inventory vía el libro de inventario.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta vigente
	ImageURL    string
	Category    string
	Barcode     string
	RFIDTag     string
	IsActive    bool
	Location    string // ubicación física en la tienda (pasillo/estante)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
