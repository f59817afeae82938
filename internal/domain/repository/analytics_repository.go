package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailySales ventas agregadas de un día (solo órdenes completadas).
type DailySales struct {
	Day        time.Time
	TotalSales decimal.Decimal
	OrderCount int
}

// TopProductResult producto más vendido por unidades en el período.
type TopProductResult struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
}

// InventoryStatusRow estado de stock de un producto para el tablero.
type InventoryStatusRow struct {
	ProductID     string
	Name          string
	CurrentStock  int
	MinStockLevel int
}

// AnalyticsRepository consultas de solo lectura para el tablero de analítica.
type AnalyticsRepository interface {
	// GetSalesByDay agrupa ventas completadas por día dentro del rango.
	GetSalesByDay(ctx context.Context, startDate, endDate time.Time) ([]DailySales, error)
	// GetTopProducts devuelve los `limit` productos con más unidades vendidas.
	GetTopProducts(ctx context.Context, limit int) ([]TopProductResult, error)
	// CountInventory devuelve el total de registros de inventario.
	CountInventory(ctx context.Context) (int, error)
	// GetLowStock devuelve los productos con stock en o bajo su umbral mínimo.
	GetLowStock(ctx context.Context) ([]InventoryStatusRow, error)
	// GetOutOfStock devuelve los productos con stock cero.
	GetOutOfStock(ctx context.Context) ([]InventoryStatusRow, error)
}
