package dto

import "github.com/shopspring/decimal"

// SalesOverviewDTO resumen de ventas de los últimos N días.
type SalesOverviewDTO struct {
	TotalSales        decimal.Decimal            `json:"total_sales"`
	TotalOrders       int                        `json:"total_orders"`
	AverageOrderValue decimal.Decimal            `json:"average_order_value"`
	SalesByDay        map[string]decimal.Decimal `json:"sales_by_day"` // clave: YYYY-MM-DD
}

// TopProductDTO producto más vendido por unidades.
type TopProductDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// StockItemDTO ítem con stock bajo o agotado.
type StockItemDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold,omitempty"`
}

// InventoryStatusDTO estado global del inventario para el tablero.
type InventoryStatusDTO struct {
	TotalItems      int            `json:"total_items"`
	LowStockItems   []StockItemDTO `json:"low_stock_items"`
	OutOfStockItems []StockItemDTO `json:"out_of_stock_items"`
}
