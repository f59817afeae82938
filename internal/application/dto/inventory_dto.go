package dto

import (
	"encoding/json"
	"time"
)

// AdjustStockRequest body para PATCH /api/inventory/product/:productId/stock.
// Delta puede ser negativo (salida) o positivo (reposición).
type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// UpdateInventoryRequest body para PATCH /api/inventory/:id.
// Merge explícito: solo los campos presentes se aplican. CurrentStock pasa por
// el mismo camino de escritura que los ajustes (alertas y telemetría incluidas).
type UpdateInventoryRequest struct {
	CurrentStock      *int            `json:"current_stock,omitempty"`
	MinStockLevel     *int            `json:"min_stock_level,omitempty"`
	MaxStockCapacity  *int            `json:"max_stock_capacity,omitempty"`
	LastReplenishedAt *time.Time      `json:"last_replenished_at,omitempty"`
	SensorData        json.RawMessage `json:"sensor_data,omitempty"`
}

// InventoryResponse representación HTTP de un registro de inventario.
type InventoryResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name,omitempty"`
	CurrentStock      int             `json:"current_stock"`
	MinStockLevel     int             `json:"min_stock_level"`
	MaxStockCapacity  *int            `json:"max_stock_capacity,omitempty"`
	LowStockAlert     bool            `json:"low_stock_alert"`
	LastReplenishedAt *time.Time      `json:"last_replenished_at,omitempty"`
	SensorData        json.RawMessage `json:"sensor_data,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
