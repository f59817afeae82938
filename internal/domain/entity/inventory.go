package entity

import (
	"encoding/json"
	"time"
)

// Valores iniciales al crear el registro de inventario de un producto.
const (
	InitialStock         = 50
	InitialMinStockLevel = 10
)

// Inventory representa el registro de stock de un producto (relación 1:1).
// CurrentStock nunca es negativo y solo se escribe vía el libro de inventario
// (InventoryUseCase.AdjustStock); LowStockAlert es una bandera derivada que se
// recalcula en cada actualización.
type Inventory struct {
	ID                string
	ProductID         string
	CurrentStock      int
	MinStockLevel     int
	MaxStockCapacity  *int
	LowStockAlert     bool
	LastReplenishedAt *time.Time
	SensorData        json.RawMessage // lecturas de sensores de peso del estante
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// ProductName es de solo lectura, poblado por JOIN en las consultas.
	ProductName string
}

// BelowThreshold indica si el stock actual está en o bajo el umbral mínimo.
func (i *Inventory) BelowThreshold() bool {
	return i.CurrentStock <= i.MinStockLevel
}
