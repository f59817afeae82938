package repository

import "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"

// InventoryRepository define el puerto de persistencia para registros de inventario.
// Usado dentro de transacciones para garantizar consistencia del stock.
type InventoryRepository interface {
	Create(inv *entity.Inventory) error
	GetByID(id string) (*entity.Inventory, error)
	GetByProduct(productID string) (*entity.Inventory, error)
	// GetByProductForUpdate bloquea la fila para update (SELECT FOR UPDATE):
	// serializa los ajustes concurrentes sobre el mismo producto.
	GetByProductForUpdate(productID string) (*entity.Inventory, error)
	Update(inv *entity.Inventory) error
	List() ([]*entity.Inventory, error)
}
