package inventory

import (
	"context"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad de los ajustes de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invRepo repository.InventoryRepository,
		productRepo repository.ProductRepository,
	) error) error
}
