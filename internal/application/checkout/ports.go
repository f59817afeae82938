package checkout

import (
	"context"
	"time"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del checkout atados a esa tx. O se aplican todos los ajustes de
// stock y escrituras de orden/líneas de una invocación, o ninguno.
type TxRunner interface {
	RunCheckout(ctx context.Context, fn func(
		cartRepo repository.CartRepository,
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// StockAdjuster define el puerto hacia el libro de inventario: el checkout
// nunca escribe current_stock directamente, siempre pasa por este contrato
// dentro de su propia transacción (integración checkout-inventario).
type StockAdjuster interface {
	// AdjustStockInTx aplica el delta usando el repositorio de la tx del caller.
	// Devuelve el registro actualizado y si hubo cruce de umbral de stock bajo.
	AdjustStockInTx(invRepo repository.InventoryRepository, productID string, delta int, now time.Time) (*entity.Inventory, bool, error)
	// EmitStockEvents publica eventos y telemetría del ajuste; llamar tras el commit.
	EmitStockEvents(inv *entity.Inventory, crossed bool)
}
