package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	domaininv "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/inventory"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

// Tópicos publicados por el libro de inventario.
const (
	TopicInventoryUpdate = "inventory/update"
	TopicLowStockAlert   = "inventory/alerts/low-stock"
)

// sideEffectTimeout acota las llamadas externas post-commit (broker, telemetría).
const sideEffectTimeout = 5 * time.Second

// InventoryUseCase es el libro de inventario: camino de escritura exclusivo de
// current_stock. Cada ajuste corre en transacción con bloqueo de fila
// (SELECT FOR UPDATE), recalcula la alerta de stock bajo y, ya confirmado,
// publica eventos y empuja telemetría best-effort.
type InventoryUseCase struct {
	txRunner    TxRunner
	invRepo     repository.InventoryRepository
	productRepo repository.ProductRepository
	events      ports.EventPublisher
	telemetry   ports.TelemetrySink
	log         *logger.Logger
}

// NewInventoryUseCase construye el caso de uso.
func NewInventoryUseCase(
	txRunner TxRunner,
	invRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
	events ports.EventPublisher,
	telemetry ports.TelemetrySink,
	log *logger.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		txRunner:    txRunner,
		invRepo:     invRepo,
		productRepo: productRepo,
		events:      events,
		telemetry:   telemetry,
		log:         log,
	}
}

// List devuelve todos los registros de inventario.
func (uc *InventoryUseCase) List(ctx context.Context) ([]*entity.Inventory, error) {
	return uc.invRepo.List()
}

// GetByID obtiene un registro de inventario por su ID.
func (uc *InventoryUseCase) GetByID(ctx context.Context, id string) (*entity.Inventory, error) {
	inv, err := uc.invRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// GetByProduct obtiene el registro de inventario de un producto.
func (uc *InventoryUseCase) GetByProduct(ctx context.Context, productID string) (*entity.Inventory, error) {
	inv, err := uc.invRepo.GetByProduct(productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

// AdjustStock aplica un delta al stock de un producto en su propia transacción
// y emite los efectos secundarios tras el commit. Falla con ErrNotFound si el
// producto no tiene registro y con ErrInsufficientStock si el resultado sería
// negativo (el registro queda intacto).
func (uc *InventoryUseCase) AdjustStock(ctx context.Context, productID string, delta int) (*entity.Inventory, error) {
	var (
		adjusted *entity.Inventory
		crossed  bool
	)
	err := uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		_ repository.ProductRepository,
	) error {
		var err error
		adjusted, crossed, err = uc.AdjustStockInTx(invRepo, productID, delta, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.EmitStockEvents(adjusted, crossed)
	return adjusted, nil
}

// AdjustStockInTx aplica el delta usando el repositorio de la transacción del
// caller (mismo patrón que usa el checkout para reservar stock). Bloquea la
// fila, valida que el resultado no sea negativo y recalcula la alerta.
// Devuelve el registro actualizado y si hubo cruce de umbral (no-alertado ->
// alertado); el caller emite los eventos después de su propio commit.
func (uc *InventoryUseCase) AdjustStockInTx(
	invRepo repository.InventoryRepository,
	productID string,
	delta int,
	now time.Time,
) (*entity.Inventory, bool, error) {
	inv, err := invRepo.GetByProductForUpdate(productID)
	if err != nil {
		return nil, false, err
	}
	if inv == nil {
		return nil, false, domain.ErrNotFound
	}
	newStock := inv.CurrentStock + delta
	if newStock < 0 {
		return nil, false, domain.ErrInsufficientStock
	}
	wasAlerted := inv.LowStockAlert
	inv.CurrentStock = newStock
	inv.LowStockAlert = inv.BelowThreshold()
	if delta > 0 {
		inv.LastReplenishedAt = &now
	}
	inv.UpdatedAt = now
	if err := invRepo.Update(inv); err != nil {
		return nil, false, err
	}
	return inv, !wasAlerted && inv.LowStockAlert, nil
}

// EmitStockEvents publica inventory/update, la alerta de stock bajo si hubo
// cruce de umbral, y empuja la telemetría. Se invoca DESPUÉS del commit: toda
// falla aquí se registra y se descarta, nunca revierte el ajuste confirmado.
func (uc *InventoryUseCase) EmitStockEvents(inv *entity.Inventory, crossed bool) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	if err := uc.events.Publish(TopicInventoryUpdate, map[string]any{
		"productId": inv.ProductID,
		"quantity":  inv.CurrentStock,
		"timestamp": timestamp,
	}); err != nil {
		uc.log.Warn().Err(err).Str("product_id", inv.ProductID).Msg("no se pudo publicar inventory/update")
	}

	if crossed {
		uc.log.Warn().
			Str("product_id", inv.ProductID).
			Int("current_stock", inv.CurrentStock).
			Int("threshold", inv.MinStockLevel).
			Msg("alerta de stock bajo")
		if err := uc.events.Publish(TopicLowStockAlert, map[string]any{
			"productId":       inv.ProductID,
			"productName":     inv.ProductName,
			"currentQuantity": inv.CurrentStock,
			"threshold":       inv.MinStockLevel,
			"timestamp":       timestamp,
		}); err != nil {
			uc.log.Warn().Err(err).Str("product_id", inv.ProductID).Msg("no se pudo publicar la alerta de stock bajo")
		}
	}

	// Contexto propio: el request ya terminó y la telemetría no debe heredar
	// su cancelación ni bloquear sin límite.
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := uc.telemetry.PushInventory(ctx, domaininv.NumericSensorID(inv.ProductID), inv.CurrentStock); err != nil {
		uc.log.Warn().Err(err).Str("product_id", inv.ProductID).Msg("telemetría de inventario falló")
	}
}

// Initialize crea el registro de inventario de un producto con los valores
// iniciales (stock 50, umbral 10). Idempotente: si ya existe lo devuelve tal
// cual. Falla con ErrNotFound si el producto no existe.
func (uc *InventoryUseCase) Initialize(ctx context.Context, productID string) (*entity.Inventory, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	existing, err := uc.invRepo.GetByProduct(productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	inv := &entity.Inventory{
		ID:                uuid.New().String(),
		ProductID:         productID,
		CurrentStock:      entity.InitialStock,
		MinStockLevel:     entity.InitialMinStockLevel,
		LowStockAlert:     false,
		LastReplenishedAt: &now,
		CreatedAt:         now,
		UpdatedAt:         now,
		ProductName:       product.Name,
	}
	if err := uc.invRepo.Create(inv); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Carrera con otra inicialización concurrente: devolver el existente.
			return uc.GetByProduct(ctx, productID)
		}
		return nil, err
	}
	uc.log.Info().Str("product_id", productID).Msg("inventario inicializado para producto")
	return inv, nil
}

// InitializeAll inicializa el inventario de todos los productos que aún no
// tienen registro. Devuelve cuántos registros se crearon.
func (uc *InventoryUseCase) InitializeAll(ctx context.Context) (int, error) {
	products, err := uc.productRepo.List("", 0, 0)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range products {
		existing, err := uc.invRepo.GetByProduct(p.ID)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if _, err := uc.Initialize(ctx, p.ID); err != nil {
			return created, err
		}
		created++
	}
	uc.log.Info().Int("created", created).Msg("inventario inicializado")
	return created, nil
}

// Update aplica un parche parcial a un registro de inventario (merge explícito
// sobre los campos presentes, sin reflexión). CurrentStock pasa por el mismo
// camino transaccional y de eventos que AdjustStock para no romper la
// exclusividad de escritura.
func (uc *InventoryUseCase) Update(ctx context.Context, id string, in dto.UpdateInventoryRequest) (*entity.Inventory, error) {
	var (
		updated *entity.Inventory
		crossed bool
	)
	err := uc.txRunner.Run(ctx, func(
		invRepo repository.InventoryRepository,
		_ repository.ProductRepository,
	) error {
		inv, err := invRepo.GetByID(id)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		// Re-leer con bloqueo por producto: serializa contra ajustes concurrentes.
		inv, err = invRepo.GetByProductForUpdate(inv.ProductID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}

		now := time.Now()
		wasAlerted := inv.LowStockAlert
		if in.CurrentStock != nil {
			if *in.CurrentStock < 0 {
				return domain.ErrInvalidInput
			}
			if *in.CurrentStock > inv.CurrentStock {
				inv.LastReplenishedAt = &now
			}
			inv.CurrentStock = *in.CurrentStock
		}
		if in.MinStockLevel != nil {
			if *in.MinStockLevel < 0 {
				return domain.ErrInvalidInput
			}
			inv.MinStockLevel = *in.MinStockLevel
		}
		if in.MaxStockCapacity != nil {
			inv.MaxStockCapacity = in.MaxStockCapacity
		}
		if in.LastReplenishedAt != nil {
			inv.LastReplenishedAt = in.LastReplenishedAt
		}
		if len(in.SensorData) > 0 {
			inv.SensorData = in.SensorData
		}
		inv.LowStockAlert = inv.BelowThreshold()
		inv.UpdatedAt = now
		if err := invRepo.Update(inv); err != nil {
			return err
		}
		updated = inv
		crossed = !wasAlerted && inv.LowStockAlert
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.EmitStockEvents(updated, crossed)
	return updated, nil
}
