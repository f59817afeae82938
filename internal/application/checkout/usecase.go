package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

// Tópicos publicados por el checkout.
const (
	TopicOrderCompleted = "checkout/order-completed"
	TopicOrderCreated   = "checkout/order-created"
	TopicOrderDeleted   = "checkout/order-deleted"
)

// CheckoutUseCase orquesta la transición atómica carrito -> orden y su
// inversa. El descuento de stock ocurre ANTES de marcar la orden como
// completada y todo corre en una sola transacción: ninguna orden queda
// completada con su reserva de stock pendiente. La compensación (reintegro de
// stock al borrar) es el único mecanismo de rollback: no hay transacción
// distribuida.
type CheckoutUseCase struct {
	txRunner    TxRunner
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	stock       StockAdjuster
	events      ports.EventPublisher
	log         *logger.Logger
}

// NewCheckoutUseCase construye el caso de uso.
func NewCheckoutUseCase(
	txRunner TxRunner,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	stock StockAdjuster,
	events ports.EventPublisher,
	log *logger.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		txRunner:    txRunner,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		stock:       stock,
		events:      events,
		log:         log,
	}
}

// stockAdjustment acumula los ajustes hechos dentro de la transacción para
// emitir sus eventos después del commit.
type stockAdjustment struct {
	inv     *entity.Inventory
	crossed bool
}

// Checkout convierte el carrito del usuario en una orden completada.
// Falla con ErrCartEmpty si no hay líneas. En una sola transacción: crea la
// orden pendiente, traspasa las líneas (order_id asignado), descuenta el stock
// línea por línea con bloqueo de fila y marca la orden completada. Si algún
// descuento dejaría stock negativo, todo se revierte. Tras el commit publica
// checkout/order-completed y los eventos de inventario.
func (uc *CheckoutUseCase) Checkout(ctx context.Context, userID string, in dto.CheckoutRequest) (*entity.Order, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		order       *entity.Order
		adjustments []stockAdjustment
	)
	err := uc.txRunner.RunCheckout(ctx, func(
		cartRepo repository.CartRepository,
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		_ repository.ProductRepository,
	) error {
		// Listado con bloqueo de fila: las cantidades y precios tarificados
		// son exactamente los que quedarán en la orden.
		lines, err := cartRepo.ListUnattachedForUpdate(userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrCartEmpty
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.Subtotal())
		}

		now := time.Now()
		order = &entity.Order{
			ID:            uuid.New().String(),
			UserID:        userID,
			TotalAmount:   total,
			Status:        entity.OrderStatusPending,
			PaymentMethod: in.PaymentMethod,
			Metadata:      map[string]any{"shippingAddress": in.ShippingAddress},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}
		// Traspaso por ID: solo las líneas listadas (y tarifadas) entran a la
		// orden; un agregado concurrente posterior al listado queda en el carrito.
		lineIDs := make([]string, 0, len(lines))
		for _, line := range lines {
			lineIDs = append(lineIDs, line.ID)
		}
		if err := cartRepo.AttachToOrder(order.ID, lineIDs); err != nil {
			return err
		}
		for _, line := range lines {
			inv, crossed, err := uc.stock.AdjustStockInTx(invRepo, line.ProductID, -line.Quantity, now)
			if err != nil {
				return err
			}
			adjustments = append(adjustments, stockAdjustment{inv: inv, crossed: crossed})
			orderID := order.ID
			line.OrderID = &orderID
		}
		// Descuento hecho y verificado: recién ahora la orden pasa a completada.
		if err := orderRepo.UpdateStatus(order.ID, entity.OrderStatusCompleted); err != nil {
			return err
		}
		order.Status = entity.OrderStatusCompleted
		order.Items = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publishOrderEvent(TopicOrderCompleted, order)
	for _, adj := range adjustments {
		uc.stock.EmitStockEvents(adj.inv, adj.crossed)
	}
	return order, nil
}

// CreateOrder crea una orden administrativa/simulada. Valida que todos los
// productos existan antes de mutar nada (ErrNotFound nombrando el faltante);
// el precio unitario sale del producto salvo que venga explícito. Solo si el
// estado resultante es completed se descuenta inventario y se publica
// checkout/order-created: las órdenes pendientes no reservan stock.
func (uc *CheckoutUseCase) CreateOrder(ctx context.Context, in dto.CreateOrderRequest) (*entity.Order, error) {
	if in.UserID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = entity.OrderStatusPending
	}
	if !entity.ValidOrderStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	// Validación previa: ningún producto puede faltar antes de tocar estado.
	products := make(map[string]*entity.Product, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if _, ok := products[item.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("producto %s: %w", item.ProductID, domain.ErrNotFound)
		}
		products[item.ProductID] = p
	}

	now := time.Now()
	orderID := uuid.New().String()
	total := decimal.Zero
	lines := make([]*entity.CartItem, 0, len(in.Items))
	for _, item := range in.Items {
		unitPrice := products[item.ProductID].Price
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		}
		line := &entity.CartItem{
			ID:          uuid.New().String(),
			OrderID:     &orderID,
			ProductID:   item.ProductID,
			UserID:      in.UserID,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
			ProductName: products[item.ProductID].Name,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	order := &entity.Order{
		ID:                   orderID,
		UserID:               in.UserID,
		Items:                lines,
		TotalAmount:          total,
		Status:               status,
		PaymentMethod:        in.PaymentMethod,
		PaymentTransactionID: in.PaymentTransactionID,
		Metadata:             metadata,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	var adjustments []stockAdjustment
	err := uc.txRunner.RunCheckout(ctx, func(
		cartRepo repository.CartRepository,
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		_ repository.ProductRepository,
	) error {
		if err := orderRepo.Create(order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := cartRepo.Create(line); err != nil {
				return err
			}
		}
		if status != entity.OrderStatusCompleted {
			return nil
		}
		for _, line := range lines {
			inv, crossed, err := uc.stock.AdjustStockInTx(invRepo, line.ProductID, -line.Quantity, now)
			if err != nil {
				return err
			}
			adjustments = append(adjustments, stockAdjustment{inv: inv, crossed: crossed})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status == entity.OrderStatusCompleted {
		uc.publishOrderEvent(TopicOrderCreated, order)
		for _, adj := range adjustments {
			uc.stock.EmitStockEvents(adj.inv, adj.crossed)
		}
	}
	return order, nil
}

// DeleteOrder elimina una orden del usuario. Si estaba completada, reintegra
// el stock de cada línea (compensación de la reserva) en la misma transacción
// que borra líneas y orden, y publica checkout/order-deleted tras el commit.
// Las órdenes nunca completadas se borran sin tocar inventario.
func (uc *CheckoutUseCase) DeleteOrder(ctx context.Context, userID, orderID string) error {
	var (
		wasCompleted bool
		adjustments  []stockAdjustment
	)
	err := uc.txRunner.RunCheckout(ctx, func(
		cartRepo repository.CartRepository,
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		_ repository.ProductRepository,
	) error {
		order, err := orderRepo.GetByIDAndUser(orderID, userID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		wasCompleted = order.Status == entity.OrderStatusCompleted
		if wasCompleted {
			now := time.Now()
			for _, item := range order.Items {
				inv, crossed, err := uc.stock.AdjustStockInTx(invRepo, item.ProductID, item.Quantity, now)
				if err != nil {
					return err
				}
				adjustments = append(adjustments, stockAdjustment{inv: inv, crossed: crossed})
			}
		}
		if err := cartRepo.DeleteByOrder(orderID); err != nil {
			return err
		}
		return orderRepo.Delete(orderID)
	})
	if err != nil {
		return err
	}

	if wasCompleted {
		if err := uc.events.Publish(TopicOrderDeleted, map[string]any{
			"orderId":   orderID,
			"userId":    userID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			uc.log.Warn().Err(err).Str("order_id", orderID).Msg("no se pudo publicar checkout/order-deleted")
		}
		for _, adj := range adjustments {
			uc.stock.EmitStockEvents(adj.inv, adj.crossed)
		}
	}
	return nil
}

// GetOrderHistory devuelve las órdenes del usuario, más recientes primero.
func (uc *CheckoutUseCase) GetOrderHistory(ctx context.Context, userID string) ([]*entity.Order, error) {
	return uc.orderRepo.ListByUser(userID)
}

// GetOrderDetails devuelve una orden con sus ítems. Falla con ErrNotFound si
// no existe o no pertenece al usuario.
func (uc *CheckoutUseCase) GetOrderDetails(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// publishOrderEvent publica el evento de orden con id, usuario, total, ítems y
// timestamp. Falla de publicación se registra y se descarta (at-most-once).
func (uc *CheckoutUseCase) publishOrderEvent(topic string, order *entity.Order) {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"productId": item.ProductID,
			"quantity":  item.Quantity,
			"unitPrice": item.UnitPrice,
		})
	}
	if err := uc.events.Publish(topic, map[string]any{
		"orderId":     order.ID,
		"userId":      order.UserID,
		"totalAmount": order.TotalAmount,
		"items":       items,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		uc.log.Warn().Err(err).Str("order_id", order.ID).Str("topic", topic).Msg("no se pudo publicar el evento de orden")
	}
}
