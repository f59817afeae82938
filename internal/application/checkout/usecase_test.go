package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/checkout"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	appinv "github.com/GabrielDushime/Smart-Grocery-Store/internal/application/inventory"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

const testUser = "user-1"

// fixture arma el caso de uso completo sobre el store en memoria, con el
// inventario real como StockAdjuster.
type fixture struct {
	store     *memStore
	uc        *checkout.CheckoutUseCase
	invUC     *appinv.InventoryUseCase
	publisher *fakePublisher
	telemetry *fakeTelemetry
}

func newFixture() *fixture {
	store := newMemStore()
	tx := &fakeTxRunner{s: store}
	publisher := &fakePublisher{}
	telemetry := &fakeTelemetry{}
	log := logger.Nop()

	invUC := appinv.NewInventoryUseCase(tx, &memInventoryRepo{s: store}, &memProductRepo{s: store}, publisher, telemetry, log)
	uc := checkout.NewCheckoutUseCase(tx, &memCartRepo{s: store}, &memOrderRepo{s: store}, &memProductRepo{s: store}, invUC, publisher, log)
	return &fixture{store: store, uc: uc, invUC: invUC, publisher: publisher, telemetry: telemetry}
}

// seedProduct crea un producto activo con su inventario.
func (f *fixture) seedProduct(t *testing.T, name, price string, stock, threshold int) *entity.Product {
	t.Helper()
	now := time.Now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  "Test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, (&memProductRepo{s: f.store}).Create(p))
	require.NoError(t, (&memInventoryRepo{s: f.store}).Create(&entity.Inventory{
		ID:            uuid.New().String(),
		ProductID:     p.ID,
		CurrentStock:  stock,
		MinStockLevel: threshold,
		ProductName:   name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
	return p
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	inv, err := (&memInventoryRepo{s: f.store}).GetByProduct(productID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return inv.CurrentStock
}

// ──────────────────────────────────────────────────────────────────────────────
// Carrito
// ──────────────────────────────────────────────────────────────────────────────

func TestAddToCart_CongelaPrecioYAcumulaCantidad(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Leche", "1.25", 50, 10)
	ctx := context.Background()

	item, err := f.uc.AddToCart(ctx, testUser, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("1.25")))

	// Cambio de precio posterior: la línea conserva el precio congelado.
	p.Price = decimal.RequireFromString("9.99")
	require.NoError(t, (&memProductRepo{s: f.store}).Update(p))

	item, err = f.uc.AddToCart(ctx, testUser, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity, "el upsert debe acumular la cantidad")
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("1.25")),
		"la línea existente conserva su precio original")
}

func TestAddToCart_ProductoInactivo(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Pan", "1.80", 50, 10)
	p.IsActive = false
	require.NoError(t, (&memProductRepo{s: f.store}).Update(p))

	_, err := f.uc.AddToCart(context.Background(), testUser, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddToCart_CantidadInvalida(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Pan", "1.80", 50, 10)

	_, err := f.uc.AddToCart(context.Background(), testUser, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRemoveFromCart_DeOtroUsuario(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Café", "6.80", 50, 10)
	ctx := context.Background()

	item, err := f.uc.AddToCart(ctx, testUser, p.ID, 1)
	require.NoError(t, err)

	err = f.uc.RemoveFromCart(ctx, "otro-usuario", item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "las líneas son privadas por usuario")
}

// ──────────────────────────────────────────────────────────────────────────────
// Checkout
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_TotalYEstado(t *testing.T) {
	f := newFixture()
	leche := f.seedProduct(t, "Leche", "1.25", 50, 10)
	cafe := f.seedProduct(t, "Café", "6.80", 50, 10)
	ctx := context.Background()

	_, err := f.uc.AddToCart(ctx, testUser, leche.ID, 4) // 5.00
	require.NoError(t, err)
	_, err = f.uc.AddToCart(ctx, testUser, cafe.ID, 2) // 13.60
	require.NoError(t, err)

	order, err := f.uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("18.60")),
		"el total debe ser la suma de cantidad*precio congelado; fue %s", order.TotalAmount)
	assert.Len(t, order.Items, 2)

	// El stock se descontó exactamente una vez por línea.
	assert.Equal(t, 46, f.stockOf(t, leche.ID))
	assert.Equal(t, 48, f.stockOf(t, cafe.ID))

	// El carrito quedó vacío: las líneas ahora pertenecen a la orden.
	cart, err := f.uc.GetCart(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, cart)

	completed := f.publisher.byTopic(checkout.TopicOrderCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, order.ID, completed[0].payload["orderId"])
}

func TestCheckout_CarritoVacio(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Checkout(context.Background(), testUser, checkoutRequest())
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestCheckout_StockInsuficiente_NadaCambia(t *testing.T) {
	f := newFixture()
	leche := f.seedProduct(t, "Leche", "1.25", 50, 10)
	huevos := f.seedProduct(t, "Huevos", "4.50", 1, 0)
	ctx := context.Background()

	_, err := f.uc.AddToCart(ctx, testUser, leche.ID, 2)
	require.NoError(t, err)
	_, err = f.uc.AddToCart(ctx, testUser, huevos.ID, 5) // solo hay 1
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, testUser, checkoutRequest())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Rollback completo: ni stock, ni órdenes, ni carrito cambiaron.
	assert.Equal(t, 50, f.stockOf(t, leche.ID), "el descuento parcial debe revertirse")
	assert.Equal(t, 1, f.stockOf(t, huevos.ID))

	cart, err := f.uc.GetCart(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, cart, 2, "el carrito sigue intacto para reintentar")

	history, err := f.uc.GetOrderHistory(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, history, "no debe quedar ninguna orden (ni pendiente)")

	assert.Empty(t, f.publisher.byTopic(checkout.TopicOrderCompleted),
		"un checkout fallido no publica eventos")
}

func TestCheckout_EmiteAlertaDeStockBajoUnaVez(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Yogur", "2.10", 12, 10)
	ctx := context.Background()

	_, err := f.uc.AddToCart(ctx, testUser, p.ID, 3) // 12 -> 9, cruza el umbral
	require.NoError(t, err)
	_, err = f.uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err)

	alerts := f.publisher.byTopic(appinv.TopicLowStockAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, p.ID, alerts[0].payload["productId"])
	assert.Equal(t, 9, alerts[0].payload["currentQuantity"])

	// Segunda compra estando ya en alerta: no se repite la alerta.
	_, err = f.uc.AddToCart(ctx, testUser, p.ID, 1)
	require.NoError(t, err)
	_, err = f.uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err)

	assert.Len(t, f.publisher.byTopic(appinv.TopicLowStockAlert), 1,
		"la alerta solo se emite en el cruce no-alertado -> alertado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes directas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_PendienteNoDescuentaStock(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Arroz", "1.60", 50, 10)

	order, err := f.uc.CreateOrder(context.Background(), orderRequest(p.ID, 5, ""))
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, 50, f.stockOf(t, p.ID), "las órdenes pendientes no reservan stock")
	assert.Empty(t, f.publisher.byTopic(checkout.TopicOrderCreated))
}

func TestCreateOrder_CompletadaDescuentaYPublica(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Arroz", "1.60", 50, 10)

	order, err := f.uc.CreateOrder(context.Background(), orderRequest(p.ID, 5, entity.OrderStatusCompleted))
	require.NoError(t, err)

	assert.Equal(t, 45, f.stockOf(t, p.ID))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("8.00")))
	assert.Len(t, f.publisher.byTopic(checkout.TopicOrderCreated), 1)
}

func TestCreateOrder_ProductoInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.uc.CreateOrder(context.Background(), orderRequest("no-existe", 1, ""))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateOrder_EstadoInvalido(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Arroz", "1.60", 50, 10)
	_, err := f.uc.CreateOrder(context.Background(), orderRequest(p.ID, 1, "shipped"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Compensación al borrar
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteOrder_CompletadaReintegraStock(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Frijol", "2.30", 50, 10)
	ctx := context.Background()

	_, err := f.uc.AddToCart(ctx, testUser, p.ID, 7)
	require.NoError(t, err)
	order, err := f.uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err)
	require.Equal(t, 43, f.stockOf(t, p.ID))

	require.NoError(t, f.uc.DeleteOrder(ctx, testUser, order.ID))

	assert.Equal(t, 50, f.stockOf(t, p.ID), "el ciclo checkout+delete debe dejar el stock original")
	assert.Len(t, f.publisher.byTopic(checkout.TopicOrderDeleted), 1)

	_, err = f.uc.GetOrderDetails(ctx, testUser, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteOrder_PendienteNoTocaInventario(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Frijol", "2.30", 50, 10)
	ctx := context.Background()

	order, err := f.uc.CreateOrder(ctx, orderRequest(p.ID, 3, ""))
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteOrder(ctx, order.UserID, order.ID))
	assert.Equal(t, 50, f.stockOf(t, p.ID))
	assert.Empty(t, f.publisher.byTopic(checkout.TopicOrderDeleted),
		"borrar una orden nunca completada no publica evento")
}

func TestDeleteOrder_DeOtroUsuario(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Frijol", "2.30", 50, 10)
	ctx := context.Background()

	order, err := f.uc.CreateOrder(ctx, orderRequest(p.ID, 1, entity.OrderStatusCompleted))
	require.NoError(t, err)

	err = f.uc.DeleteOrder(ctx, "otro-usuario", order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 49, f.stockOf(t, p.ID), "el stock de la orden ajena no se toca")
}

// ──────────────────────────────────────────────────────────────────────────────
// Publicación con broker caído
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_BrokerCaidoNoFallaLaOrden(t *testing.T) {
	f := newFixture()
	f.publisher.fail = assert.AnError
	p := f.seedProduct(t, "Agua", "0.80", 50, 10)
	ctx := context.Background()

	_, err := f.uc.AddToCart(ctx, testUser, p.ID, 2)
	require.NoError(t, err)

	order, err := f.uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err, "la falla de publicación es transitoria y no revierte la orden")
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	assert.Equal(t, 48, f.stockOf(t, p.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// interceptCartRepo ejecuta un gancho una sola vez tras listar las líneas del
// carrito, antes del traspaso a la orden.
type interceptCartRepo struct {
	repository.CartRepository
	afterList func()
}

func (r *interceptCartRepo) ListUnattachedForUpdate(userID string) ([]*entity.CartItem, error) {
	lines, err := r.CartRepository.ListUnattachedForUpdate(userID)
	if err == nil && r.afterList != nil {
		hook := r.afterList
		r.afterList = nil
		hook()
	}
	return lines, err
}

type interceptTxRunner struct {
	inner     *fakeTxRunner
	afterList func()
}

func (r *interceptTxRunner) RunCheckout(ctx context.Context, fn func(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	invRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inner.RunCheckout(ctx, func(
		cartRepo repository.CartRepository,
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		productRepo repository.ProductRepository,
	) error {
		wrapped := &interceptCartRepo{CartRepository: cartRepo, afterList: r.afterList}
		return fn(wrapped, orderRepo, invRepo, productRepo)
	})
}

func TestCheckout_AgregadoConcurrenteQuedaFueraDeLaOrden(t *testing.T) {
	store := newMemStore()
	inner := &fakeTxRunner{s: store}
	publisher := &fakePublisher{}
	telemetry := &fakeTelemetry{}
	log := logger.Nop()

	invUC := appinv.NewInventoryUseCase(inner, &memInventoryRepo{s: store}, &memProductRepo{s: store}, publisher, telemetry, log)
	runner := &interceptTxRunner{inner: inner}
	uc := checkout.NewCheckoutUseCase(runner, &memCartRepo{s: store}, &memOrderRepo{s: store}, &memProductRepo{s: store}, invUC, publisher, log)
	f := &fixture{store: store, uc: uc, invUC: invUC, publisher: publisher, telemetry: telemetry}

	leche := f.seedProduct(t, "Leche", "1.25", 50, 10)
	cafe := f.seedProduct(t, "Café", "6.80", 50, 10)
	ctx := context.Background()

	_, err := uc.AddToCart(ctx, testUser, leche.ID, 4) // 5.00
	require.NoError(t, err)

	// Entre el listado y el traspaso, el mismo usuario agrega otro producto
	// que alcanza a confirmarse fuera de la transacción del checkout.
	runner.afterList = func() {
		_, err := uc.AddToCart(ctx, testUser, cafe.ID, 1)
		require.NoError(t, err)
	}

	order, err := uc.Checkout(ctx, testUser, checkoutRequest())
	require.NoError(t, err)

	// La orden contiene exactamente lo listado y tarificado: el total sigue
	// siendo la suma de cantidad*precio de sus ítems.
	require.Len(t, order.Items, 1)
	assert.Equal(t, leche.ID, order.Items[0].ProductID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("5.00")),
		"el total debe cubrir todos los ítems de la orden; fue %s", order.TotalAmount)

	// El agregado tardío no entró a la orden: su stock está intacto y la
	// línea sigue en el carrito para el próximo checkout.
	assert.Equal(t, 50, f.stockOf(t, cafe.ID))
	assert.Equal(t, 46, f.stockOf(t, leche.ID))

	cart, err := uc.GetCart(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, cafe.ID, cart[0].ProductID)
}

func TestCheckout_ConcurrentesConStockUno(t *testing.T) {
	f := newFixture()
	p := f.seedProduct(t, "Miel", "7.50", 1, 0)
	ctx := context.Background()

	users := []string{"user-a", "user-b"}
	for _, u := range users {
		_, err := f.uc.AddToCart(ctx, u, p.ID, 1)
		require.NoError(t, err)
	}

	errs := make(chan error, len(users))
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := f.uc.Checkout(ctx, u, checkoutRequest())
			errs <- err
		}(u)
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactamente un checkout debe completar")
	assert.Equal(t, 1, insufficient, "el otro debe fallar por stock insuficiente")
	assert.Equal(t, 0, f.stockOf(t, p.ID), "el stock nunca baja de cero")

	var completed int
	for _, u := range users {
		history, err := f.uc.GetOrderHistory(ctx, u)
		require.NoError(t, err)
		for _, o := range history {
			if o.Status == entity.OrderStatusCompleted {
				completed++
			}
		}
	}
	assert.Equal(t, 1, completed, "solo el ganador deja una orden completada")
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func checkoutRequest() dto.CheckoutRequest {
	return dto.CheckoutRequest{PaymentMethod: "card", ShippingAddress: "Calle 1 #2-3"}
}

func orderRequest(productID string, quantity int, status string) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		UserID: testUser,
		Items: []dto.OrderItemRequest{
			{ProductID: productID, Quantity: quantity},
		},
		Status:        status,
		PaymentMethod: "card",
	}
}
