// Package simulation genera lecturas sintéticas de sensores y compras
// simuladas. Es un productor externo al núcleo: usa los mismos puertos
// (eventos, telemetría) y el mismo caso de uso de checkout que usaría el
// hardware real.
package simulation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/checkout"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/ports"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	domaininv "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/inventory"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/config"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

// Tópicos de los sensores simulados.
const (
	TopicRFIDReading        = "sensors/rfid"
	TopicWeightReading      = "sensors/weight"
	TopicEnvironmentReading = "sensors/environment"
	TopicMotionReading      = "sensors/motion"
)

const simulatedUserID = "simulated-shopper"

var storeZones = []string{"entrance", "aisle-1", "aisle-2", "dairy", "produce", "checkout"}

// Simulator emite lecturas periódicas de RFID, peso, ambiente y movimiento,
// y dispara compras sintéticas contra el checkout real.
type Simulator struct {
	cfg         config.SimulationConfig
	productRepo repository.ProductRepository
	checkout    *checkout.CheckoutUseCase
	events      ports.EventPublisher
	telemetry   ports.TelemetrySink
	log         *logger.Logger

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewSimulator construye el simulador; arranca con Start.
func NewSimulator(
	cfg config.SimulationConfig,
	productRepo repository.ProductRepository,
	checkoutUC *checkout.CheckoutUseCase,
	events ports.EventPublisher,
	telemetry ports.TelemetrySink,
	log *logger.Logger,
) *Simulator {
	return &Simulator{
		cfg:         cfg,
		productRepo: productRepo,
		checkout:    checkoutUC,
		events:      events,
		telemetry:   telemetry,
		log:         log.Component("simulation"),
	}
}

// Running indica si el simulador está activo.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start lanza los emisores periódicos. Idempotente: arrancar dos veces no
// duplica los tickers.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.stop = make(chan struct{})
	s.running = true

	s.spawn(s.cfg.RFIDInterval, s.emitRFID)
	s.spawn(s.cfg.WeightInterval, s.emitWeight)
	s.spawn(s.cfg.EnvironmentInterval, s.emitEnvironment)
	s.spawn(s.cfg.MotionInterval, s.emitMotion)
	s.spawn(s.cfg.CheckoutInterval, s.emitCheckout)

	s.log.Info().Msg("simulación de sensores iniciada")
}

// Stop detiene los emisores y espera a que terminen.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("simulación de sensores detenida")
}

func (s *Simulator) spawn(interval time.Duration, emit func()) {
	stop := s.stop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				emit()
			}
		}
	}()
}

// emitRFID simula el paso de un producto por un lector RFID y empuja el
// stock actual del sensor a la telemetría.
func (s *Simulator) emitRFID() {
	product := s.randomProduct()
	if product == nil {
		return
	}
	sensorID := domaininv.NumericSensorID(product.ID)
	if err := s.events.Publish(TopicRFIDReading, map[string]any{
		"rfidTag":   product.RFIDTag,
		"productId": product.ID,
		"sensorId":  sensorID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo publicar lectura RFID")
	}
}

// emitWeight simula la báscula de un estante.
func (s *Simulator) emitWeight() {
	product := s.randomProduct()
	if product == nil {
		return
	}
	weight := 50 + rand.Float64()*4950 // gramos
	if err := s.events.Publish(TopicWeightReading, map[string]any{
		"productId": product.ID,
		"sensorId":  domaininv.NumericSensorID(product.ID),
		"weight":    weight,
		"unit":      "g",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo publicar lectura de peso")
	}
}

// emitEnvironment simula temperatura y humedad de la tienda y las empuja
// al canal de telemetría.
func (s *Simulator) emitEnvironment() {
	temperature := 18 + rand.Float64()*8 // 18-26 °C
	humidity := 40 + rand.Float64()*30   // 40-70 %
	if err := s.events.Publish(TopicEnvironmentReading, map[string]any{
		"temperature": temperature,
		"humidity":    humidity,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo publicar lectura ambiental")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetry.PushEnvironment(ctx, temperature, humidity); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo enviar telemetría ambiental")
	}
}

// emitMotion simula el sensor de movimiento de una zona de la tienda.
func (s *Simulator) emitMotion() {
	zone := storeZones[rand.Intn(len(storeZones))]
	if err := s.events.Publish(TopicMotionReading, map[string]any{
		"zone":      zone,
		"detected":  rand.Intn(4) > 0,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo publicar lectura de movimiento")
	}
}

// emitCheckout dispara una compra sintética contra el checkout real.
func (s *Simulator) emitCheckout() {
	if _, err := s.SimulateCheckout(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("compra simulada fallida")
	}
}

// SimulateCheckout crea una orden completada con 1 a 3 productos aleatorios
// del catálogo, pasando por el mismo camino que una compra real (descuento de
// stock, eventos, telemetría).
func (s *Simulator) SimulateCheckout(ctx context.Context) (*entity.Order, error) {
	products, err := s.productRepo.List("", 50, 0)
	if err != nil {
		return nil, err
	}
	active := products[:0]
	for _, p := range products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	count := 1 + rand.Intn(3)
	if count > len(active) {
		count = len(active)
	}
	rand.Shuffle(len(active), func(i, j int) { active[i], active[j] = active[j], active[i] })

	items := make([]dto.OrderItemRequest, 0, count)
	for _, p := range active[:count] {
		items = append(items, dto.OrderItemRequest{
			ProductID: p.ID,
			Quantity:  1 + rand.Intn(3),
		})
	}

	order, err := s.checkout.CreateOrder(ctx, dto.CreateOrderRequest{
		UserID:        simulatedUserID,
		Items:         items,
		Status:        entity.OrderStatusCompleted,
		PaymentMethod: "simulated",
		Metadata:      map[string]any{"source": "simulation"},
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("order_id", order.ID).
		Str("total", order.TotalAmount.String()).
		Int("items", len(order.Items)).
		Msg("compra simulada creada")
	return order, nil
}

func (s *Simulator) randomProduct() *entity.Product {
	products, err := s.productRepo.List("", 50, 0)
	if err != nil || len(products) == 0 {
		return nil
	}
	return products[rand.Intn(len(products))]
}
