package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/checkout"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/inventory"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/usecase"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/infrastructure/mqtt"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/infrastructure/postgres"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/infrastructure/thingspeak"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/interfaces/http"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/simulation"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/config"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	invRepo := postgres.NewInventoryRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Broker MQTT: eventos de dominio y lecturas de sensores.
	publisher := mqtt.NewPublisher(cfg.MQTT, log)
	if err := publisher.Connect(); err != nil {
		// El broker puede no estar disponible todavía; el cliente reintenta
		// y mientras tanto los eventos se descartan (at-most-once).
		log.Warn().Err(err).Msg("broker MQTT no disponible al arrancar")
	}
	defer publisher.Close()

	telemetry := thingspeak.NewClient(cfg.Thingspeak, log)

	inventoryUC := inventory.NewInventoryUseCase(txRunner, invRepo, productRepo, publisher, telemetry, log)
	checkoutUC := checkout.NewCheckoutUseCase(txRunner, cartRepo, orderRepo, productRepo, inventoryUC, publisher, log)
	productUC := usecase.NewProductUseCase(productRepo)
	analyticsUC := usecase.NewAnalyticsUseCase(analyticsRepo, telemetry)

	simulator := simulation.NewSimulator(cfg.Simulation, productRepo, checkoutUC, publisher, telemetry, log)
	defer simulator.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Smart Grocery Store API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	http.Router(app, http.RouterDeps{
		ProductUC:   productUC,
		AnalyticsUC: analyticsUC,
		InventoryUC: inventoryUC,
		CheckoutUC:  checkoutUC,
		Simulator:   simulator,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
