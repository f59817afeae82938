package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/checkout"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/inventory"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/usecase"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/simulation"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	AnalyticsUC *usecase.AnalyticsUseCase
	InventoryUC *inventory.InventoryUseCase
	CheckoutUC  *checkout.CheckoutUseCase
	Simulator   *simulation.Simulator
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido; mutaciones solo admin)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/categories", productHandler.Categories)
	products.Get("/barcode/:barcode", productHandler.GetByBarcode)
	products.Get("/rfid/:tag", productHandler.GetByRFIDTag)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", RequireRole("admin"), productHandler.Create)
	products.Patch("/:id", RequireRole("admin"), productHandler.Update)
	products.Delete("/:id", RequireRole("admin"), productHandler.Delete)

	// Checkout: carrito y órdenes (protegido)
	checkoutGroup := protected.Group("/checkout")
	checkoutHandler := NewCheckoutHandler(deps.CheckoutUC)
	checkoutGroup.Post("/cart", checkoutHandler.AddToCart)
	checkoutGroup.Get("/cart", checkoutHandler.GetCart)
	checkoutGroup.Delete("/cart", checkoutHandler.ClearCart)
	checkoutGroup.Delete("/cart/:itemId", checkoutHandler.RemoveFromCart)
	checkoutGroup.Post("/process", checkoutHandler.Checkout)
	checkoutGroup.Get("/orders", checkoutHandler.GetOrderHistory)
	checkoutGroup.Get("/orders/:id", checkoutHandler.GetOrderDetails)
	checkoutGroup.Delete("/orders/:id", checkoutHandler.DeleteOrder)
	// Órdenes directas: las crean el panel admin o los dispositivos de piso.
	checkoutGroup.Post("/orders", RequireRole("admin", "device"), checkoutHandler.CreateOrder)

	// Inventory (protegido; escrituras solo admin o dispositivo)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	invGroup.Get("/", inventoryHandler.List)
	invGroup.Get("/product/:productId", inventoryHandler.GetByProduct)
	invGroup.Patch("/product/:productId/stock", RequireRole("admin", "device"), inventoryHandler.AdjustStock)
	invGroup.Post("/initialize", RequireRole("admin"), inventoryHandler.InitializeAll)
	invGroup.Post("/initialize/product/:productId", RequireRole("admin"), inventoryHandler.Initialize)
	invGroup.Get("/:id", inventoryHandler.GetByID)
	invGroup.Patch("/:id", RequireRole("admin"), inventoryHandler.Update)

	// Analytics (protegido, solo lectura)
	analyticsGroup := protected.Group("/analytics")
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsUC)
	analyticsGroup.Get("/sales", analyticsHandler.GetSalesOverview)
	analyticsGroup.Get("/top-products", analyticsHandler.GetTopProducts)
	analyticsGroup.Get("/inventory-status", analyticsHandler.GetInventoryStatus)
	analyticsGroup.Get("/telemetry", analyticsHandler.GetTelemetry)

	// Simulation (solo admin)
	simGroup := protected.Group("/simulation", RequireRole("admin"))
	simulationHandler := NewSimulationHandler(deps.Simulator)
	simGroup.Post("/start", simulationHandler.Start)
	simGroup.Post("/stop", simulationHandler.Stop)
	simGroup.Get("/status", simulationHandler.Status)
	simGroup.Post("/checkout", simulationHandler.SimulateCheckout)
}
