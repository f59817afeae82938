package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/usecase"
)

// AnalyticsHandler expone el tablero de analítica (protegido, solo lectura).
type AnalyticsHandler struct {
	uc *usecase.AnalyticsUseCase
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *usecase.AnalyticsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

// GetSalesOverview godoc
// @Summary      Resumen de ventas de los últimos N días
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Días hacia atrás (default 7, máx 365)"
// @Success      200  {object}  dto.SalesOverviewDTO
// @Router       /api/analytics/sales [get]
func (h *AnalyticsHandler) GetSalesOverview(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	overview, err := h.uc.GetSalesOverview(c.Context(), days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(overview)
}

// GetTopProducts godoc
// @Summary      Productos más vendidos por unidades
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Cantidad (default 5, máx 50)"
// @Success      200  {array}  dto.TopProductDTO
// @Router       /api/analytics/top-products [get]
func (h *AnalyticsHandler) GetTopProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	top, err := h.uc.GetTopSellingProducts(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"products": top})
}

// GetInventoryStatus godoc
// @Summary      Estado global del inventario
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventoryStatusDTO
// @Router       /api/analytics/inventory-status [get]
func (h *AnalyticsHandler) GetInventoryStatus(c *fiber.Ctx) error {
	status, err := h.uc.GetInventoryStatus(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(status)
}

// GetTelemetry godoc
// @Summary      Últimas entradas del canal de telemetría
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        results  query  int  false  "Cantidad de entradas (default 10, máx 100)"
// @Success      200  {object}  map[string]any
// @Router       /api/analytics/telemetry [get]
func (h *AnalyticsHandler) GetTelemetry(c *fiber.Ctx) error {
	results := c.QueryInt("results", 0)
	feed, err := h.uc.GetTelemetryFeed(c.Context(), results)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "TELEMETRY_UNAVAILABLE", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(feed)
}
