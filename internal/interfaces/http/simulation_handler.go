package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/simulation"
)

// SimulationHandler controla el generador de sensores simulados (solo admin).
type SimulationHandler struct {
	sim *simulation.Simulator
}

// NewSimulationHandler construye el handler.
func NewSimulationHandler(sim *simulation.Simulator) *SimulationHandler {
	return &SimulationHandler{sim: sim}
}

// Start godoc
// @Summary      Arrancar la simulación de sensores
// @Tags         simulation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/simulation/start [post]
func (h *SimulationHandler) Start(c *fiber.Ctx) error {
	h.sim.Start()
	return c.JSON(dto.MessageResponse{Message: "simulación iniciada"})
}

// Stop godoc
// @Summary      Detener la simulación de sensores
// @Tags         simulation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/simulation/stop [post]
func (h *SimulationHandler) Stop(c *fiber.Ctx) error {
	h.sim.Stop()
	return c.JSON(dto.MessageResponse{Message: "simulación detenida"})
}

// Status godoc
// @Summary      Estado de la simulación
// @Tags         simulation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/simulation/status [get]
func (h *SimulationHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"running": h.sim.Running()})
}

// SimulateCheckout godoc
// @Summary      Disparar una compra simulada inmediata
// @Tags         simulation
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.OrderResponse
// @Router       /api/simulation/checkout [post]
func (h *SimulationHandler) SimulateCheckout(c *fiber.Ctx) error {
	order, err := h.sim.SimulateCheckout(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if order == nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_PRODUCTS", Message: "no hay productos activos para simular"})
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
}
