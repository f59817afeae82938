package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

const (
	defaultSalesDays   = 7
	maxSalesDays       = 365
	defaultTopN        = 5
	maxTopN            = 50
	defaultFeedEntries = 10
	maxFeedEntries     = 100
)

// TelemetryFeed lee las últimas entradas del canal externo de telemetría.
type TelemetryFeed interface {
	ChannelFeed(ctx context.Context, results int) ([]byte, error)
}

// AnalyticsUseCase consultas de solo lectura para el tablero: resumen de
// ventas, productos más vendidos, estado del inventario y paso directo del
// feed de telemetría. No genera reportes ni escribe estado.
type AnalyticsUseCase struct {
	repo repository.AnalyticsRepository
	feed TelemetryFeed
}

// NewAnalyticsUseCase construye el caso de uso.
func NewAnalyticsUseCase(repo repository.AnalyticsRepository, feed TelemetryFeed) *AnalyticsUseCase {
	return &AnalyticsUseCase{repo: repo, feed: feed}
}

// GetSalesOverview resume las ventas completadas de los últimos `days` días.
func (uc *AnalyticsUseCase) GetSalesOverview(ctx context.Context, days int) (*dto.SalesOverviewDTO, error) {
	if days <= 0 {
		days = defaultSalesDays
	}
	if days > maxSalesDays {
		days = maxSalesDays
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days).Truncate(24 * time.Hour)

	rows, err := uc.repo.GetSalesByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}

	overview := &dto.SalesOverviewDTO{
		TotalSales: decimal.Zero,
		SalesByDay: make(map[string]decimal.Decimal, len(rows)),
	}
	for _, row := range rows {
		day := row.Day.Format("2006-01-02")
		overview.SalesByDay[day] = row.TotalSales
		overview.TotalSales = overview.TotalSales.Add(row.TotalSales)
		overview.TotalOrders += row.OrderCount
	}
	if overview.TotalOrders > 0 {
		overview.AverageOrderValue = overview.TotalSales.
			Div(decimal.NewFromInt(int64(overview.TotalOrders))).
			Round(2)
	} else {
		overview.AverageOrderValue = decimal.Zero
	}
	return overview, nil
}

// GetTopSellingProducts devuelve los `limit` productos con más unidades vendidas.
func (uc *AnalyticsUseCase) GetTopSellingProducts(ctx context.Context, limit int) ([]dto.TopProductDTO, error) {
	if limit <= 0 {
		limit = defaultTopN
	}
	if limit > maxTopN {
		limit = maxTopN
	}
	rows, err := uc.repo.GetTopProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TopProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.TopProductDTO{
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Revenue:   row.Revenue,
		})
	}
	return out, nil
}

// GetInventoryStatus devuelve el estado global del inventario (ítems con stock
// bajo y agotados).
func (uc *AnalyticsUseCase) GetInventoryStatus(ctx context.Context) (*dto.InventoryStatusDTO, error) {
	total, err := uc.repo.CountInventory(ctx)
	if err != nil {
		return nil, err
	}
	low, err := uc.repo.GetLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out, err := uc.repo.GetOutOfStock(ctx)
	if err != nil {
		return nil, err
	}

	status := &dto.InventoryStatusDTO{
		TotalItems:      total,
		LowStockItems:   make([]dto.StockItemDTO, 0, len(low)),
		OutOfStockItems: make([]dto.StockItemDTO, 0, len(out)),
	}
	for _, row := range low {
		status.LowStockItems = append(status.LowStockItems, dto.StockItemDTO{
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.CurrentStock,
			Threshold: row.MinStockLevel,
		})
	}
	for _, row := range out {
		status.OutOfStockItems = append(status.OutOfStockItems, dto.StockItemDTO{
			ProductID: row.ProductID,
			Name:      row.Name,
		})
	}
	return status, nil
}

// GetTelemetryFeed devuelve las últimas `results` entradas del canal de
// telemetría tal como las entrega el proveedor (JSON crudo).
func (uc *AnalyticsUseCase) GetTelemetryFeed(ctx context.Context, results int) ([]byte, error) {
	if results <= 0 {
		results = defaultFeedEntries
	}
	if results > maxFeedEntries {
		results = maxFeedEntries
	}
	return uc.feed.ChannelFeed(ctx, results)
}
