package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas agregadas de solo lectura para el tablero.
type AnalyticsRepo struct {
	q Querier
}

func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// GetSalesByDay agrupa las órdenes completadas por día dentro del rango.
func (r *AnalyticsRepo) GetSalesByDay(ctx context.Context, startDate, endDate time.Time) ([]repository.DailySales, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COALESCE(SUM(total_amount), 0) AS total_sales,
		       COUNT(*) AS order_count
		FROM orders
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`
	rows, err := r.q.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}
	defer rows.Close()

	var sales []repository.DailySales
	for rows.Next() {
		var s repository.DailySales
		if err := rows.Scan(&s.Day, &s.TotalSales, &s.OrderCount); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// GetTopProducts devuelve los productos con más unidades vendidas en órdenes completadas.
func (r *AnalyticsRepo) GetTopProducts(ctx context.Context, limit int) ([]repository.TopProductResult, error) {
	query := `
		SELECT ci.product_id, p.name,
		       SUM(ci.quantity) AS quantity,
		       SUM(ci.quantity * ci.unit_price) AS revenue
		FROM cart_items ci
		JOIN orders o ON o.id = ci.order_id
		JOIN products p ON p.id = ci.product_id
		WHERE o.status = 'completed'
		GROUP BY ci.product_id, p.name
		ORDER BY quantity DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var top []repository.TopProductResult
	for rows.Next() {
		var t repository.TopProductResult
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Quantity, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

// CountInventory devuelve el total de registros de inventario.
func (r *AnalyticsRepo) CountInventory(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count inventory: %w", err)
	}
	return count, nil
}

// GetLowStock devuelve los productos con stock en o bajo su umbral mínimo (pero no agotados).
func (r *AnalyticsRepo) GetLowStock(ctx context.Context) ([]repository.InventoryStatusRow, error) {
	query := `
		SELECT i.product_id, p.name, i.current_stock, i.min_stock_level
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.current_stock > 0 AND i.current_stock <= i.min_stock_level
		ORDER BY i.current_stock`
	return r.statusRows(ctx, query)
}

// GetOutOfStock devuelve los productos con stock cero.
func (r *AnalyticsRepo) GetOutOfStock(ctx context.Context) ([]repository.InventoryStatusRow, error) {
	query := `
		SELECT i.product_id, p.name, i.current_stock, i.min_stock_level
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.current_stock <= 0
		ORDER BY p.name`
	return r.statusRows(ctx, query)
}

func (r *AnalyticsRepo) statusRows(ctx context.Context, query string) ([]repository.InventoryStatusRow, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("inventory status: %w", err)
	}
	defer rows.Close()

	var result []repository.InventoryStatusRow
	for rows.Next() {
		var row repository.InventoryStatusRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.CurrentStock, &row.MinStockLevel); err != nil {
			return nil, fmt.Errorf("scan inventory status: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
