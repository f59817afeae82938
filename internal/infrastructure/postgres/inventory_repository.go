package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const inventorySelect = `
	SELECT i.id, i.product_id, i.current_stock, i.min_stock_level, i.max_stock_capacity,
	       i.low_stock_alert, i.last_replenished_at, i.sensor_data, i.created_at, i.updated_at,
	       p.name
	FROM inventory i
	JOIN products p ON p.id = i.product_id`

// InventoryRepo implementación del puerto InventoryRepository sobre PostgreSQL.
type InventoryRepo struct {
	q Querier
}

func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// Create persiste un registro de inventario. Falla con ErrDuplicate si el producto ya tiene uno.
func (r *InventoryRepo) Create(inv *entity.Inventory) error {
	query := `
		INSERT INTO inventory (id, product_id, current_stock, min_stock_level, max_stock_capacity,
		                       low_stock_alert, last_replenished_at, sensor_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.ProductID, inv.CurrentStock, inv.MinStockLevel, inv.MaxStockCapacity,
		inv.LowStockAlert, inv.LastReplenishedAt, inv.SensorData, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

// GetByID obtiene el registro por su ID; nil si no existe.
func (r *InventoryRepo) GetByID(id string) (*entity.Inventory, error) {
	return r.getOne(inventorySelect+` WHERE i.id = $1`, id)
}

// GetByProduct obtiene el registro del producto; nil si no existe.
func (r *InventoryRepo) GetByProduct(productID string) (*entity.Inventory, error) {
	return r.getOne(inventorySelect+` WHERE i.product_id = $1`, productID)
}

// GetByProductForUpdate obtiene el registro bloqueando la fila dentro de la
// transacción actual. Serializa los ajustes concurrentes de stock del mismo producto.
func (r *InventoryRepo) GetByProductForUpdate(productID string) (*entity.Inventory, error) {
	return r.getOne(inventorySelect+` WHERE i.product_id = $1 FOR UPDATE OF i`, productID)
}

func (r *InventoryRepo) getOne(query string, arg any) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&inv.ID, &inv.ProductID, &inv.CurrentStock, &inv.MinStockLevel, &inv.MaxStockCapacity,
		&inv.LowStockAlert, &inv.LastReplenishedAt, &inv.SensorData, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.ProductName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return &inv, nil
}

// Update persiste el estado completo del registro de inventario.
func (r *InventoryRepo) Update(inv *entity.Inventory) error {
	query := `
		UPDATE inventory
		SET current_stock = $2, min_stock_level = $3, max_stock_capacity = $4,
		    low_stock_alert = $5, last_replenished_at = $6, sensor_data = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.CurrentStock, inv.MinStockLevel, inv.MaxStockCapacity,
		inv.LowStockAlert, inv.LastReplenishedAt, inv.SensorData, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	return nil
}

// List lista todos los registros de inventario ordenados por producto.
func (r *InventoryRepo) List() ([]*entity.Inventory, error) {
	query := inventorySelect + ` ORDER BY p.name`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var list []*entity.Inventory
	for rows.Next() {
		var inv entity.Inventory
		if err := rows.Scan(
			&inv.ID, &inv.ProductID, &inv.CurrentStock, &inv.MinStockLevel, &inv.MaxStockCapacity,
			&inv.LowStockAlert, &inv.LastReplenishedAt, &inv.SensorData, &inv.CreatedAt, &inv.UpdatedAt,
			&inv.ProductName,
		); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		list = append(list, &inv)
	}
	return list, rows.Err()
}
