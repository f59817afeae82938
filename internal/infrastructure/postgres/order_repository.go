package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación del puerto OrderRepository sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la cabecera de la orden.
func (r *OrderRepo) Create(order *entity.Order) error {
	query := `
		INSERT INTO orders (id, user_id, total_amount, status, payment_method,
		                    payment_transaction_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.UserID, order.TotalAmount, order.Status, order.PaymentMethod,
		order.PaymentTransactionID, order.Metadata, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// GetByIDAndUser retorna la orden con sus líneas; nil si no existe o no es del usuario.
func (r *OrderRepo) GetByIDAndUser(orderID, userID string) (*entity.Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, payment_method,
		       payment_transaction_id, metadata, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2`
	var o entity.Order
	err := r.q.QueryRow(context.Background(), query, orderID, userID).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentMethod,
		&o.PaymentTransactionID, &o.Metadata, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := r.itemsByOrder(o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// ListByUser lista las órdenes del usuario con sus líneas, de la más reciente a la más antigua.
func (r *OrderRepo) ListByUser(userID string) ([]*entity.Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, payment_method,
		       payment_transaction_id, metadata, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentMethod,
			&o.PaymentTransactionID, &o.Metadata, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		items, err := r.itemsByOrder(o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

// Delete elimina la cabecera de la orden.
func (r *OrderRepo) Delete(orderID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (r *OrderRepo) itemsByOrder(orderID string) ([]*entity.CartItem, error) {
	query := `
		SELECT ci.id, ci.order_id, ci.product_id, ci.user_id, ci.quantity, ci.unit_price,
		       ci.created_at, ci.updated_at, p.name
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.order_id = $1
		ORDER BY ci.created_at`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	return scanCartItems(rows)
}
