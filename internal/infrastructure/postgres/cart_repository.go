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

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo implementación del puerto CartRepository sobre PostgreSQL.
type CartRepo struct {
	q Querier
}

func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

// Upsert inserta la línea o, si ya existe una sin orden para (user_id, product_id),
// incrementa la cantidad de forma atómica conservando el precio congelado original.
// Requiere el índice único parcial sobre (user_id, product_id) WHERE order_id IS NULL.
func (r *CartRepo) Upsert(item *entity.CartItem) (*entity.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, order_id, product_id, user_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, NULL, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, product_id) WHERE order_id IS NULL
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, order_id, product_id, user_id, quantity, unit_price, created_at, updated_at`
	var out entity.CartItem
	err := r.q.QueryRow(context.Background(), query,
		item.ID, item.ProductID, item.UserID, item.Quantity, item.UnitPrice,
		item.CreatedAt, item.UpdatedAt,
	).Scan(
		&out.ID, &out.OrderID, &out.ProductID, &out.UserID, &out.Quantity,
		&out.UnitPrice, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return &out, nil
}

// Create inserta una línea tal cual (usada al materializar órdenes directas).
func (r *CartRepo) Create(item *entity.CartItem) error {
	query := `
		INSERT INTO cart_items (id, order_id, product_id, user_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.OrderID, item.ProductID, item.UserID, item.Quantity,
		item.UnitPrice, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// GetByIDAndUser retorna la línea solo si pertenece al usuario; nil si no existe.
func (r *CartRepo) GetByIDAndUser(id, userID string) (*entity.CartItem, error) {
	query := `
		SELECT ci.id, ci.order_id, ci.product_id, ci.user_id, ci.quantity, ci.unit_price,
		       ci.created_at, ci.updated_at, p.name
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.user_id = $2`
	var item entity.CartItem
	err := r.q.QueryRow(context.Background(), query, id, userID).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.UserID, &item.Quantity,
		&item.UnitPrice, &item.CreatedAt, &item.UpdatedAt, &item.ProductName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &item, nil
}

const cartSelect = `
	SELECT ci.id, ci.order_id, ci.product_id, ci.user_id, ci.quantity, ci.unit_price,
	       ci.created_at, ci.updated_at, p.name
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1 AND ci.order_id IS NULL
	ORDER BY ci.created_at`

// ListUnattached lista las líneas del carrito activo del usuario (sin orden asociada).
func (r *CartRepo) ListUnattached(userID string) ([]*entity.CartItem, error) {
	rows, err := r.q.Query(context.Background(), cartSelect, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	return scanCartItems(rows)
}

// ListUnattachedForUpdate lista las líneas activas bloqueando sus filas hasta el
// fin de la transacción: un upsert concurrente sobre una línea listada espera al
// commit, con lo que cantidad y precio listados son los que se tarifican.
func (r *CartRepo) ListUnattachedForUpdate(userID string) ([]*entity.CartItem, error) {
	rows, err := r.q.Query(context.Background(), cartSelect+` FOR UPDATE OF ci`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items for update: %w", err)
	}
	defer rows.Close()
	return scanCartItems(rows)
}

// AttachToOrder asocia a la orden exactamente las líneas indicadas. Una línea
// agregada al carrito entre el listado y este UPDATE no entra a la orden; si
// alguna de las listadas ya fue tomada por otra orden, falla completa.
func (r *CartRepo) AttachToOrder(orderID string, itemIDs []string) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE cart_items SET order_id = $1, updated_at = now()
		 WHERE id = ANY($2::uuid[]) AND order_id IS NULL`,
		orderID, itemIDs)
	if err != nil {
		return fmt.Errorf("attach cart items to order: %w", err)
	}
	if got := tag.RowsAffected(); got != int64(len(itemIDs)) {
		return fmt.Errorf("attach cart items to order: %d de %d líneas disponibles", got, len(itemIDs))
	}
	return nil
}

// Delete elimina una línea por ID.
func (r *CartRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// DeleteUnattached vacía el carrito activo del usuario.
func (r *CartRepo) DeleteUnattached(userID string) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM cart_items WHERE user_id = $1 AND order_id IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// DeleteByOrder elimina las líneas asociadas a una orden.
func (r *CartRepo) DeleteByOrder(orderID string) error {
	_, err := r.q.Exec(context.Background(),
		`DELETE FROM cart_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

func scanCartItems(rows pgx.Rows) ([]*entity.CartItem, error) {
	var items []*entity.CartItem
	for rows.Next() {
		var item entity.CartItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.UserID, &item.Quantity,
			&item.UnitPrice, &item.CreatedAt, &item.UpdatedAt, &item.ProductName,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
