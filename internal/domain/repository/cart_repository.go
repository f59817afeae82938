package repository

import "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"

// CartRepository define el puerto de persistencia para líneas de carrito.
// Usado dentro de transacciones durante el checkout para el traspaso atómico
// carrito -> orden.
type CartRepository interface {
	// Upsert inserta la línea o, si ya existe una línea sin orden para
	// (user_id, product_id), suma la cantidad de forma atómica (la fila
	// existente conserva su unit_price congelado). Devuelve la línea resultante.
	Upsert(item *entity.CartItem) (*entity.CartItem, error)
	// Create inserta una línea tal cual (usado por órdenes administrativas).
	Create(item *entity.CartItem) error
	GetByIDAndUser(id, userID string) (*entity.CartItem, error)
	// ListUnattached devuelve las líneas del usuario que aún no pertenecen a una orden.
	ListUnattached(userID string) ([]*entity.CartItem, error)
	// ListUnattachedForUpdate es ListUnattached con bloqueo de fila: dentro de
	// una transacción congela cantidad y precio de cada línea hasta el commit.
	ListUnattachedForUpdate(userID string) ([]*entity.CartItem, error)
	// AttachToOrder asigna order_id exactamente a las líneas listadas. Si alguna
	// ya pertenece a otra orden la operación falla completa: nunca se adjunta
	// una línea que no fue tarificada.
	AttachToOrder(orderID string, itemIDs []string) error
	Delete(id string) error
	// DeleteUnattached vacía el carrito del usuario (líneas sin orden).
	DeleteUnattached(userID string) error
	DeleteByOrder(orderID string) error
}
