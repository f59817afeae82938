package repository

import "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"

// OrderRepository define el puerto de persistencia para Order.
type OrderRepository interface {
	Create(order *entity.Order) error
	UpdateStatus(id, status string) error
	// GetByIDAndUser devuelve la orden con sus ítems, o nil si no existe
	// o no pertenece al usuario.
	GetByIDAndUser(id, userID string) (*entity.Order, error)
	// ListByUser devuelve las órdenes del usuario con ítems, más recientes primero.
	ListByUser(userID string) ([]*entity.Order, error)
	Delete(id string) error
}
