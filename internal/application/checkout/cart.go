package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
)

// AddToCart agrega quantity unidades de un producto al carrito del usuario.
// Si ya existe una línea sin orden para (usuario, producto) se le suma la
// cantidad; si no, se crea con el precio vigente del producto congelado
// (cambios de precio posteriores no afectan al carrito). Falla con ErrNotFound
// si el producto no existe o está inactivo.
func (uc *CheckoutUseCase) AddToCart(ctx context.Context, userID, productID string, quantity int) (*entity.CartItem, error) {
	if userID == "" || productID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	item := &entity.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// El upsert incrementa la cantidad de forma atómica en BD: dos adds
	// concurrentes del mismo usuario no pierden actualizaciones.
	return uc.cartRepo.Upsert(item)
}

// GetCart devuelve las líneas del carrito del usuario (sin orden asignada).
func (uc *CheckoutUseCase) GetCart(ctx context.Context, userID string) ([]*entity.CartItem, error) {
	return uc.cartRepo.ListUnattached(userID)
}

// RemoveFromCart elimina una línea del carrito. Falla con ErrNotFound si la
// línea no existe o no pertenece al usuario.
func (uc *CheckoutUseCase) RemoveFromCart(ctx context.Context, userID, itemID string) error {
	item, err := uc.cartRepo.GetByIDAndUser(itemID, userID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return uc.cartRepo.Delete(item.ID)
}

// ClearCart vacía el carrito del usuario (solo líneas sin orden asignada).
func (uc *CheckoutUseCase) ClearCart(ctx context.Context, userID string) error {
	return uc.cartRepo.DeleteUnattached(userID)
}
