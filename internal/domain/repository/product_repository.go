package repository

import "github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByBarcode(barcode string) (*entity.Product, error)
	GetByRFIDTag(rfidTag string) (*entity.Product, error)
	// List filtra por categoría si category no es vacío (igualdad simple, sin búsqueda).
	List(category string, limit, offset int) ([]*entity.Product, error)
	Categories() ([]string, error)
	Update(product *entity.Product) error
	Delete(id string) error
}
