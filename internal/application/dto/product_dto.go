package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Category    string          `json:"category,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	RFIDTag     string          `json:"rfid_tag,omitempty"`
	Location    string          `json:"location,omitempty"`
}

// UpdateProductRequest body para PATCH /api/products/:id.
// Solo los campos presentes se aplican (merge explícito, sin reflexión).
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
	RFIDTag     *string          `json:"rfid_tag,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Location    *string          `json:"location,omitempty"`
}

// ProductResponse representación HTTP de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Category    string          `json:"category"`
	Barcode     string          `json:"barcode,omitempty"`
	RFIDTag     string          `json:"rfid_tag,omitempty"`
	IsActive    bool            `json:"is_active"`
	Location    string          `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado de productos.
type ProductListResponse struct {
	Products []*ProductResponse `json:"products"`
	Page     PageResponse       `json:"page"`
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}
