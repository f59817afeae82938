package http

import (
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/application/dto"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
)

func toCartItemResponse(item *entity.CartItem) *dto.CartItemResponse {
	return &dto.CartItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Subtotal:    item.Subtotal(),
	}
}

func toCartItemResponses(items []*entity.CartItem) []*dto.CartItemResponse {
	out := make([]*dto.CartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toCartItemResponse(item))
	}
	return out
}

func toOrderResponse(order *entity.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		Items:         toCartItemResponses(order.Items),
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Metadata:      order.Metadata,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toInventoryResponse(inv *entity.Inventory) *dto.InventoryResponse {
	return &dto.InventoryResponse{
		ID:                inv.ID,
		ProductID:         inv.ProductID,
		ProductName:       inv.ProductName,
		CurrentStock:      inv.CurrentStock,
		MinStockLevel:     inv.MinStockLevel,
		MaxStockCapacity:  inv.MaxStockCapacity,
		LowStockAlert:     inv.LowStockAlert,
		LastReplenishedAt: inv.LastReplenishedAt,
		SensorData:        inv.SensorData,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}
