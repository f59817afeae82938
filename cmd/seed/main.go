// Aplica el esquema y siembra el catálogo de prueba de la tienda con su
// inventario inicial. Idempotente: los productos ya sembrados se omiten.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GabrielDushime/Smart-Grocery-Store/db"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/domain/entity"
	"github.com/GabrielDushime/Smart-Grocery-Store/internal/infrastructure/postgres"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/config"
	"github.com/GabrielDushime/Smart-Grocery-Store/pkg/logger"
)

type seedProduct struct {
	name     string
	price    string
	category string
	barcode  string
	rfidTag  string
	location string
}

var catalog = []seedProduct{
	{"Leche entera 1L", "1.25", "Dairy", "7701001000011", "RFID-MILK-001", "dairy"},
	{"Yogur natural 500g", "2.10", "Dairy", "7701001000028", "RFID-YOG-002", "dairy"},
	{"Queso campesino 250g", "3.40", "Dairy", "7701001000035", "RFID-CHE-003", "dairy"},
	{"Pan integral", "1.80", "Bakery", "7701002000010", "RFID-BRD-004", "aisle-1"},
	{"Huevos AA x12", "4.50", "Eggs", "7701003000019", "RFID-EGG-005", "aisle-1"},
	{"Manzana roja kg", "2.90", "Produce", "7701004000018", "RFID-APL-006", "produce"},
	{"Banano kg", "1.10", "Produce", "7701004000025", "RFID-BAN-007", "produce"},
	{"Arroz blanco 1kg", "1.60", "Grains", "7701005000017", "RFID-RIC-008", "aisle-2"},
	{"Frijol rojo 500g", "2.30", "Grains", "7701005000024", "RFID-BEA-009", "aisle-2"},
	{"Café molido 500g", "6.80", "Beverages", "7701006000016", "RFID-COF-010", "aisle-2"},
	{"Agua sin gas 600ml", "0.80", "Beverages", "7701006000023", "RFID-WAT-011", "entrance"},
	{"Detergente líquido 1L", "5.20", "Cleaning", "7701007000015", "RFID-DET-012", "aisle-2"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}
	log.Info().Msg("esquema aplicado")

	productRepo := postgres.NewProductRepository(pool)
	invRepo := postgres.NewInventoryRepository(pool)

	created := 0
	for _, sp := range catalog {
		existing, err := productRepo.GetByBarcode(sp.barcode)
		if err != nil {
			log.Fatal().Err(err).Str("barcode", sp.barcode).Msg("consultar producto")
		}
		if existing != nil {
			continue
		}

		now := time.Now()
		product := &entity.Product{
			ID:        uuid.New().String(),
			Name:      sp.name,
			Price:     decimal.RequireFromString(sp.price),
			Category:  sp.category,
			Barcode:   sp.barcode,
			RFIDTag:   sp.rfidTag,
			IsActive:  true,
			Location:  sp.location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := productRepo.Create(product); err != nil {
			log.Fatal().Err(err).Str("name", sp.name).Msg("crear producto")
		}

		inv := &entity.Inventory{
			ID:            uuid.New().String(),
			ProductID:     product.ID,
			CurrentStock:  entity.InitialStock,
			MinStockLevel: entity.InitialMinStockLevel,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := invRepo.Create(inv); err != nil {
			log.Fatal().Err(err).Str("name", sp.name).Msg("crear inventario")
		}
		created++
	}

	log.Info().Int("created", created).Int("catalog", len(catalog)).Msg("siembra completada")
}
