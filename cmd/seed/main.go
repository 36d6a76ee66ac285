// Command seed wipes the store and loads the demo account with four receipts.
package main

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ecoreceipt/ecoreceipt/internal/config"
	pkgcrypto "github.com/ecoreceipt/ecoreceipt/internal/crypto"
	"github.com/ecoreceipt/ecoreceipt/internal/migrate"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository/postgres"
)

const (
	demoEmail    = "demo@ecoreceipt.com"
	demoPassword = "password123"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Clear existing data.
	for _, q := range []string{`DELETE FROM receipts`, `DELETE FROM auth_limiter`, `DELETE FROM users`} {
		if _, err := db.Pool.Exec(ctx, q); err != nil {
			logger.Fatal("clear", zap.String("query", q), zap.Error(err))
		}
	}

	users := postgres.NewUserRepo(db)
	receipts := postgres.NewReceiptRepo(db)

	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		logger.Fatal("salt", zap.Error(err))
	}
	demo := &model.User{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     demoEmail,
		Name:      "Demo User",
		PwdHash:   pkgcrypto.HashPassword([]byte(demoPassword), salt),
		SaltAuth:  salt,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(ctx, demo); err != nil {
		logger.Fatal("create demo user", zap.Error(err))
	}
	logger.Info("created demo user", zap.String("email", demoEmail))

	for _, rec := range demoReceipts(demo.ID) {
		if err := receipts.Create(ctx, &rec); err != nil {
			logger.Fatal("create demo receipt", zap.String("retailer", rec.Retailer), zap.Error(err))
		}
	}
	logger.Info("seed complete",
		zap.Int("receipts", len(demoReceipts(demo.ID))),
		zap.String("login", demoEmail+" / "+demoPassword),
	)
}

func demoReceipts(userID uuid.UUID) []model.Receipt {
	now := time.Now().UTC()
	return []model.Receipt{
		{
			ID: uuid.Must(uuid.NewV4()), UserID: userID,
			Retailer: "Green Grocers",
			Logo:     "https://placehold.co/50x50/4CAF50/FFFFFF?text=GG",
			Date:     "2025-01-15", Time: "14:30",
			Items: []model.ReceiptItem{
				{Name: "Organic Apples", Quantity: 2, Price: 8.99},
				{Name: "Whole Grain Bread", Quantity: 1, Price: 4.50},
				{Name: "Free Range Eggs", Quantity: 1, Price: 6.99},
				{Name: "Almond Milk", Quantity: 2, Price: 12.98},
			},
			Subtotal: 33.46, Tax: 3.35, Total: 45.50,
			Category: "Groceries", CreatedAt: now,
		},
		{
			ID: uuid.Must(uuid.NewV4()), UserID: userID,
			Retailer: "EcoMart",
			Logo:     "https://placehold.co/50x50/2E7D32/FFFFFF?text=EM",
			Date:     "2025-01-14", Time: "11:45",
			Items: []model.ReceiptItem{
				{Name: "Bamboo Toothbrush Set", Quantity: 1, Price: 15.99},
				{Name: "Reusable Water Bottle", Quantity: 1, Price: 24.99},
				{Name: "Organic Shampoo", Quantity: 2, Price: 32.50},
			},
			Subtotal: 73.48, Tax: 7.35, Total: 89.25,
			Category: "Personal Care", CreatedAt: now,
		},
		{
			ID: uuid.Must(uuid.NewV4()), UserID: userID,
			Retailer: "Fresh Foods",
			Logo:     "https://placehold.co/50x50/66BB6A/FFFFFF?text=FF",
			Date:     "2025-01-13", Time: "18:20",
			Items: []model.ReceiptItem{
				{Name: "Organic Salmon", Quantity: 1, Price: 18.99},
				{Name: "Mixed Vegetables", Quantity: 1, Price: 12.50},
				{Name: "Quinoa", Quantity: 2, Price: 19.98},
			},
			Subtotal: 51.47, Tax: 5.15, Total: 67.80,
			Category: "Groceries", CreatedAt: now,
		},
		{
			ID: uuid.Must(uuid.NewV4()), UserID: userID,
			Retailer: "Local Cafe",
			Logo:     "https://placehold.co/50x50/81C784/FFFFFF?text=LC",
			Date:     "2025-01-12", Time: "09:15",
			Items: []model.ReceiptItem{
				{Name: "Oat Milk Latte", Quantity: 1, Price: 4.50},
				{Name: "Avocado Toast", Quantity: 1, Price: 6.95},
			},
			Subtotal: 11.45, Tax: 1.00, Total: 12.45,
			Category: "Dining", CreatedAt: now,
		},
	}
}
