package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bazaar/internal/models"
	"bazaar/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	demoSellerID   = "6f1c2a7e-0b7d-4c55-9a43-3f5d1e2b8a01"
	demoCustomerID = "0c9e4b3d-5a8f-4e21-8b6c-7d2f1a9e3c02"
)

// SeedDemoData creates a demo seller with a stocked shop and a demo customer,
// then logs a bearer token for each. It does nothing if the demo shop exists.
func (a *App) SeedDemoData(ctx context.Context) error {
	if _, err := repositories.NewGORMShopRepository(a.db).GetByOwner(ctx, demoSellerID); err == nil {
		log.Println("Demo data already present, skipping seed")
		return a.logDemoTokens()
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check demo shop: %w", err)
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		users := repositories.NewGORMUserRepository(tx)
		shops := repositories.NewGORMShopRepository(tx)
		products := repositories.NewGORMProductRepository(tx)

		for _, u := range []models.User{
			{ID: demoSellerID, Name: "Lakshmi Devi", Phone: "9000000001", Role: models.RoleSeller},
			{ID: demoCustomerID, Name: "Priya Sharma", Phone: "9000000002", Role: models.RoleCustomer},
		} {
			if err := users.Create(ctx, &u); err != nil {
				return err
			}
		}

		shop := &models.Shop{OwnerID: demoSellerID, Name: "Lakshmi Textiles", ContactNumber: "9000000001", IsActive: true}
		if err := shops.Create(ctx, shop); err != nil {
			return err
		}

		for _, p := range []models.Product{
			{Name: "Handloom Cotton Saree", BasePrice: decimal.NewFromInt(1200), StockQuantity: 10, Colors: []string{"red", "green"}},
			{Name: "Kalamkari Dupatta", BasePrice: decimal.NewFromInt(450), StockQuantity: 25},
			{Name: "Kids Kurta Set", BasePrice: decimal.NewFromInt(200), StockQuantity: 40, Sizes: []string{"S", "M", "L"}},
		} {
			p.ShopID = shop.ID
			p.CommissionRate = decimal.RequireFromString("0.15")
			p.IsActive = true
			if err := products.Create(ctx, &p); err != nil {
				return err
			}
			log.Printf("Seeded product: %s (ID: %s)", p.Name, p.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return a.logDemoTokens()
}

func (a *App) logDemoTokens() error {
	for _, u := range []struct {
		id   string
		role models.Role
	}{
		{demoSellerID, models.RoleSeller},
		{demoCustomerID, models.RoleCustomer},
	} {
		token, err := a.Auth.IssueToken(u.id, u.role)
		if err != nil {
			return err
		}
		log.Printf("Demo %s token: %s", u.role, token)
	}
	return nil
}
