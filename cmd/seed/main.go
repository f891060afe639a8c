package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/config"
	"github.com/shinyyama/cakemarket-backend/internal/db"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedBakery struct {
	Name       string
	Email      string
	BakeryName string
	District   string
	Phone      string
	Cakes      []seedCake
}

type seedCake struct {
	Name     string
	Price    string
	Category model.Category
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "cakemarket123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var listings int
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := upsertAccount(tx, &model.Account{
			Name:         "Admin",
			Email:        "admin@cakemarket.local",
			PasswordHash: hash,
			Role:         model.RoleAdmin,
			Provider:     model.ProviderEmail,
			Verified:     true,
			Approved:     true,
		}); err != nil {
			return err
		}
		if _, err := upsertAccount(tx, &model.Account{
			Name:         "Demo Buyer",
			Email:        "buyer@cakemarket.local",
			PasswordHash: hash,
			Role:         model.RoleBuyer,
			Provider:     model.ProviderEmail,
			Verified:     true,
			Approved:     true,
			ContactPhone: "0771000000",
		}); err != nil {
			return err
		}

		for _, b := range buildSeedBakeries() {
			seller, err := upsertAccount(tx, &model.Account{
				Name:         b.Name,
				Email:        b.Email,
				PasswordHash: hash,
				Role:         model.RoleSeller,
				Provider:     model.ProviderEmail,
				Verified:     true,
				Approved:     true,
				BakeryName:   b.BakeryName,
				District:     b.District,
				ContactPhone: b.Phone,
			})
			if err != nil {
				return err
			}
			if err := tx.Where("seller_id = ?", seller.ID).Delete(&model.Listing{}).Error; err != nil {
				return fmt.Errorf("clear listings for %s: %w", b.Email, err)
			}
			for i, c := range b.Cakes {
				l := &model.Listing{
					SellerID:    seller.ID,
					Name:        c.Name,
					Description: fmt.Sprintf("%s from %s, baked fresh to order in %s.", c.Name, b.BakeryName, b.District),
					Price:       decimal.RequireFromString(c.Price),
					District:    b.District,
					Category:    c.Category,
					ImageURL:    picsumURL(b.BakeryName, i+1),
					Available:   true,
				}
				if err := tx.Create(l).Error; err != nil {
					return fmt.Errorf("insert listing %q: %w", c.Name, err)
				}
				listings++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d listings (password for every seeded account: %s)", listings, password)
	return nil
}

// upsertAccount returns the existing account for a.Email or creates a.
func upsertAccount(tx *gorm.DB, a *model.Account) (*model.Account, error) {
	var existing model.Account
	err := tx.Where("email = ?", a.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find account %s: %w", a.Email, err)
	}
	if err := tx.Create(a).Error; err != nil {
		return nil, fmt.Errorf("create account %s: %w", a.Email, err)
	}
	return a, nil
}

func buildSeedBakeries() []seedBakery {
	return []seedBakery{
		{
			Name: "Nimali Perera", Email: "sweetcrumbs@cakemarket.local", BakeryName: "Sweet Crumbs",
			District: "Colombo", Phone: "0771234567",
			Cakes: []seedCake{
				{"Red Velvet Celebration", "4500.00", model.CategoryBirthday},
				{"Three Tier Ivory Rose", "38000.00", model.CategoryWedding},
				{"Salted Caramel Cupcakes (6)", "2400.00", model.CategoryCupcakes},
				{"Pistachio Macaron Box", "3200.00", model.CategoryMacarons},
			},
		},
		{
			Name: "Ruwan Silva", Email: "greenoven@cakemarket.local", BakeryName: "Green Oven",
			District: "Kandy", Phone: "0719876543",
			Cakes: []seedCake{
				{"Vegan Chocolate Fudge", "5200.00", model.CategoryVegan},
				{"Almond Orange Loaf", "3900.00", model.CategoryGlutenFree},
				{"Build Your Own Cake", "6000.00", model.CategoryCustomize},
			},
		},
		{
			Name: "Fathima Rizvi", Email: "galleicing@cakemarket.local", BakeryName: "Galle Icing Co.",
			District: "Galle", Phone: "0765554433",
			Cakes: []seedCake{
				{"Ribbon Cake", "2800.00", model.CategoryBirthday},
				{"Coconut Lime Cupcakes (12)", "4200.00", model.CategoryCupcakes},
				{"Semi Naked Berry Cake", "29000.00", model.CategoryWedding},
			},
		},
	}
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Listing{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count listings: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(bakery string, k int) string {
	slug := strings.ToLower(strings.NewReplacer(" ", "-", ".", "").Replace(bakery))
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", slug, k)
}
