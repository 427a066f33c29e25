package testutil

import (
	"testing"

	"factory-backend/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func SeedLine(tb testing.TB, db *gorm.DB, name, volume string) *models.Line {
	tb.Helper()
	l := &models.Line{Name: name, Volume: D(volume), Number: 1}
	if err := db.Create(l).Error; err != nil {
		tb.Fatalf("seed line: %v", err)
	}
	return l
}

func SeedProduct(tb testing.TB, db *gorm.DB, line *models.Line, name string) *models.Product {
	tb.Helper()
	p := &models.Product{Name: name, GTIN: "4600000000000", Volume: line.Volume, LineID: line.ID}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedMaterial creates a material and, when stock is not empty, its stock row.
func SeedMaterial(tb testing.TB, db *gorm.DB, name string, unit models.MaterialUnit, stock string) *models.Material {
	tb.Helper()
	m := &models.Material{Name: name, Unit: unit}
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	if stock != "" {
		s := &models.MaterialStock{MaterialID: m.ID, Quantity: D(stock)}
		if err := db.Create(s).Error; err != nil {
			tb.Fatalf("seed material stock: %v", err)
		}
	}
	return m
}

func SeedBOM(tb testing.TB, db *gorm.DB, product *models.Product, material *models.Material, perUnit string) *models.ProductMaterial {
	tb.Helper()
	pm := &models.ProductMaterial{ProductID: product.ID, MaterialID: material.ID, Quantity: D(perUnit)}
	if err := db.Create(pm).Error; err != nil {
		tb.Fatalf("seed bom line: %v", err)
	}
	return pm
}

func SeedCounterparty(tb testing.TB, db *gorm.DB, name string) *models.Counterparty {
	tb.Helper()
	cp := &models.Counterparty{Name: name, Address: "1 Harbour Rd", ContactNumber: "+10000000000"}
	if err := db.Create(cp).Error; err != nil {
		tb.Fatalf("seed counterparty: %v", err)
	}
	return cp
}

func SeedUser(tb testing.TB, db *gorm.DB, email, password string, role models.UserRole) *models.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u := &models.User{Name: string(role) + " user", Email: email, PasswordHash: string(hash), Role: role}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func StockOf(tb testing.TB, db *gorm.DB, materialID uint) decimal.Decimal {
	tb.Helper()
	var s models.MaterialStock
	if err := db.Where("material_id = ?", materialID).First(&s).Error; err != nil {
		tb.Fatalf("load stock of material %d: %v", materialID, err)
	}
	return s.Quantity
}
