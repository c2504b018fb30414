package database

import (
	"log"

	"github.com/retailops/procurement/models"
	"gorm.io/gorm"
)

// SeedData populates suppliers, categories and products so the procurement
// API is usable right after migration. Seeding is skipped when suppliers
// already exist.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Supplier{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Seed data already present, skipping")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		supplierMap, err := seedSuppliers(tx)
		if err != nil {
			return err
		}
		categoryMap, err := seedProductCategories(tx)
		if err != nil {
			return err
		}
		if err := seedProducts(tx, supplierMap, categoryMap); err != nil {
			return err
		}
		return nil
	})
}

// seedSuppliers creates initial supplier data
func seedSuppliers(tx *gorm.DB) (map[string]uint, error) {
	suppliers := []models.Supplier{
		{
			SupplierCode:  "SUP001",
			SupplierName:  "Evergreen Wholesale Ltd",
			ContactPerson: strPtr("Dana Whitfield"),
			Phone:         strPtr("+1-555-0141"),
			Email:         strPtr("orders@evergreen-wholesale.example"),
		},
		{
			SupplierCode:  "SUP002",
			SupplierName:  "Harborline Distribution",
			ContactPerson: strPtr("Marco Reyes"),
			Phone:         strPtr("+1-555-0172"),
			Email:         strPtr("sales@harborline.example"),
		},
		{
			SupplierCode: "SUP003",
			SupplierName: "Northfield Packaging Co",
			Email:        strPtr("contact@northfield-pack.example"),
		},
	}

	if err := tx.Create(&suppliers).Error; err != nil {
		return nil, err
	}
	log.Printf("  ✓ Seeded %d suppliers", len(suppliers))

	supplierMap := make(map[string]uint)
	for _, s := range suppliers {
		supplierMap[s.SupplierCode] = s.SupplierID
	}
	return supplierMap, nil
}

// seedProductCategories creates product category data
func seedProductCategories(tx *gorm.DB) (map[string]uint, error) {
	categories := []models.ProductCategory{
		{CategoryName: "Beverages", Description: strPtr("Soft drinks, juices and water")},
		{CategoryName: "Dry Goods", Description: strPtr("Long shelf-life staples")},
		{CategoryName: "Household", Description: strPtr("Cleaning and household supplies")},
	}

	if err := tx.Create(&categories).Error; err != nil {
		return nil, err
	}
	log.Printf("  ✓ Seeded %d product categories", len(categories))

	categoryMap := make(map[string]uint)
	for _, c := range categories {
		categoryMap[c.CategoryName] = c.CategoryID
	}
	return categoryMap, nil
}

// seedProducts creates sample products tied to the seeded suppliers and
// categories
func seedProducts(tx *gorm.DB, suppliers, categories map[string]uint) error {
	products := []models.Product{
		{
			ProductCode:  "PRD001",
			ProductName:  "Sparkling Water 500ml",
			CategoryID:   categories["Beverages"],
			SupplierID:   suppliers["SUP001"],
			Unit:         "bottle",
			ImportPrice:  0.45,
			SellingPrice: 0.99,
		},
		{
			ProductCode:  "PRD002",
			ProductName:  "Orange Juice 1L",
			CategoryID:   categories["Beverages"],
			SupplierID:   suppliers["SUP001"],
			Unit:         "carton",
			ImportPrice:  1.20,
			SellingPrice: 2.49,
		},
		{
			ProductCode:  "PRD003",
			ProductName:  "Basmati Rice 5kg",
			CategoryID:   categories["Dry Goods"],
			SupplierID:   suppliers["SUP002"],
			Unit:         "bag",
			ImportPrice:  6.80,
			SellingPrice: 11.99,
		},
		{
			ProductCode:  "PRD004",
			ProductName:  "Dish Soap 750ml",
			CategoryID:   categories["Household"],
			SupplierID:   suppliers["SUP003"],
			Unit:         "bottle",
			ImportPrice:  0.95,
			SellingPrice: 1.99,
		},
		{
			ProductCode:  "PRD005",
			ProductName:  "Paper Towels 6-pack",
			CategoryID:   categories["Household"],
			SupplierID:   suppliers["SUP003"],
			Unit:         "pack",
			ImportPrice:  2.40,
			SellingPrice: 4.49,
		},
	}

	if err := tx.Create(&products).Error; err != nil {
		return err
	}
	log.Printf("  ✓ Seeded %d products", len(products))
	return nil
}

func strPtr(s string) *string {
	return &s
}
