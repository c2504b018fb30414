package database

import (
	"log"

	"github.com/retailops/procurement/models"
	"gorm.io/gorm"
)

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("Starting GORM AutoMigrate...")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			return err
		}
	}

	// The unique index on purchase_orders.order_number is the only backstop
	// against the number-generation race; make sure it exists even on
	// databases migrated before the tag was added.
	if !db.Migrator().HasIndex(&models.PurchaseOrder{}, "OrderNumber") {
		if err := db.Migrator().CreateIndex(&models.PurchaseOrder{}, "OrderNumber"); err != nil {
			log.Printf("Warning: could not create order_number index: %v", err)
		}
	}

	log.Println("GORM AutoMigrate completed successfully")
	return nil
}
