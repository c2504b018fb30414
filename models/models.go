package models

// AllModels returns all model structs for auto-migration
// IMPORTANT: Order matters! Parent tables must be created before child tables
func AllModels() []interface{} {
	return []interface{}{
		// 1. Independent tables (no foreign keys)
		&ProductCategory{},
		&Supplier{},

		// 2. Catalog tables
		&Product{}, // depends on: ProductCategory, Supplier

		// 3. Procurement core
		&PurchaseOrder{},
		&OrderItem{}, // depends on: PurchaseOrder
	}
}
