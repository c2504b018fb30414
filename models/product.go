package models

import "time"

// Product represents products table. Products feed order-item entry; the
// order keeps its own name snapshot, so renaming a product never rewrites
// history.
type Product struct {
	ProductID    uint      `gorm:"primaryKey;column:product_id" json:"product_id"`
	ProductCode  string    `gorm:"type:varchar(50);not null;unique" json:"product_code"`
	ProductName  string    `gorm:"type:varchar(200);not null" json:"product_name"`
	CategoryID   uint      `gorm:"not null" json:"category_id"`
	SupplierID   uint      `gorm:"not null" json:"supplier_id"`
	Unit         string    `gorm:"type:varchar(20);not null" json:"unit"`
	ImportPrice  float64   `gorm:"type:decimal(12,2);not null;check:import_price > 0" json:"import_price"`
	SellingPrice float64   `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Category ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Supplier Supplier        `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}
