package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/retailops/procurement/database"
	"github.com/retailops/procurement/models"
)

// ProductList returns active products for order-item entry
func ProductList(c *fiber.Ctx) error {
	var products []models.Product
	query := database.DB.Preload("Category").Preload("Supplier").Where("is_active = ?", true)

	if supplier := c.Query("supplier"); supplier != "" {
		query = query.Where("supplier_id = ?", supplier)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category_id = ?", category)
	}

	if err := query.Order("product_name").Find(&products).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(products)
}

// CategoryList returns all product categories
func CategoryList(c *fiber.Ctx) error {
	var categories []models.ProductCategory
	if err := database.DB.Order("category_name").Find(&categories).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch categories"})
	}
	return c.JSON(categories)
}
