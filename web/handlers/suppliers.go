package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/retailops/procurement/database"
	"github.com/retailops/procurement/models"
)

// SupplierList returns all suppliers for vendor selection
func SupplierList(c *fiber.Ctx) error {
	var suppliers []models.Supplier
	if err := database.DB.Order("supplier_name").Find(&suppliers).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch suppliers"})
	}
	return c.JSON(suppliers)
}

// SupplierView returns a single supplier
func SupplierView(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}

	var supplier models.Supplier
	if err := database.DB.First(&supplier, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Supplier not found"})
	}
	return c.JSON(supplier)
}

type createSupplierRequest struct {
	SupplierCode  string  `json:"supplier_code" validate:"required"`
	SupplierName  string  `json:"supplier_name" validate:"required"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	TaxCode       *string `json:"tax_code"`
}

// SupplierCreate registers a new supplier
func SupplierCreate(c *fiber.Ctx) error {
	var req createSupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	supplier := models.Supplier{
		SupplierCode:  req.SupplierCode,
		SupplierName:  req.SupplierName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		TaxCode:       req.TaxCode,
		IsActive:      true,
	}
	if err := database.DB.Create(&supplier).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create supplier"})
	}
	return c.Status(201).JSON(supplier)
}
