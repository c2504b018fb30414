package handlers

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/retailops/procurement/models"
	"github.com/retailops/procurement/orders"
	"github.com/retailops/procurement/web/middleware"
)

var (
	orderService *orders.Service
	validate     = validator.New()
)

// SetOrderService injects the purchase-order service used by all handlers in
// this package.
func SetOrderService(s *orders.Service) {
	orderService = s
}

const dateLayout = "2006-01-02"

type orderItemRequest struct {
	ProductRef  string  `json:"product_ref"`
	ProductName string  `json:"product_name"`
	CategoryRef string  `json:"category_ref"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

func (r orderItemRequest) toInput() orders.ItemInput {
	return orders.ItemInput{
		ProductRef:  r.ProductRef,
		ProductName: r.ProductName,
		CategoryRef: r.CategoryRef,
		UnitPrice:   r.UnitPrice,
		Quantity:    r.Quantity,
	}
}

type createOrderRequest struct {
	VendorRef          string             `json:"vendor_ref" validate:"required"`
	PurchaseDate       *string            `json:"purchase_date"`
	ExpectedDelivery   string             `json:"expected_delivery" validate:"required"`
	PaymentTerms       string             `json:"payment_terms"`
	Priority           string             `json:"priority"`
	OrderItems         []orderItemRequest `json:"order_items" validate:"min=1"`
	TaxRate            *float64           `json:"tax_rate"`
	ShippingCost       float64            `json:"shipping_cost"`
	Discount           float64            `json:"discount"`
	Notes              *string            `json:"notes"`
	IsRecurring        bool               `json:"is_recurring"`
	RecurringFrequency *string            `json:"recurring_frequency"`
}

// PurchaseOrderCreate creates a new purchase order
func PurchaseOrderCreate(c *fiber.Ctx) error {
	ok := false
	defer func() { middleware.RecordOrderOperation("create", ok) }()

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	expected, err := time.Parse(dateLayout, req.ExpectedDelivery)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected_delivery must be formatted as YYYY-MM-DD")
	}

	input := orders.CreateInput{
		VendorRef:          req.VendorRef,
		ExpectedDelivery:   expected,
		PaymentTerms:       models.PaymentTerms(req.PaymentTerms),
		Priority:           models.OrderPriority(req.Priority),
		TaxRate:            req.TaxRate,
		ShippingCost:       req.ShippingCost,
		Discount:           req.Discount,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		ActorID:            middleware.ActorID(c),
	}
	if req.PurchaseDate != nil {
		purchase, err := time.Parse(dateLayout, *req.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "purchase_date must be formatted as YYYY-MM-DD")
		}
		input.PurchaseDate = &purchase
	}
	for _, item := range req.OrderItems {
		input.Items = append(input.Items, item.toInput())
	}

	order, err := orderService.Create(input)
	if err != nil {
		return err
	}

	ok = true
	return c.Status(fiber.StatusCreated).JSON(order)
}

type updateOrderRequest struct {
	VendorRef          *string             `json:"vendor_ref"`
	PurchaseDate       *string             `json:"purchase_date"`
	ExpectedDelivery   *string             `json:"expected_delivery"`
	PaymentTerms       *string             `json:"payment_terms"`
	Priority           *string             `json:"priority"`
	OrderItems         *[]orderItemRequest `json:"order_items"`
	TaxRate            *float64            `json:"tax_rate"`
	ShippingCost       *float64            `json:"shipping_cost"`
	Discount           *float64            `json:"discount"`
	Notes              *string             `json:"notes"`
	IsRecurring        *bool               `json:"is_recurring"`
	RecurringFrequency *string             `json:"recurring_frequency"`
}

// PurchaseOrderUpdate applies a partial update to an order
func PurchaseOrderUpdate(c *fiber.Ctx) error {
	ok := false
	defer func() { middleware.RecordOrderOperation("update", ok) }()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	patch := orders.UpdateInput{
		VendorRef:          req.VendorRef,
		TaxRate:            req.TaxRate,
		ShippingCost:       req.ShippingCost,
		Discount:           req.Discount,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
		ActorID:            middleware.ActorID(c),
	}
	if req.PurchaseDate != nil {
		purchase, err := time.Parse(dateLayout, *req.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "purchase_date must be formatted as YYYY-MM-DD")
		}
		patch.PurchaseDate = &purchase
	}
	if req.ExpectedDelivery != nil {
		expected, err := time.Parse(dateLayout, *req.ExpectedDelivery)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected_delivery must be formatted as YYYY-MM-DD")
		}
		patch.ExpectedDelivery = &expected
	}
	if req.PaymentTerms != nil {
		terms := models.PaymentTerms(*req.PaymentTerms)
		patch.PaymentTerms = &terms
	}
	if req.Priority != nil {
		priority := models.OrderPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.OrderItems != nil {
		items := make([]orders.ItemInput, len(*req.OrderItems))
		for i, item := range *req.OrderItems {
			items[i] = item.toInput()
		}
		patch.Items = &items
	}

	order, err := orderService.Update(id, patch)
	if err != nil {
		return err
	}

	ok = true
	return c.JSON(order)
}

type changeStatusRequest struct {
	Status             string  `json:"status" validate:"required"`
	CancellationReason *string `json:"cancellation_reason"`
}

// PurchaseOrderChangeStatus applies a guarded status transition
func PurchaseOrderChangeStatus(c *fiber.Ctx) error {
	ok := false
	defer func() { middleware.RecordOrderOperation("change_status", ok) }()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req changeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	order, err := orderService.ChangeStatus(id, models.OrderStatus(req.Status),
		req.CancellationReason, middleware.ActorID(c))
	if err != nil {
		return err
	}

	ok = true
	return c.JSON(order)
}

// PurchaseOrderDelete soft-deletes an order
func PurchaseOrderDelete(c *fiber.Ctx) error {
	ok := false
	defer func() { middleware.RecordOrderOperation("delete", ok) }()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := orderService.SoftDelete(id, middleware.ActorID(c)); err != nil {
		return err
	}

	ok = true
	return c.SendStatus(fiber.StatusNoContent)
}

// PurchaseOrderDuplicate clones an order into a fresh draft
func PurchaseOrderDuplicate(c *fiber.Ctx) error {
	ok := false
	defer func() { middleware.RecordOrderOperation("duplicate", ok) }()

	id, err := parseID(c)
	if err != nil {
		return err
	}
	order, err := orderService.Duplicate(id, middleware.ActorID(c))
	if err != nil {
		return err
	}

	ok = true
	return c.Status(fiber.StatusCreated).JSON(order)
}

// PurchaseOrderView fetches a single order
func PurchaseOrderView(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	includeDeleted := c.QueryBool("include_deleted")

	order, err := orderService.Get(id, includeDeleted)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// PurchaseOrderList lists orders with filtering, sorting and pagination
func PurchaseOrderList(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	opts := orders.ListOptions{
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("sort_dir", "desc") == "desc",
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	}

	page, err := orderService.List(filter, opts)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// PurchaseOrderStats serves the dashboard aggregation
func PurchaseOrderStats(c *fiber.Ctx) error {
	stats, err := orderService.Stats()
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// PurchaseOrderExport streams the CSV projection
func PurchaseOrderExport(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="`+orders.CSVFilename(time.Now())+`"`)
	return orderService.ExportCSV(c, filter)
}

func filterFromQuery(c *fiber.Ctx) (orders.ListFilter, error) {
	filter := orders.ListFilter{
		Status:         models.OrderStatus(c.Query("status")),
		VendorRef:      c.Query("vendor"),
		Priority:       models.OrderPriority(c.Query("priority")),
		Search:         c.Query("search"),
		DeliveryStatus: c.Query("delivery_status"),
	}
	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "date_from must be formatted as YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "date_to must be formatted as YYYY-MM-DD")
		}
		filter.DateTo = &t
	}
	return filter, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid order ID")
	}
	return uint(id), nil
}
