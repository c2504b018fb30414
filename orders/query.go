package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/retailops/procurement/models"
	"gorm.io/gorm"
)

// Derived delivery status values, computed per record at read time and never
// stored.
const (
	DeliveryDelivered = "Delivered"
	DeliveryCancelled = "Cancelled"
	DeliveryOverdue   = "Overdue"
	DeliveryDueSoon   = "DueSoon"
	DeliveryOnTime    = "OnTime"
)

const dueSoonWindow = 72 * time.Hour

// DeliveryStatusOf derives the delivery status of an order at the given
// moment: terminal statuses win, otherwise the expected delivery date decides
// between Overdue, DueSoon (three days or less remaining) and OnTime.
func DeliveryStatusOf(o *models.PurchaseOrder, now time.Time) string {
	switch o.Status {
	case models.OrderDelivered:
		return DeliveryDelivered
	case models.OrderCancelled:
		return DeliveryCancelled
	}
	if now.After(o.ExpectedDelivery) {
		return DeliveryOverdue
	}
	if o.ExpectedDelivery.Sub(now) <= dueSoonWindow {
		return DeliveryDueSoon
	}
	return DeliveryOnTime
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// sortColumns is the allowlist of sortable scalar fields.
var sortColumns = map[string]string{
	"order_number":      "order_number",
	"vendor_ref":        "vendor_ref",
	"purchase_date":     "purchase_date",
	"expected_delivery": "expected_delivery",
	"payment_terms":     "payment_terms",
	"priority":          "priority",
	"status":            "status",
	"subtotal":          "subtotal",
	"total_amount":      "total_amount",
	"created_at":        "created_at",
	"updated_at":        "updated_at",
}

// ListFilter narrows the listing. Zero values mean "no constraint".
type ListFilter struct {
	Status         models.OrderStatus
	VendorRef      string
	Priority       models.OrderPriority
	DateFrom       *time.Time
	DateTo         *time.Time
	Search         string
	DeliveryStatus string
}

// ListOptions controls sorting and pagination.
type ListOptions struct {
	SortBy   string
	SortDesc bool
	Page     int
	Limit    int
}

// Page is one page of listing results plus paging metadata.
type Page struct {
	Orders     []models.PurchaseOrder `json:"orders"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// List returns a filtered, sorted, paginated page of orders. Soft-deleted
// orders never appear. Each record carries its derived delivery status and,
// where resolvable, the supplier.
func (s *Service) List(filter ListFilter, opts ListOptions) (*Page, error) {
	now := s.now()

	var total int64
	err := s.applyFilter(s.db.Model(&models.PurchaseOrder{}), filter, now).
		Count(&total).Error
	if err != nil {
		return nil, internal("failed to count purchase orders", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "created_at"
		opts.SortDesc = true
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	var orders []models.PurchaseOrder
	err = s.applyFilter(s.db.Model(&models.PurchaseOrder{}), filter, now).
		Preload("OrderItems").
		Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, internal("failed to list purchase orders", err)
	}

	s.enrichBatch(orders, now)

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &Page{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// applyFilter translates a ListFilter into SQL conditions, always excluding
// soft-deleted rows. The derived delivery-status filter is expressed over
// status and expected_delivery so pagination and counts stay consistent.
func (s *Service) applyFilter(query *gorm.DB, filter ListFilter, now time.Time) *gorm.DB {
	query = query.Where("is_deleted = ?", false)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VendorRef != "" {
		query = query.Where("vendor_ref = ?", filter.VendorRef)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.DateFrom != nil {
		query = query.Where("purchase_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("purchase_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
	}

	switch filter.DeliveryStatus {
	case DeliveryDelivered:
		query = query.Where("status = ?", models.OrderDelivered)
	case DeliveryCancelled:
		query = query.Where("status = ?", models.OrderCancelled)
	case DeliveryOverdue:
		query = query.Where("status NOT IN ?", []models.OrderStatus{models.OrderDelivered, models.OrderCancelled}).
			Where("expected_delivery < ?", now)
	case DeliveryDueSoon:
		query = query.Where("status NOT IN ?", []models.OrderStatus{models.OrderDelivered, models.OrderCancelled}).
			Where("expected_delivery >= ?", now).
			Where("expected_delivery <= ?", now.Add(dueSoonWindow))
	case DeliveryOnTime:
		query = query.Where("status NOT IN ?", []models.OrderStatus{models.OrderDelivered, models.OrderCancelled}).
			Where("expected_delivery > ?", now.Add(dueSoonWindow))
	}

	return query
}

// enrichBatch resolves suppliers for a slice of orders with a single query
// and stamps each record's delivery status.
func (s *Service) enrichBatch(orders []models.PurchaseOrder, now time.Time) {
	ids := make([]uint, 0, len(orders))
	seen := make(map[uint]bool)
	for i := range orders {
		orders[i].DeliveryStatus = DeliveryStatusOf(&orders[i], now)
		if id, err := strconv.ParseUint(orders[i].VendorRef, 10, 32); err == nil && !seen[uint(id)] {
			seen[uint(id)] = true
			ids = append(ids, uint(id))
		}
	}
	if len(ids) == 0 {
		return
	}

	var suppliers []models.Supplier
	if err := s.db.Where("supplier_id IN ?", ids).Find(&suppliers).Error; err != nil {
		return
	}
	byID := make(map[uint]*models.Supplier, len(suppliers))
	for i := range suppliers {
		byID[suppliers[i].SupplierID] = &suppliers[i]
	}
	for i := range orders {
		if id, err := strconv.ParseUint(orders[i].VendorRef, 10, 32); err == nil {
			orders[i].Supplier = byID[uint(id)]
		}
	}
}

// StatusCount is one row of the per-status aggregation.
type StatusCount struct {
	Status      models.OrderStatus `json:"status"`
	Count       int64              `json:"count"`
	TotalAmount float64            `json:"total_amount"`
}

// OrderSummary is the projection used for the recent-orders panel.
type OrderSummary struct {
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	VendorRef   string             `json:"vendor_ref"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount float64            `json:"total_amount"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Stats is the reporting aggregate for the dashboard.
type Stats struct {
	TotalOrders  int64          `json:"total_orders"`
	ByStatus     []StatusCount  `json:"by_status"`
	OverdueCount int64          `json:"overdue_count"`
	Recent       []OrderSummary `json:"recent"`
}

// Stats aggregates order counts and totals by status, counts overdue orders
// and returns the five most recent orders as summaries.
func (s *Service) Stats() (*Stats, error) {
	base := func() *gorm.DB {
		return s.db.Model(&models.PurchaseOrder{}).Where("is_deleted = ?", false)
	}

	var stats Stats
	if err := base().Count(&stats.TotalOrders).Error; err != nil {
		return nil, internal("failed to count orders", err)
	}

	err := base().
		Select("status, COUNT(*) AS count, SUM(total_amount) AS total_amount").
		Group("status").
		Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, internal("failed to aggregate orders by status", err)
	}

	err = base().
		Where("status NOT IN ?", []models.OrderStatus{models.OrderDelivered, models.OrderCancelled}).
		Where("expected_delivery < ?", s.now()).
		Count(&stats.OverdueCount).Error
	if err != nil {
		return nil, internal("failed to count overdue orders", err)
	}

	err = base().
		Select("order_id, order_number, vendor_ref, status, total_amount, created_at").
		Order("created_at DESC").
		Limit(5).
		Scan(&stats.Recent).Error
	if err != nil {
		return nil, internal("failed to load recent orders", err)
	}

	return &stats, nil
}
