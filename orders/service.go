package orders

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/retailops/procurement/models"
	"gorm.io/gorm"
)

const defaultTaxRate = 18

// SupplierLookup is the external supplier capability consumed by the order
// core. Implementations return gorm.ErrRecordNotFound for unknown ids.
type SupplierLookup interface {
	FindByID(id uint) (*models.Supplier, error)
}

type gormSupplierLookup struct {
	db *gorm.DB
}

func (l gormSupplierLookup) FindByID(id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := l.db.First(&supplier, id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Service implements the purchase-order lifecycle: creation with invariant
// enforcement and number assignment, guarded status transitions, soft delete
// and the listing/reporting facade (query.go).
type Service struct {
	db        *gorm.DB
	suppliers SupplierLookup
	now       func() time.Time
}

// NewService creates a Service backed by db, resolving suppliers from the
// same database.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:        db,
		suppliers: gormSupplierLookup{db: db},
		now:       time.Now,
	}
}

// ItemInput is one order line as supplied by the caller. LineTotal is not
// accepted: it is always derived.
type ItemInput struct {
	ProductRef  string
	ProductName string
	CategoryRef string
	UnitPrice   float64
	Quantity    int
}

// CreateInput carries everything the caller may set on a new order.
type CreateInput struct {
	VendorRef          string
	PurchaseDate       *time.Time
	ExpectedDelivery   time.Time
	PaymentTerms       models.PaymentTerms
	Priority           models.OrderPriority
	Items              []ItemInput
	TaxRate            *float64
	ShippingCost       float64
	Discount           float64
	Notes              *string
	IsRecurring        bool
	RecurringFrequency *string
	ActorID            *string
}

// Create validates the input, assigns an order number, computes all derived
// totals and persists a new Draft order. The vendor reference is checked
// opportunistically: an unknown vendor is logged, not rejected.
func (s *Service) Create(input CreateInput) (*models.PurchaseOrder, error) {
	purchaseDate := s.now()
	if input.PurchaseDate != nil {
		purchaseDate = *input.PurchaseDate
	}

	items := make([]models.OrderItem, len(input.Items))
	for i, in := range input.Items {
		items[i] = models.OrderItem{
			ProductRef:  in.ProductRef,
			ProductName: in.ProductName,
			CategoryRef: in.CategoryRef,
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
		}
	}

	details := validateItems(items)
	if input.VendorRef == "" {
		details = append(details, "vendor_ref is required")
	}
	if input.ExpectedDelivery.IsZero() {
		details = append(details, "expected_delivery is required")
	} else if input.ExpectedDelivery.Before(purchaseDate) {
		details = append(details, "expected_delivery must not be before purchase_date")
	}
	terms := models.TermsNet30
	if input.PaymentTerms != "" {
		if !input.PaymentTerms.Valid() {
			details = append(details, "payment_terms is not a known value")
		}
		terms = input.PaymentTerms
	}
	priority := models.PriorityMedium
	if input.Priority != "" {
		if !input.Priority.Valid() {
			details = append(details, "priority is not a known value")
		}
		priority = input.Priority
	}
	if len(details) > 0 {
		return nil, validationFailed("purchase order validation failed", details...)
	}

	if err := s.checkVendorTolerant(input.VendorRef); err != nil {
		return nil, err
	}

	taxRate := float64(defaultTaxRate)
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}

	order := models.PurchaseOrder{
		VendorRef:          input.VendorRef,
		PurchaseDate:       purchaseDate,
		ExpectedDelivery:   input.ExpectedDelivery,
		PaymentTerms:       terms,
		Priority:           priority,
		Status:             models.OrderDraft,
		OrderItems:         items,
		TaxRate:            taxRate,
		ShippingCost:       input.ShippingCost,
		Discount:           input.Discount,
		Notes:              input.Notes,
		IsRecurring:        input.IsRecurring,
		RecurringFrequency: input.RecurringFrequency,
		CreatedBy:          input.ActorID,
	}
	RecomputeTotals(&order)

	if err := s.insertWithNumber(&order); err != nil {
		return nil, err
	}

	s.enrich(&order)
	return &order, nil
}

// insertWithNumber assigns the next order number and inserts the record. The
// generator races with concurrent creates, so a duplicate-key failure triggers
// exactly one regenerate-and-retry before surfacing a Conflict.
func (s *Service) insertWithNumber(order *models.PurchaseOrder) error {
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.nextOrderNumber(s.now())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		err = s.db.Create(order).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return internal("failed to persist purchase order", err)
		}
		if attempt == 1 {
			return conflict("order number "+number+" already taken, retry the request", err)
		}
		log.Printf("order number %s collided, regenerating", number)
	}
	return nil
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	VendorRef          *string
	PurchaseDate       *time.Time
	ExpectedDelivery   *time.Time
	PaymentTerms       *models.PaymentTerms
	Priority           *models.OrderPriority
	Items              *[]ItemInput
	TaxRate            *float64
	ShippingCost       *float64
	Discount           *float64
	Notes              *string
	IsRecurring        *bool
	RecurringFrequency *string
	ActorID            *string
}

// Update applies a field patch to an editable order and recomputes all
// derived totals. Delivered and Cancelled orders are closed for edits. A
// vendor change is validated strictly, unlike create.
func (s *Service) Update(id uint, patch UpdateInput) (*models.PurchaseOrder, error) {
	order, err := s.load(id, false)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderDelivered || order.Status == models.OrderCancelled {
		return nil, invalidState("cannot edit a %s order", order.Status)
	}

	if patch.VendorRef != nil && *patch.VendorRef != order.VendorRef {
		if err := s.checkVendorStrict(*patch.VendorRef); err != nil {
			return nil, err
		}
		order.VendorRef = *patch.VendorRef
	}
	if patch.PurchaseDate != nil {
		order.PurchaseDate = *patch.PurchaseDate
	}
	if patch.ExpectedDelivery != nil {
		order.ExpectedDelivery = *patch.ExpectedDelivery
	}
	if patch.PaymentTerms != nil {
		if !patch.PaymentTerms.Valid() {
			return nil, validationFailed("purchase order validation failed", "payment_terms is not a known value")
		}
		order.PaymentTerms = *patch.PaymentTerms
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, validationFailed("purchase order validation failed", "priority is not a known value")
		}
		order.Priority = *patch.Priority
	}
	if patch.TaxRate != nil {
		order.TaxRate = *patch.TaxRate
	}
	if patch.ShippingCost != nil {
		order.ShippingCost = *patch.ShippingCost
	}
	if patch.Discount != nil {
		order.Discount = *patch.Discount
	}
	if patch.Notes != nil {
		order.Notes = patch.Notes
	}
	if patch.IsRecurring != nil {
		order.IsRecurring = *patch.IsRecurring
	}
	if patch.RecurringFrequency != nil {
		order.RecurringFrequency = patch.RecurringFrequency
	}
	if order.ExpectedDelivery.Before(order.PurchaseDate) {
		return nil, validationFailed("purchase order validation failed",
			"expected_delivery must not be before purchase_date")
	}

	replaceItems := patch.Items != nil
	var newItems []models.OrderItem
	if replaceItems {
		newItems = make([]models.OrderItem, len(*patch.Items))
		for i, in := range *patch.Items {
			newItems[i] = models.OrderItem{
				OrderID:     order.OrderID,
				ProductRef:  in.ProductRef,
				ProductName: in.ProductName,
				CategoryRef: in.CategoryRef,
				UnitPrice:   in.UnitPrice,
				Quantity:    in.Quantity,
			}
		}
		if details := validateItems(newItems); len(details) > 0 {
			return nil, validationFailed("purchase order validation failed", details...)
		}
		order.OrderItems = newItems
	}

	order.UpdatedBy = patch.ActorID
	RecomputeTotals(order)

	// Persist the order row and its item set in one transaction.
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, internal("failed to start transaction", tx.Error)
	}
	if replaceItems {
		if err := tx.Where("order_id = ?", order.OrderID).Delete(&models.OrderItem{}).Error; err != nil {
			tx.Rollback()
			return nil, internal("failed to replace order items", err)
		}
	}
	savedItems := order.OrderItems
	order.OrderItems = nil
	if err := tx.Save(order).Error; err != nil {
		tx.Rollback()
		return nil, internal("failed to update purchase order", err)
	}
	if replaceItems {
		for i := range savedItems {
			savedItems[i].ItemID = 0
			savedItems[i].OrderID = order.OrderID
		}
		if err := tx.Create(&savedItems).Error; err != nil {
			tx.Rollback()
			return nil, internal("failed to save order items", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, internal("failed to commit update", err)
	}
	order.OrderItems = savedItems

	s.enrich(order)
	return order, nil
}

// SoftDelete hides an order from all default queries while keeping it for
// audit. Shipped and Delivered orders are immutable history and cannot be
// deleted.
func (s *Service) SoftDelete(id uint, actorID *string) error {
	order, err := s.load(id, false)
	if err != nil {
		return err
	}
	if order.Status == models.OrderShipped || order.Status == models.OrderDelivered {
		return invalidState("cannot delete a %s order", order.Status)
	}

	now := s.now()
	updates := map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
		"updated_by": actorID,
	}
	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return internal("failed to delete purchase order", err)
	}
	return nil
}

// ChangeStatus applies a guarded status transition. Cancellation requires a
// reason; cancellation and delivery timestamps are set here and nowhere else,
// exactly once each.
func (s *Service) ChangeStatus(id uint, newStatus models.OrderStatus, reason *string, actorID *string) (*models.PurchaseOrder, error) {
	if !newStatus.Valid() {
		return nil, validationFailed("status change rejected", "status is not a known value")
	}
	if newStatus == models.OrderCancelled && (reason == nil || *reason == "") {
		return nil, validationFailed("status change rejected", "cancellation_reason is required when cancelling")
	}

	order, err := s.load(id, false)
	if err != nil {
		return nil, err
	}
	if !IsTransitionAllowed(order.Status, newStatus) {
		return nil, invalidTransition(order.Status, newStatus)
	}

	now := s.now()
	setCancelled := newStatus == models.OrderCancelled && order.CancelledAt == nil
	setDelivered := newStatus == models.OrderDelivered && order.DeliveredAt == nil

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_by": actorID,
	}
	if setCancelled {
		updates["cancelled_at"] = now
		updates["cancellation_reason"] = reason
	}
	if setDelivered {
		updates["delivered_at"] = now
	}
	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, internal("failed to update order status", err)
	}

	order.Status = newStatus
	order.UpdatedBy = actorID
	if setCancelled {
		order.CancelledAt = &now
		order.CancellationReason = reason
	}
	if setDelivered {
		order.DeliveredAt = &now
	}

	s.enrich(order)
	return order, nil
}

// Get fetches one order with its items and read-time enrichment. Soft-deleted
// orders are only reachable when the caller explicitly asks for them.
func (s *Service) Get(id uint, includeDeleted bool) (*models.PurchaseOrder, error) {
	order, err := s.load(id, includeDeleted)
	if err != nil {
		return nil, err
	}
	s.enrich(order)
	return order, nil
}

// Duplicate clones an order's vendor, items and terms into a fresh Draft with
// a new number, today's purchase date, the source's lead time, and no
// delivery or cancellation history.
func (s *Service) Duplicate(id uint, actorID *string) (*models.PurchaseOrder, error) {
	source, err := s.load(id, false)
	if err != nil {
		return nil, err
	}

	now := s.now()
	leadTime := source.ExpectedDelivery.Sub(source.PurchaseDate)
	if leadTime < 0 {
		leadTime = 0
	}

	items := make([]models.OrderItem, len(source.OrderItems))
	for i, item := range source.OrderItems {
		items[i] = models.OrderItem{
			ProductRef:  item.ProductRef,
			ProductName: item.ProductName,
			CategoryRef: item.CategoryRef,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		}
	}

	clone := models.PurchaseOrder{
		VendorRef:          source.VendorRef,
		PurchaseDate:       now,
		ExpectedDelivery:   now.Add(leadTime),
		PaymentTerms:       source.PaymentTerms,
		Priority:           source.Priority,
		Status:             models.OrderDraft,
		OrderItems:         items,
		TaxRate:            source.TaxRate,
		ShippingCost:       source.ShippingCost,
		Discount:           source.Discount,
		Notes:              source.Notes,
		IsRecurring:        source.IsRecurring,
		RecurringFrequency: source.RecurringFrequency,
		CreatedBy:          actorID,
	}
	RecomputeTotals(&clone)

	if err := s.insertWithNumber(&clone); err != nil {
		return nil, err
	}

	s.enrich(&clone)
	return &clone, nil
}

// load fetches an order with its items, excluding soft-deleted records unless
// includeDeleted is set.
func (s *Service) load(id uint, includeDeleted bool) (*models.PurchaseOrder, error) {
	query := s.db.Preload("OrderItems")
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	var order models.PurchaseOrder
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("purchase order %d not found", id)
		}
		return nil, internal("failed to load purchase order", err)
	}
	return &order, nil
}

// checkVendorTolerant queries the supplier store when the reference looks
// like an entity id. An unknown vendor is logged and accepted: orders are
// routinely created against static vendor catalogs that have no supplier row.
func (s *Service) checkVendorTolerant(ref string) error {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return nil
	}
	if _, err := s.suppliers.FindByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("vendor %s has no supplier record, creating order anyway", ref)
			return nil
		}
		return internal("supplier lookup failed", err)
	}
	return nil
}

// checkVendorStrict rejects any vendor reference that does not resolve to a
// persisted supplier. Update goes through here; create does not. The
// asymmetry is registered behavior.
func (s *Service) checkVendorStrict(ref string) error {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return notFound("supplier %q not found", ref)
	}
	if _, err := s.suppliers.FindByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("supplier %q not found", ref)
		}
		return internal("supplier lookup failed", err)
	}
	return nil
}

// enrich attaches read-time projections: the resolved supplier, if the vendor
// reference points at one, and the derived delivery status.
func (s *Service) enrich(orders ...*models.PurchaseOrder) {
	now := s.now()
	for _, order := range orders {
		order.DeliveryStatus = DeliveryStatusOf(order, now)
		if id, err := strconv.ParseUint(order.VendorRef, 10, 32); err == nil {
			if supplier, err := s.suppliers.FindByID(uint(id)); err == nil {
				order.Supplier = supplier
			}
		}
	}
}
