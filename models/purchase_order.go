package models

import "time"

// OrderStatus type for purchase order lifecycle status
type OrderStatus string

const (
	OrderDraft     OrderStatus = "Draft"
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
	OrderReturned  OrderStatus = "Returned"
)

// AllOrderStatuses lists every lifecycle status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderDraft, OrderPending, OrderConfirmed, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned,
	}
}

// Valid reports whether s is one of the seven lifecycle statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderPending, OrderConfirmed, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

// PaymentTerms type for supplier payment terms
type PaymentTerms string

const (
	TermsNet30          PaymentTerms = "Net30"
	TermsNet15          PaymentTerms = "Net15"
	TermsNet7           PaymentTerms = "Net7"
	TermsImmediate      PaymentTerms = "Immediate"
	TermsCOD            PaymentTerms = "COD"
	TermsAdvancePayment PaymentTerms = "AdvancePayment"
)

// Valid reports whether t is a known payment term.
func (t PaymentTerms) Valid() bool {
	switch t {
	case TermsNet30, TermsNet15, TermsNet7, TermsImmediate, TermsCOD, TermsAdvancePayment:
		return true
	}
	return false
}

// OrderPriority type for purchase order priority
type OrderPriority string

const (
	PriorityLow    OrderPriority = "Low"
	PriorityMedium OrderPriority = "Medium"
	PriorityHigh   OrderPriority = "High"
	PriorityUrgent OrderPriority = "Urgent"
)

// Valid reports whether p is a known priority.
func (p OrderPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PurchaseOrder represents purchase_orders table. It is the root aggregate of
// the procurement core: it owns its OrderItems, and every monetary field on it
// is derived (recomputed before each save, never trusted from input).
type PurchaseOrder struct {
	OrderID     uint   `gorm:"primaryKey;column:order_id" json:"order_id"`
	OrderNumber string `gorm:"type:varchar(30);not null;uniqueIndex" json:"order_number"`

	// VendorRef may reference a persisted supplier or a static/seed catalog
	// entry that has no supplier row. Both are accepted at creation time.
	VendorRef string `gorm:"type:varchar(64);not null" json:"vendor_ref"`

	PurchaseDate     time.Time `gorm:"type:date;not null" json:"purchase_date"`
	ExpectedDelivery time.Time `gorm:"type:date;not null" json:"expected_delivery"`

	PaymentTerms PaymentTerms  `gorm:"type:varchar(20);not null;default:'Net30'" json:"payment_terms"`
	Priority     OrderPriority `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Status       OrderStatus   `gorm:"type:varchar(12);not null;default:'Draft'" json:"status"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`

	Subtotal     float64 `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	TaxRate      float64 `gorm:"type:decimal(5,2);not null;default:18" json:"tax_rate"`
	TaxAmount    float64 `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	ShippingCost float64 `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_cost"`
	Discount     float64 `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	TotalAmount  float64 `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`

	Notes *string `gorm:"type:text" json:"notes,omitempty"`

	IsRecurring        bool    `gorm:"not null;default:false" json:"is_recurring"`
	RecurringFrequency *string `gorm:"type:varchar(20)" json:"recurring_frequency,omitempty"`

	CreatedBy *string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy *string `gorm:"type:varchar(64)" json:"updated_by,omitempty"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Read-time enrichment, never persisted
	Supplier       *Supplier `gorm:"-" json:"supplier,omitempty"`
	DeliveryStatus string    `gorm:"-" json:"delivery_status,omitempty"`
}

// TableName specifies the table name for PurchaseOrder
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// OrderItem represents purchase_order_items table. Items only exist inside a
// purchase order; ProductName is a snapshot taken at order time and does not
// track later renames of the product.
type OrderItem struct {
	ItemID      uint    `gorm:"primaryKey;column:item_id" json:"item_id"`
	OrderID     uint    `gorm:"not null;index" json:"-"`
	ProductRef  string  `gorm:"type:varchar(64);not null" json:"product_ref"`
	ProductName string  `gorm:"type:varchar(200);not null" json:"product_name"`
	CategoryRef string  `gorm:"type:varchar(64);not null" json:"category_ref"`
	UnitPrice   float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	LineTotal   float64 `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "purchase_order_items"
}
