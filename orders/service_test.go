package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/retailops/procurement/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var marchNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Supplier{}, &models.PurchaseOrder{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	svc := NewService(db)
	svc.now = func() time.Time { return marchNow }
	return svc
}

func validInput() CreateInput {
	return CreateInput{
		VendorRef:        "static-vendor-7",
		ExpectedDelivery: marchNow.Add(7 * 24 * time.Hour),
		Items: []ItemInput{
			{ProductRef: "p1", ProductName: "Sparkling Water 500ml", CategoryRef: "c1", UnitPrice: 100, Quantity: 2},
		},
		ShippingCost: 50,
		Discount:     10,
	}
}

func mustCreate(t *testing.T, svc *Service, input CreateInput) *models.PurchaseOrder {
	t.Helper()
	order, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateComputesDerivedTotalsAndNumber(t *testing.T) {
	svc := newTestService(t)

	order := mustCreate(t, svc, validInput())

	if order.OrderNumber != "PO-202403-001" {
		t.Errorf("order number = %s, want PO-202403-001", order.OrderNumber)
	}
	if order.Status != models.OrderDraft {
		t.Errorf("status = %s, want Draft", order.Status)
	}
	if order.Subtotal != 200 {
		t.Errorf("subtotal = %v, want 200", order.Subtotal)
	}
	if order.TaxRate != 18 {
		t.Errorf("tax rate = %v, want default 18", order.TaxRate)
	}
	if order.TaxAmount != 36 {
		t.Errorf("tax amount = %v, want 36", order.TaxAmount)
	}
	if order.TotalAmount != 276 {
		t.Errorf("total amount = %v, want 276", order.TotalAmount)
	}
	if order.PaymentTerms != models.TermsNet30 {
		t.Errorf("payment terms = %s, want default Net30", order.PaymentTerms)
	}
	if order.Priority != models.PriorityMedium {
		t.Errorf("priority = %s, want default Medium", order.Priority)
	}
	if order.DeliveryStatus != DeliveryOnTime {
		t.Errorf("delivery status = %s, want OnTime", order.DeliveryStatus)
	}
}

func TestOrderNumbersSequentialWithMonthlyReset(t *testing.T) {
	svc := newTestService(t)

	first := mustCreate(t, svc, validInput())
	second := mustCreate(t, svc, validInput())
	if first.OrderNumber != "PO-202403-001" || second.OrderNumber != "PO-202403-002" {
		t.Errorf("got %s then %s, want PO-202403-001 then PO-202403-002",
			first.OrderNumber, second.OrderNumber)
	}

	aprilNow := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return aprilNow }
	input := validInput()
	input.ExpectedDelivery = aprilNow.Add(7 * 24 * time.Hour)

	third := mustCreate(t, svc, input)
	if third.OrderNumber != "PO-202404-001" {
		t.Errorf("order number = %s, want PO-202404-001 (sequence resets monthly)", third.OrderNumber)
	}
}

func TestOrderNumberNotReusedAfterSoftDelete(t *testing.T) {
	svc := newTestService(t)

	first := mustCreate(t, svc, validInput())
	if err := svc.SoftDelete(first.OrderID, nil); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	second := mustCreate(t, svc, validInput())
	if second.OrderNumber != "PO-202403-002" {
		t.Errorf("order number = %s, want PO-202403-002 (deleted orders keep their number)",
			second.OrderNumber)
	}
}

func TestDuplicateOrderNumberIsDetectedAsConflict(t *testing.T) {
	svc := newTestService(t)

	first := mustCreate(t, svc, validInput())
	dup := models.PurchaseOrder{
		OrderNumber:      first.OrderNumber,
		VendorRef:        "x",
		PurchaseDate:     marchNow,
		ExpectedDelivery: marchNow,
		PaymentTerms:     models.TermsNet30,
		Priority:         models.PriorityMedium,
		Status:           models.OrderDraft,
	}
	err := svc.db.Create(&dup).Error
	if err == nil {
		t.Fatal("expected unique index to reject duplicate order number")
	}
	if !isDuplicateKey(err) {
		t.Errorf("duplicate insert not classified as duplicate key: %v", err)
	}
}

func TestCreateValidationEnumeratesItemFaults(t *testing.T) {
	svc := newTestService(t)

	input := validInput()
	input.Items = []ItemInput{
		{ProductRef: "p1", ProductName: "A", CategoryRef: "c1", UnitPrice: 0, Quantity: 1},
		{ProductRef: "p2", ProductName: "B", CategoryRef: "c2", UnitPrice: 5, Quantity: 0},
	}

	_, err := svc.Create(input)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if KindOf(err) != KindValidationFailed {
		t.Fatalf("error kind = %s, want ValidationFailed", KindOf(err))
	}
	var oe *Error
	if !errors.As(err, &oe) {
		t.Fatal("expected *orders.Error")
	}
	if len(oe.Details) != 2 {
		t.Errorf("got %d details, want 2: %v", len(oe.Details), oe.Details)
	}
}

func TestCreateAcceptsMinimalItemValues(t *testing.T) {
	svc := newTestService(t)

	input := validInput()
	input.Items = []ItemInput{
		{ProductRef: "p1", ProductName: "Penny Widget", CategoryRef: "c1", UnitPrice: 0.01, Quantity: 1},
	}
	order := mustCreate(t, svc, input)
	if order.Subtotal != 0.01 {
		t.Errorf("subtotal = %v, want 0.01", order.Subtotal)
	}
}

func TestCreateDeliveryDateBoundary(t *testing.T) {
	svc := newTestService(t)

	input := validInput()
	input.ExpectedDelivery = marchNow.Add(-24 * time.Hour)
	if _, err := svc.Create(input); KindOf(err) != KindValidationFailed {
		t.Errorf("expected ValidationFailed for delivery before purchase date, got %v", err)
	}

	input = validInput()
	input.ExpectedDelivery = marchNow
	if _, err := svc.Create(input); err != nil {
		t.Errorf("delivery equal to purchase date should be accepted: %v", err)
	}
}

func TestCreateToleratesUnknownVendor(t *testing.T) {
	svc := newTestService(t)

	// Numeric ref with no supplier row: logged, not rejected.
	input := validInput()
	input.VendorRef = "9999"
	if _, err := svc.Create(input); err != nil {
		t.Errorf("unknown numeric vendor should be tolerated at create: %v", err)
	}

	// Non-numeric static ref: never looked up.
	input = validInput()
	input.VendorRef = "static-catalog-vendor"
	if _, err := svc.Create(input); err != nil {
		t.Errorf("static vendor should be tolerated at create: %v", err)
	}
}

func TestUpdateVendorIsStrict(t *testing.T) {
	svc := newTestService(t)

	supplier := models.Supplier{SupplierCode: "SUP001", SupplierName: "Evergreen Wholesale"}
	if err := svc.db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	order := mustCreate(t, svc, validInput())

	unknown := "424242"
	_, err := svc.Update(order.OrderID, UpdateInput{VendorRef: &unknown})
	if KindOf(err) != KindNotFound {
		t.Errorf("unknown vendor on update should be NotFound, got %v", err)
	}

	known := "1"
	updated, err := svc.Update(order.OrderID, UpdateInput{VendorRef: &known})
	if err != nil {
		t.Fatalf("update with persisted vendor: %v", err)
	}
	if updated.Supplier == nil || updated.Supplier.SupplierName != "Evergreen Wholesale" {
		t.Errorf("expected supplier enrichment after vendor update")
	}
}

func TestUpdateRecomputesTotalsAndReplacesItems(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	items := []ItemInput{
		{ProductRef: "p9", ProductName: "Rice 5kg", CategoryRef: "c3", UnitPrice: 10, Quantity: 3},
		{ProductRef: "p10", ProductName: "Dish Soap", CategoryRef: "c4", UnitPrice: 2, Quantity: 5},
	}
	shipping := 0.0
	discount := 0.0
	updated, err := svc.Update(order.OrderID, UpdateInput{
		Items:        &items,
		ShippingCost: &shipping,
		Discount:     &discount,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(updated.OrderItems) != 2 {
		t.Fatalf("got %d items, want 2", len(updated.OrderItems))
	}
	if updated.Subtotal != 40 {
		t.Errorf("subtotal = %v, want 40", updated.Subtotal)
	}
	if updated.TaxAmount != 7.2 {
		t.Errorf("tax amount = %v, want 7.2", updated.TaxAmount)
	}
	if updated.TotalAmount != 47.2 {
		t.Errorf("total amount = %v, want 47.2", updated.TotalAmount)
	}

	// The old item set is gone, not orphaned.
	var count int64
	svc.db.Model(&models.OrderItem{}).Where("order_id = ?", order.OrderID).Count(&count)
	if count != 2 {
		t.Errorf("item rows = %d, want 2", count)
	}
}

func TestDeliveredOrderRejectsEditsButAllowsCancellation(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	if _, err := svc.ChangeStatus(order.OrderID, models.OrderDelivered, nil, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	notes := "late edit"
	_, err := svc.Update(order.OrderID, UpdateInput{Notes: &notes})
	if KindOf(err) != KindInvalidState {
		t.Errorf("editing a delivered order should be InvalidState, got %v", err)
	}

	// Delivered -> Cancelled is not blacklisted. Registered asymmetry.
	reason := "vendor recall"
	cancelled, err := svc.ChangeStatus(order.OrderID, models.OrderCancelled, &reason, nil)
	if err != nil {
		t.Fatalf("cancelling a delivered order should be allowed: %v", err)
	}
	if cancelled.CancelledAt == nil || cancelled.CancellationReason == nil {
		t.Error("cancellation timestamp and reason should be set")
	}
}

func TestCancelRequiresReason(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	_, err := svc.ChangeStatus(order.OrderID, models.OrderCancelled, nil, nil)
	if KindOf(err) != KindValidationFailed {
		t.Errorf("cancel without reason should be ValidationFailed, got %v", err)
	}

	reason := "ordered in error"
	cancelled, err := svc.ChangeStatus(order.OrderID, models.OrderCancelled, &reason, nil)
	if err != nil {
		t.Fatalf("cancel with reason: %v", err)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at should be set")
	}
}

func TestStatusTimestampsAreSetOnce(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	delivered, err := svc.ChangeStatus(order.OrderID, models.OrderDelivered, nil, nil)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	firstStamp := *delivered.DeliveredAt

	// Advance the clock and repeat the self-transition.
	svc.now = func() time.Time { return marchNow.Add(48 * time.Hour) }
	again, err := svc.ChangeStatus(order.OrderID, models.OrderDelivered, nil, nil)
	if err != nil {
		t.Fatalf("repeat deliver: %v", err)
	}
	if !again.DeliveredAt.Equal(firstStamp) {
		t.Errorf("delivered_at advanced on repeat transition: %v -> %v", firstStamp, again.DeliveredAt)
	}
}

func TestForbiddenTransitionIsRejected(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	reason := "dup"
	if _, err := svc.ChangeStatus(order.OrderID, models.OrderCancelled, &reason, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := svc.ChangeStatus(order.OrderID, models.OrderPending, nil, nil)
	if KindOf(err) != KindInvalidTransition {
		t.Errorf("Cancelled -> Pending should be InvalidTransition, got %v", err)
	}
}

func TestChangeStatusRejectsUnknownValue(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	_, err := svc.ChangeStatus(order.OrderID, models.OrderStatus("Teleported"), nil, nil)
	if KindOf(err) != KindValidationFailed {
		t.Errorf("unknown status should be ValidationFailed, got %v", err)
	}
}

func TestSoftDeleteHidesOrderFromDefaultReads(t *testing.T) {
	svc := newTestService(t)
	order := mustCreate(t, svc, validInput())

	if err := svc.SoftDelete(order.OrderID, nil); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := svc.Get(order.OrderID, false); KindOf(err) != KindNotFound {
		t.Errorf("deleted order should be NotFound by default, got %v", err)
	}

	kept, err := svc.Get(order.OrderID, true)
	if err != nil {
		t.Fatalf("deleted order should remain addressable with explicit bypass: %v", err)
	}
	if !kept.IsDeleted || kept.DeletedAt == nil {
		t.Error("soft delete markers should be set")
	}

	page, err := svc.List(ListFilter{}, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("listing should exclude deleted orders, got total %d", page.Total)
	}
}

func TestSoftDeleteRejectsShippedAndDelivered(t *testing.T) {
	svc := newTestService(t)

	shipped := mustCreate(t, svc, validInput())
	if _, err := svc.ChangeStatus(shipped.OrderID, models.OrderShipped, nil, nil); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if err := svc.SoftDelete(shipped.OrderID, nil); KindOf(err) != KindInvalidState {
		t.Errorf("deleting a shipped order should be InvalidState, got %v", err)
	}

	delivered := mustCreate(t, svc, validInput())
	if _, err := svc.ChangeStatus(delivered.OrderID, models.OrderDelivered, nil, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := svc.SoftDelete(delivered.OrderID, nil); KindOf(err) != KindInvalidState {
		t.Errorf("deleting a delivered order should be InvalidState, got %v", err)
	}
}

func TestListDeliveryStatusFilter(t *testing.T) {
	svc := newTestService(t)

	// Overdue: both dates in the past, still active.
	overdueInput := validInput()
	past := marchNow.Add(-10 * 24 * time.Hour)
	overdueInput.PurchaseDate = &past
	overdueInput.ExpectedDelivery = marchNow.Add(-5 * 24 * time.Hour)
	overdue := mustCreate(t, svc, overdueInput)

	// Due soon: two days out.
	dueSoonInput := validInput()
	dueSoonInput.ExpectedDelivery = marchNow.Add(2 * 24 * time.Hour)
	dueSoon := mustCreate(t, svc, dueSoonInput)

	// On time: ten days out.
	onTimeInput := validInput()
	onTimeInput.ExpectedDelivery = marchNow.Add(10 * 24 * time.Hour)
	mustCreate(t, svc, onTimeInput)

	// Delivered: also past its date, but terminal status wins.
	deliveredInput := validInput()
	deliveredInput.PurchaseDate = &past
	deliveredInput.ExpectedDelivery = marchNow.Add(-5 * 24 * time.Hour)
	deliveredOrder := mustCreate(t, svc, deliveredInput)
	if _, err := svc.ChangeStatus(deliveredOrder.OrderID, models.OrderDelivered, nil, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	page, err := svc.List(ListFilter{DeliveryStatus: DeliveryOverdue}, ListOptions{})
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if page.Total != 1 || page.Orders[0].OrderID != overdue.OrderID {
		t.Errorf("overdue filter should match exactly the overdue order, got %d rows", page.Total)
	}
	if page.Orders[0].DeliveryStatus != DeliveryOverdue {
		t.Errorf("delivery status = %s, want Overdue", page.Orders[0].DeliveryStatus)
	}

	page, err = svc.List(ListFilter{DeliveryStatus: DeliveryDueSoon}, ListOptions{})
	if err != nil {
		t.Fatalf("list due soon: %v", err)
	}
	if page.Total != 1 || page.Orders[0].OrderID != dueSoon.OrderID {
		t.Errorf("due-soon filter should match exactly the due-soon order, got %d rows", page.Total)
	}

	page, err = svc.List(ListFilter{DeliveryStatus: DeliveryDelivered}, ListOptions{})
	if err != nil {
		t.Fatalf("list delivered: %v", err)
	}
	if page.Total != 1 || page.Orders[0].OrderID != deliveredOrder.OrderID {
		t.Errorf("delivered filter should match exactly the delivered order, got %d rows", page.Total)
	}
}

func TestListPaginationClampsLimit(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, validInput())
	}

	page, err := svc.List(ListFilter{}, ListOptions{Page: 0, Limit: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != 100 {
		t.Errorf("limit = %d, want clamped to 100", page.Limit)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want 1", page.Page)
	}
	if page.Total != 3 || page.TotalPages != 1 {
		t.Errorf("total = %d pages = %d, want 3 and 1", page.Total, page.TotalPages)
	}

	page, err = svc.List(ListFilter{}, ListOptions{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Orders) != 1 || page.TotalPages != 2 {
		t.Errorf("page 2 rows = %d total pages = %d, want 1 and 2", len(page.Orders), page.TotalPages)
	}
}

func TestListSearchMatchesNumberAndNotes(t *testing.T) {
	svc := newTestService(t)

	notes := "Rush order, confirm with warehouse"
	withNotes := validInput()
	withNotes.Notes = &notes
	tagged := mustCreate(t, svc, withNotes)
	mustCreate(t, svc, validInput())

	page, err := svc.List(ListFilter{Search: "warehouse"}, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Orders[0].OrderID != tagged.OrderID {
		t.Errorf("notes search should match one order, got %d", page.Total)
	}

	page, err = svc.List(ListFilter{Search: "po-202403-002"}, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("order number search should match one order, got %d", page.Total)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t)

	mustCreate(t, svc, validInput())
	second := mustCreate(t, svc, validInput())
	reason := "budget cut"
	if _, err := svc.ChangeStatus(second.OrderID, models.OrderCancelled, &reason, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	past := marchNow.Add(-10 * 24 * time.Hour)
	overdueInput := validInput()
	overdueInput.PurchaseDate = &past
	overdueInput.ExpectedDelivery = marchNow.Add(-2 * 24 * time.Hour)
	mustCreate(t, svc, overdueInput)

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalOrders != 3 {
		t.Errorf("total orders = %d, want 3", stats.TotalOrders)
	}
	if stats.OverdueCount != 1 {
		t.Errorf("overdue count = %d, want 1", stats.OverdueCount)
	}

	byStatus := make(map[models.OrderStatus]StatusCount)
	for _, row := range stats.ByStatus {
		byStatus[row.Status] = row
	}
	if byStatus[models.OrderDraft].Count != 2 {
		t.Errorf("draft count = %d, want 2", byStatus[models.OrderDraft].Count)
	}
	if byStatus[models.OrderCancelled].Count != 1 {
		t.Errorf("cancelled count = %d, want 1", byStatus[models.OrderCancelled].Count)
	}
	if byStatus[models.OrderDraft].TotalAmount != 552 {
		t.Errorf("draft total = %v, want 552", byStatus[models.OrderDraft].TotalAmount)
	}
	if len(stats.Recent) != 3 {
		t.Errorf("recent = %d rows, want 3", len(stats.Recent))
	}
}

func TestDuplicateClonesIntoFreshDraft(t *testing.T) {
	svc := newTestService(t)

	notes := "weekly replenishment"
	input := validInput()
	input.Notes = &notes
	source := mustCreate(t, svc, input)
	if _, err := svc.ChangeStatus(source.OrderID, models.OrderDelivered, nil, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	clone, err := svc.Duplicate(source.OrderID, nil)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	if clone.OrderID == source.OrderID {
		t.Error("clone should be a new record")
	}
	if clone.OrderNumber == source.OrderNumber {
		t.Error("clone should get a fresh order number")
	}
	if clone.Status != models.OrderDraft {
		t.Errorf("clone status = %s, want Draft", clone.Status)
	}
	if clone.DeliveredAt != nil || clone.CancelledAt != nil {
		t.Error("clone should carry no delivery or cancellation history")
	}
	if len(clone.OrderItems) != 1 || clone.OrderItems[0].ProductName != "Sparkling Water 500ml" {
		t.Error("clone should copy the source items")
	}
	if !clone.PurchaseDate.Equal(marchNow) {
		t.Errorf("clone purchase date = %v, want current date", clone.PurchaseDate)
	}
	if clone.TotalAmount != source.TotalAmount {
		t.Errorf("clone total = %v, want %v", clone.TotalAmount, source.TotalAmount)
	}
}
