package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
)

// fakeNotifier records deliveries and can be told to fail.
type fakeNotifier struct {
	mu        sync.Mutex
	delivered []uint
	fail      error
	signal    chan struct{}
}

func newFakeNotifier(fail error) *fakeNotifier {
	return &fakeNotifier{fail: fail, signal: make(chan struct{}, 16)}
}

func (f *fakeNotifier) PaymentConfirmed(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	f.delivered = append(f.delivered, o.ID)
	f.mu.Unlock()
	f.signal <- struct{}{}
	return f.fail
}

func (f *fakeNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never attempted")
	}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func placeSimpleOrder(t *testing.T, svc *OrderService, phone string, pid uint, qty int) *domain.Order {
	t.Helper()
	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerName:    "Jordan",
		CustomerPhone:   phone,
		ShippingAddress: "1 Main St",
		PaymentMethod:   "Debit Card",
		Items:           []OrderLineInput{{ProductID: pid, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	return o
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	hp := seedProduct(t, db, "Wireless Headphones", 99.99, 5)
	sw := seedProduct(t, db, "Smart Watch", 45.99, 5)

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerName:  "Jordan",
		CustomerPhone: "+15557770001",
		PaymentMethod: "Cash on Delivery",
		Items: []OrderLineInput{
			{ProductID: hp.ID, Quantity: 2},
			{ProductID: sw.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.Status != domain.StatusPending {
		t.Fatalf("status = %s, want PENDING", o.Status)
	}
	if !almostEqual(o.TotalAmount, 245.97) {
		t.Fatalf("total = %v, want 245.97", o.TotalAmount)
	}
	if got := reloadProduct(t, db, hp.ID).StockQuantity; got != 3 {
		t.Fatalf("headphones stock = %d, want 3", got)
	}
	if got := reloadProduct(t, db, sw.ID).StockQuantity; got != 4 {
		t.Fatalf("watch stock = %d, want 4", got)
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	p := seedProduct(t, db, "Pen", 1.20, 10)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerPhone: "+15557770002",
		PaymentMethod: "Store Credit",
		Items:         []OrderLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerPhone: "+15557770002",
		PaymentMethod: "Debit Card",
	})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerPhone: "+15557770002",
		PaymentMethod: "Debit Card",
		Items:         []OrderLineInput{{ProductID: 9999, Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPlaceOrder_AtomicOnPartialStockFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	ok := seedProduct(t, db, "Plentiful", 10, 100)
	scarce := seedProduct(t, db, "Scarce", 20, 1)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerPhone: "+15557770003",
		PaymentMethod: "Debit Card",
		Items: []OrderLineInput{
			{ProductID: ok.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("error not typed: %v", err)
	}
	if ise.ProductName != "Scarce" || ise.Available != 1 || ise.Requested != 3 {
		t.Fatalf("details = %+v", ise)
	}

	// Nothing committed: both stocks intact, no order rows.
	if got := reloadProduct(t, db, ok.ID).StockQuantity; got != 100 {
		t.Fatalf("plentiful stock = %d, want 100 (rollback)", got)
	}
	var orders int64
	if err := db.Model(&domain.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Fatalf("order rows created despite rollback: %d", orders)
	}
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	p := seedProduct(t, db, "Last One", 50, 1)
	phone := "+15557770004"

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
				CustomerPhone: phone,
				PaymentMethod: "Debit Card",
				Items:         []OrderLineInput{{ProductID: p.ID, Quantity: 1}},
			})
			results <- err
		}()
	}

	var successes, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes = %d, conflicts = %d, want exactly 1 each", successes, conflicts)
	}
	if got := reloadProduct(t, db, p.ID).StockQuantity; got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestPlaceOrder_PriceSnapshotImmutable(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	p := seedProduct(t, db, "Gadget", 30, 10)

	o := placeSimpleOrder(t, svc, "+15557770005", p.ID, 2)
	if !almostEqual(o.TotalAmount, 60) {
		t.Fatalf("total = %v, want 60", o.TotalAmount)
	}

	if err := db.Model(&domain.Product{}).Where("id = ?", p.ID).Update("price", 99.0).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}

	got, err := svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if !almostEqual(got.TotalAmount, 60) {
		t.Fatalf("total changed after reprice: %v", got.TotalAmount)
	}
	if len(got.Items) != 1 || !almostEqual(got.Items[0].UnitPrice, 30) {
		t.Fatalf("unit price not snapshotted: %+v", got.Items)
	}
}

func TestPlaceOrderFromCart_DeletesCartAtomically(t *testing.T) {
	db := newTestDB(t)
	locks := NewKeyedMutex()
	carts := NewCartService(db, locks)
	orders := NewOrderService(db, locks, nil)
	ctx := context.Background()
	phone := "+15557770006"

	p := seedProduct(t, db, "Wireless Headphones", 99.99, 10)
	if _, err := carts.AddItems(ctx, phone, []AddItemRequest{{ProductID: p.ID, Quantity: 2}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	o, err := orders.PlaceOrderFromCart(ctx, phone, "Jordan", "1 Main St")
	if err != nil {
		t.Fatalf("PlaceOrderFromCart: %v", err)
	}
	if o.PaymentMethod != "Bank Transfer" {
		t.Fatalf("payment method = %q, want Bank Transfer", o.PaymentMethod)
	}
	if !almostEqual(o.TotalAmount, 199.98) {
		t.Fatalf("total = %v, want 199.98", o.TotalAmount)
	}

	view, err := carts.ViewCart(ctx, phone)
	if err != nil || !view.Empty() {
		t.Fatalf("cart survived order creation: %+v, %v", view, err)
	}
}

func TestPlaceOrderFromCart_StockFailureKeepsCart(t *testing.T) {
	db := newTestDB(t)
	locks := NewKeyedMutex()
	carts := NewCartService(db, locks)
	orders := NewOrderService(db, locks, nil)
	ctx := context.Background()
	phone := "+15557770007"

	p := seedProduct(t, db, "Scarce", 20, 1)
	if _, err := carts.AddItems(ctx, phone, []AddItemRequest{{ProductID: p.ID, Quantity: 5}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := orders.PlaceOrderFromCart(ctx, phone, "Jordan", "1 Main St"); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	view, err := carts.ViewCart(ctx, phone)
	if err != nil {
		t.Fatalf("ViewCart: %v", err)
	}
	if view.Empty() {
		t.Fatal("cart deleted despite failed order")
	}
}

func TestPlaceOrderFromCart_EmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	if _, err := svc.PlaceOrderFromCart(context.Background(), "+15557770008", "", ""); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestUpdateStatus_TransitionsAndNotification(t *testing.T) {
	db := newTestDB(t)
	n := newFakeNotifier(nil)
	svc := NewOrderService(db, NewKeyedMutex(), n)
	p := seedProduct(t, db, "Gadget", 30, 10)
	o := placeSimpleOrder(t, svc, "+15557770009", p.ID, 1)
	ctx := context.Background()

	// PENDING -> PAID skips review and must be refused without mutation.
	if _, err := svc.UpdateStatus(ctx, o.ID, "PAID"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	got, _ := svc.GetOrder(ctx, o.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("status mutated by refused transition: %s", got.Status)
	}

	// Unknown status string, refused before any lookup.
	if _, err := svc.UpdateStatus(ctx, o.ID, "REFUNDED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, o.ID, "PAYMENT_REVIEW_REQUESTED"); err != nil {
		t.Fatalf("to review: %v", err)
	}
	if n.count() != 0 {
		t.Fatal("notification sent for non-paid transition")
	}

	if _, err := svc.UpdateStatus(ctx, o.ID, "PAID"); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	n.wait(t)
	if n.count() != 1 {
		t.Fatalf("notifications = %d, want 1", n.count())
	}

	if _, err := svc.UpdateStatus(ctx, o.ID, "SHIPPED"); err != nil {
		t.Fatalf("to shipped: %v", err)
	}
	if n.count() != 1 {
		t.Fatal("notification sent for paid->shipped")
	}
}

func TestUpdateStatus_NotifierFailureDoesNotRevert(t *testing.T) {
	db := newTestDB(t)
	n := newFakeNotifier(errors.New("transport down"))
	svc := NewOrderService(db, NewKeyedMutex(), n)
	p := seedProduct(t, db, "Gadget", 30, 10)
	o := placeSimpleOrder(t, svc, "+15557770010", p.ID, 1)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, o.ID, "PAYMENT_REVIEW_REQUESTED"); err != nil {
		t.Fatalf("to review: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, o.ID, "PAID"); err != nil {
		t.Fatalf("to paid must succeed despite broken notifier: %v", err)
	}
	n.wait(t)

	got, err := svc.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusPaid {
		t.Fatalf("status = %s, want PAID (delivery failure must not revert)", got.Status)
	}
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	if _, err := svc.UpdateStatus(context.Background(), 424242, "CANCELLED"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestConfirmPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	p := seedProduct(t, db, "Gadget", 30, 10)
	phone := "+15557770011"
	ctx := context.Background()

	// No pending order yet: a normal negative result.
	if _, err := svc.ConfirmPayment(ctx, phone, ""); !errors.Is(err, ErrNoPendingOrder) {
		t.Fatalf("expected ErrNoPendingOrder, got %v", err)
	}

	first := placeSimpleOrder(t, svc, phone, p.ID, 1)
	second := placeSimpleOrder(t, svc, phone, p.ID, 2)

	got, err := svc.ConfirmPayment(ctx, phone, "TXN-123")
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if got.ID != second.ID {
		t.Fatalf("confirmed order %d, want most recent %d", got.ID, second.ID)
	}
	if got.Status != domain.StatusPaymentReview || got.PaymentRef != "TXN-123" {
		t.Fatalf("order = %+v", got)
	}

	// The older pending order is untouched and becomes the next target.
	next, err := svc.ConfirmPayment(ctx, phone, "")
	if err != nil {
		t.Fatalf("second ConfirmPayment: %v", err)
	}
	if next.ID != first.ID {
		t.Fatalf("confirmed order %d, want %d", next.ID, first.ID)
	}
}

func TestAttachReceipt_ForcesReviewFromAnyState(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, NewKeyedMutex(), nil)
	p := seedProduct(t, db, "Gadget", 30, 10)
	o := placeSimpleOrder(t, svc, "+15557770012", p.ID, 1)
	ctx := context.Background()

	// Walk the order to SHIPPED, then upload a receipt.
	for _, st := range []string{"PAYMENT_REVIEW_REQUESTED", "PAID", "SHIPPED"} {
		if _, err := svc.UpdateStatus(ctx, o.ID, st); err != nil {
			t.Fatalf("to %s: %v", st, err)
		}
	}

	got, err := svc.AttachReceipt(ctx, o.ID, "/uploads/receipt-1.jpg")
	if err != nil {
		t.Fatalf("AttachReceipt: %v", err)
	}
	if got.Status != domain.StatusPaymentReview {
		t.Fatalf("status = %s, want PAYMENT_REVIEW_REQUESTED", got.Status)
	}
	if got.PaymentReceiptURL != "/uploads/receipt-1.jpg" {
		t.Fatalf("receipt url = %q", got.PaymentReceiptURL)
	}

	if _, err := svc.AttachReceipt(ctx, 424242, "/uploads/x.jpg"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
