// Package services – OrderService
//
// This file implements the OrderService, the write path for the order ledger.
// It validates storefront input, snapshots customer and price data at
// creation time, runs the stock check-and-decrement inside one transaction,
// enforces the lifecycle transition table, and dispatches the
// payment-confirmation notification as a detached best-effort side effect.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/sysutil"
)

// Notifier delivers customer-facing notifications. Implementations must be
// safe for concurrent use; delivery is attempted at most once per event.
type Notifier interface {
	// PaymentConfirmed tells the customer an admin verified their payment.
	PaymentConfirmed(ctx context.Context, o *domain.Order) error
}

// OrderLineInput is one requested line of a storefront order.
type OrderLineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PlaceOrderInput carries everything needed to create a storefront order.
type PlaceOrderInput struct {
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	ShippingAddress string           `json:"shipping_address"`
	PaymentMethod   string           `json:"payment_method"`
	Items           []OrderLineInput `json:"items"`
}

// OrderService provides order creation and lifecycle operations.
type OrderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Locks serializes per-customer mutations. Shared with CartService.
	Locks *KeyedMutex
	// Notifier delivers payment-confirmation messages. May be nil in tests.
	Notifier Notifier

	// PaymentMethods is the closed set accepted on the storefront path.
	PaymentMethods map[string]struct{}
	// InvoicePaymentMethod is stamped on orders created from a cart over
	// the conversational channel.
	InvoicePaymentMethod string
	// NotifyTimeout bounds a single notification attempt.
	NotifyTimeout time.Duration
}

// NewOrderService constructs an OrderService with the default payment-method
// policy: storefront accepts "Debit Card" and "Cash on Delivery",
// conversational invoices settle by "Bank Transfer".
func NewOrderService(db *gorm.DB, locks *KeyedMutex, n Notifier) *OrderService {
	return &OrderService{
		DB:       db,
		Locks:    locks,
		Notifier: n,
		PaymentMethods: map[string]struct{}{
			"Debit Card":       {},
			"Cash on Delivery": {},
		},
		InvoicePaymentMethod: "Bank Transfer",
		NotifyTimeout:        10 * time.Second,
	}
}

// PlaceOrder creates a storefront order. Validation happens before any
// write; the order row, its items, and every stock decrement commit in one
// transaction, so a failure on the third item leaves the first two
// untouched. The created order starts PENDING.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if _, ok := s.PaymentMethods[in.PaymentMethod]; !ok {
		return nil, ErrInvalidPaymentMethod
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	s.Locks.Lock(in.CustomerPhone)
	defer s.Locks.Unlock(in.CustomerPhone)

	return s.createOrder(ctx, in, "")
}

// PlaceOrderFromCart converts the customer's cart into an order (the
// conversational invoice path). name and address come from the dialogue and
// take precedence over the stored profile; empty values fall back to it. The
// cart is deleted in the same transaction that creates the order, so a stock
// failure leaves the cart intact for the customer to adjust.
func (s *OrderService) PlaceOrderFromCart(ctx context.Context, phone, name, address string) (*domain.Order, error) {
	s.Locks.Lock(phone)
	defer s.Locks.Unlock(phone)

	cart, err := repo.GetCartByPhone(ctx, s.DB, phone)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Dialogue names arrive in whatever casing the customer typed.
	if name != "" {
		name = cases.Title(language.English, cases.NoLower).String(name)
	}

	in := PlaceOrderInput{
		CustomerPhone:   phone,
		CustomerName:    name,
		ShippingAddress: address,
		PaymentMethod:   s.InvoicePaymentMethod,
	}
	if u, err := repo.GetUserByPhone(ctx, s.DB, phone); err == nil {
		in.CustomerName = sysutil.FirstNonEmpty(in.CustomerName, u.Name)
		in.CustomerEmail = u.Email
		in.ShippingAddress = sysutil.FirstNonEmpty(in.ShippingAddress, u.Address)
	}
	for _, it := range cart.Items {
		in.Items = append(in.Items, OrderLineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	return s.createOrder(ctx, in, cart.ID)
}

// createOrder runs the transactional core shared by both order paths. When
// sourceCartID is non-empty the cart is deleted inside the same transaction.
// Callers hold the per-phone lock.
func (s *OrderService) createOrder(ctx context.Context, in PlaceOrderInput, sourceCartID string) (*domain.Order, error) {
	var created *domain.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := repo.FindOrCreateUser(ctx, tx, domain.User{
			PhoneNumber: in.CustomerPhone,
			Name:        in.CustomerName,
			Email:       in.CustomerEmail,
			Address:     in.ShippingAddress,
		})
		if err != nil {
			return err
		}

		order := domain.Order{
			UserID:          user.ID,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			Status:          domain.StatusPending,
		}

		for _, line := range in.Items {
			p, err := repo.GetActiveProduct(ctx, tx, line.ProductID)
			if err != nil {
				if repo.IsNotFound(err) {
					return ErrProductNotFound
				}
				return err
			}
			if err := repo.DecrementStock(ctx, tx, p.ID, line.Quantity); err != nil {
				if errors.Is(err, repo.ErrStockConflict) {
					stockConflictsTotal.Inc()
					return &InsufficientStockError{
						ProductID:   p.ID,
						ProductName: p.Name,
						Requested:   line.Quantity,
						Available:   p.StockQuantity,
					}
				}
				return err
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: p.ID,
				Quantity:  line.Quantity,
				UnitPrice: p.Price,
			})
			order.TotalAmount += p.Price * float64(line.Quantity)
		}

		if err := repo.CreateOrder(ctx, tx, &order); err != nil {
			return err
		}
		if sourceCartID != "" {
			if err := repo.DeleteCart(ctx, tx, sourceCartID); err != nil {
				return err
			}
		}
		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	ordersPlacedTotal.Inc()
	return created, nil
}

// UpdateStatus moves an order to a new lifecycle state. The raw status is
// parsed against the closed set and the change is validated against the
// transition table before anything is written. Only the
// PAYMENT_REVIEW_REQUESTED to PAID edge dispatches a notification, in a
// detached goroutine after the commit; a delivery failure is logged and
// counted but never reverts the status and is never retried.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, rawStatus string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, ErrInvalidTransition
	}

	from := o.Status
	if err := repo.UpdateOrderStatus(ctx, s.DB, orderID, to); err != nil {
		return nil, err
	}
	o.Status = to

	if from == domain.StatusPaymentReview && to == domain.StatusPaid && s.Notifier != nil {
		snapshot := *o
		go s.notifyPaymentConfirmed(&snapshot)
	}
	return o, nil
}

func (s *OrderService) notifyPaymentConfirmed(o *domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
	defer cancel()
	if err := s.Notifier.PaymentConfirmed(ctx, o); err != nil {
		notificationFailuresTotal.Inc()
		log.Warn().
			Err(err).
			Uint("order_id", o.ID).
			Str("phone", o.CustomerPhone).
			Msg("payment confirmation notification failed")
	}
}

// ConfirmPayment marks the customer's most recent PENDING order as awaiting
// admin review, recording an optional payment reference. Returns
// ErrNoPendingOrder when nothing is awaiting payment; callers treat that as
// a normal negative result, not a failure.
func (s *OrderService) ConfirmPayment(ctx context.Context, phone, ref string) (*domain.Order, error) {
	s.Locks.Lock(phone)
	defer s.Locks.Unlock(phone)

	o, err := repo.FindLatestPendingByPhone(ctx, s.DB, phone)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNoPendingOrder
		}
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateOrderStatus(ctx, tx, o.ID, domain.StatusPaymentReview); err != nil {
			return err
		}
		if ref != "" {
			if err := repo.SetPaymentRef(ctx, tx, o.ID, ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.Status = domain.StatusPaymentReview
	o.PaymentRef = ref
	return o, nil
}

// AttachReceipt records an uploaded payment proof and forces the order into
// PAYMENT_REVIEW_REQUESTED whatever its prior state. Proof of payment always
// deserves an admin look, so this bypasses the transition table.
func (s *OrderService) AttachReceipt(ctx context.Context, orderID uint, url string) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.SetReceiptURL(ctx, tx, orderID, url); err != nil {
			return err
		}
		return repo.UpdateOrderStatus(ctx, tx, orderID, domain.StatusPaymentReview)
	})
	if err != nil {
		return nil, err
	}

	o.Status = domain.StatusPaymentReview
	o.PaymentReceiptURL = url
	return o, nil
}

// GetOrder loads an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}
