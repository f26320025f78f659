// Order HTTP handlers.
//
// This file exposes REST endpoints for the storefront order path:
//   - POST /orders/place                 (create an order directly, bypassing the cart)
//   - GET  /orders/{id}                  (fetch a single order with its items)
//   - POST /orders/{id}/payment-receipt  (upload proof of payment)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate failures into the stable error taxonomy. The receipt upload
// stores the file first and attaches the URL second; a rejected upload never
// touches order state.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/services"
	"github.com/AI-Automated-Ecommerce/Backend/internal/storage"
)

//
// Service contracts (context-aware)
//

// OrderService defines the order lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// PlaceOrder creates a PENDING order after atomically reserving stock.
	PlaceOrder(ctx context.Context, in services.PlaceOrderInput) (*domain.Order, error)
	// UpdateStatus applies a lifecycle transition to an order.
	UpdateStatus(ctx context.Context, orderID uint, status string) (*domain.Order, error)
	// AttachReceipt stores a receipt URL and forces payment review.
	AttachReceipt(ctx context.Context, orderID uint, url string) (*domain.Order, error)
	// GetOrder fetches one order with its line items.
	GetOrder(ctx context.Context, orderID uint) (*domain.Order, error)
}

//
// Handler wiring
//

// Handlers groups the storefront and admin HTTP endpoints. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic; DB is used directly only for read-side queries (catalog,
// dashboard) that have no service layer.
type Handlers struct {
	db       *gorm.DB
	orderSvc OrderService
	receipts storage.ReceiptStore
}

// New constructs a Handlers instance bound to the given dependencies.
func New(db *gorm.DB, orderSvc OrderService, receipts storage.ReceiptStore) *Handlers {
	return &Handlers{db: db, orderSvc: orderSvc, receipts: receipts}
}

//
// DTOs
//

// PlaceOrderResponse is the JSON envelope for a successfully created order.
type PlaceOrderResponse struct {
	OrderID     uint    `json:"order_id"`
	Status      string  `json:"status" example:"PENDING"`
	TotalAmount float64 `json:"total_amount" example:"245.97"`
	Message     string  `json:"message" example:"Order placed successfully"`
}

// ReceiptResponse is the JSON envelope after a receipt upload.
type ReceiptResponse struct {
	OrderID    uint   `json:"order_id"`
	Status     string `json:"status" example:"PAYMENT_REVIEW_REQUESTED"`
	ReceiptURL string `json:"receipt_url"`
}

//
// Helpers
//

// orderIDParam parses the :id path segment as an unsigned integer.
func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// failOrder maps service-layer order failures onto the HTTP error taxonomy.
// Every sentinel gets a distinct code so storefront clients can branch
// without parsing messages.
func failOrder(c *gin.Context, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		fail(c, http.StatusConflict, ErrCodeInsufficientStock,
			fmt.Sprintf("only %d of %q available", stockErr.Available, stockErr.ProductName))
	case errors.Is(err, services.ErrProductNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "product not found or inactive")
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
	case errors.Is(err, services.ErrInvalidPaymentMethod):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unsupported payment method")
	case errors.Is(err, services.ErrEmptyOrder):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one item is required")
	case errors.Is(err, services.ErrInvalidQuantity):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item quantity must be at least 1")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown order status")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, "status transition not allowed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "order operation failed")
	}
}

//
// Handlers
//

// PlaceOrder godoc
// @ID          placeOrder
// @Summary     Place a storefront order
// @Description Creates a PENDING order, atomically decrementing stock for every
// @Description line item. Any single shortage aborts the whole order.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.PlaceOrderInput  true  "Order payload"
//
// @Success     201  {object}  handlers.PlaceOrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Insufficient stock"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/place [post]
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var in services.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	o, err := h.orderSvc.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		failOrder(c, err)
		return
	}

	ok(c, http.StatusCreated, PlaceOrderResponse{
		OrderID:     o.ID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Message:     "Order placed successfully",
	})
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Fetch one order
// @Description Returns an order with its line items.
// @Tags        Orders
// @Produce     json
//
// @Param       id  path  int  true  "Order ID"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, okID := orderIDParam(c)
	if !okID {
		return
	}

	o, err := h.orderSvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		failOrder(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UploadReceipt godoc
// @ID          uploadReceipt
// @Summary     Upload a payment receipt
// @Description Stores the uploaded proof of payment and forces the order into
// @Description PAYMENT_REVIEW_REQUESTED regardless of its prior status.
// @Tags        Orders
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       id       path      int   true  "Order ID"
// @Param       receipt  formData  file  true  "Receipt image or PDF"
//
// @Success     200  {object}  handlers.ReceiptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     415  {object}  handlers.ErrorResponse  "Unsupported file type"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/payment-receipt [post]
func (h *Handlers) UploadReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := orderIDParam(c)
	if !okID {
		return
	}

	// Reject unknown orders before writing anything to disk.
	if _, err := h.orderSvc.GetOrder(ctx, id); err != nil {
		failOrder(c, err)
		return
	}

	fh, err := c.FormFile("receipt")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "receipt file required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable receipt file")
		return
	}
	defer f.Close()

	url, err := h.receipts.Save(ctx, id, fh.Filename, f)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			fail(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia,
				"receipt must be an image (jpg, png, webp) or PDF")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "receipt storage failed")
		return
	}

	o, err := h.orderSvc.AttachReceipt(ctx, id, url)
	if err != nil {
		failOrder(c, err)
		return
	}

	ok(c, http.StatusOK, ReceiptResponse{
		OrderID:    o.ID,
		Status:     string(o.Status),
		ReceiptURL: o.PaymentReceiptURL,
	})
}
