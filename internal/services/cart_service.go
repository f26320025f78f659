// Package services – CartService
//
// This file implements the CartService, which manages the single unplaced
// line-item collection each customer has. It resolves free-text product
// references against the active catalog, upserts quantities, and computes
// cart summaries. All mutations for one customer run under a per-identity
// mutex so concurrent adds never lose updates.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
)

// AddItemRequest references a product either strictly by ID or loosely by
// free-text name. Exactly one of ProductID and Name should be set.
type AddItemRequest struct {
	ProductID uint
	Name      string
	Quantity  int
}

// AddedItem is one successfully resolved cart addition.
type AddedItem struct {
	Product  domain.Product
	Quantity int
}

// CartLine is one product line of a cart summary.
type CartLine struct {
	Product   domain.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"line_total"`
}

// CartView is a read-only cart summary. An empty cart yields a view with no
// lines and a zero total; callers distinguish that case themselves.
type CartView struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}

// Empty reports whether the cart has no lines.
func (v *CartView) Empty() bool { return len(v.Lines) == 0 }

// CartService manages per-customer carts.
type CartService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Locks serializes mutations per customer phone. Shared with OrderService.
	Locks *KeyedMutex
}

// NewCartService constructs a CartService sharing the given lock registry.
func NewCartService(db *gorm.DB, locks *KeyedMutex) *CartService {
	return &CartService{DB: db, Locks: locks}
}

// AddItems resolves each request against the active catalog and upserts the
// resolved quantities into the customer's cart, creating the cart lazily.
//
// Resolution rules:
//   - ProductID set: strict. A missing or inactive product fails the whole
//     call with ErrProductNotFound.
//   - Name set: fuzzy, case-insensitive substring containment in either
//     direction. Misses are silently dropped from the result, never an error.
//
// Returns the (product, quantity) pairs actually added.
func (s *CartService) AddItems(ctx context.Context, phone string, requests []AddItemRequest) ([]AddedItem, error) {
	for _, r := range requests {
		if r.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	s.Locks.Lock(phone)
	defer s.Locks.Unlock(phone)

	catalog, err := repo.ListActiveProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	var resolved []AddedItem
	for _, r := range requests {
		switch {
		case r.ProductID != 0:
			p, err := repo.GetActiveProduct(ctx, s.DB, r.ProductID)
			if err != nil {
				if repo.IsNotFound(err) {
					return nil, ErrProductNotFound
				}
				return nil, err
			}
			resolved = append(resolved, AddedItem{Product: *p, Quantity: r.Quantity})
		default:
			if p, ok := matchProduct(catalog, r.Name); ok {
				resolved = append(resolved, AddedItem{Product: p, Quantity: r.Quantity})
			}
		}
	}

	if len(resolved) == 0 {
		return []AddedItem{}, nil
	}

	cart, err := repo.GetOrCreateCart(ctx, s.DB, phone)
	if err != nil {
		return nil, err
	}
	for _, item := range resolved {
		if err := repo.UpsertCartItem(ctx, s.DB, cart.ID, item.Product.ID, item.Quantity); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// ViewCart returns the cart summary with per-line and grand totals.
func (s *CartService) ViewCart(ctx context.Context, phone string) (*CartView, error) {
	cart, err := repo.GetCartByPhone(ctx, s.DB, phone)
	if err != nil {
		if repo.IsNotFound(err) {
			return &CartView{Lines: []CartLine{}}, nil
		}
		return nil, err
	}

	view := &CartView{Lines: make([]CartLine, 0, len(cart.Items))}
	for _, it := range cart.Items {
		line := CartLine{
			Product:   it.Product,
			Quantity:  it.Quantity,
			LineTotal: it.Product.Price * float64(it.Quantity),
		}
		view.Lines = append(view.Lines, line)
		view.Total += line.LineTotal
	}
	return view, nil
}

// ClearCart removes the customer's cart and all its items. Clearing a
// customer without a cart is a no-op.
func (s *CartService) ClearCart(ctx context.Context, phone string) error {
	s.Locks.Lock(phone)
	defer s.Locks.Unlock(phone)
	return repo.DeleteCartByPhone(ctx, s.DB, phone)
}

// matchProduct finds the first active product whose name contains the query
// or is contained by it, ignoring case. Ties resolve to catalog name order.
func matchProduct(catalog []domain.Product, query string) (domain.Product, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Product{}, false
	}
	for _, p := range catalog {
		name := strings.ToLower(p.Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return p, true
		}
	}
	return domain.Product{}, false
}
