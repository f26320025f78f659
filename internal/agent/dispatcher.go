package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/search"
	"github.com/AI-Automated-Ecommerce/Backend/internal/services"
	"github.com/AI-Automated-Ecommerce/Backend/internal/session"
)

// apology is what every unexpected failure degrades to. The decision-maker
// only ever sees plain text; errors stop here.
const apology = "Sorry, something went wrong on my end. Please try again in a moment."

// Dispatcher executes commands against the commerce services and renders
// plain-text results for the conversational channel.
type Dispatcher struct {
	DB     *gorm.DB
	Carts  *services.CartService
	Orders *services.OrderService

	// Sessions remembers customer details across turns so a returning
	// customer is not asked for a name and address again. Optional.
	Sessions session.Store

	// BankDetails is the configured transfer instruction block.
	BankDetails string
	// BusinessInfo is the configured business contact block.
	BusinessInfo string
	// SearchLimit caps search results. Zero means the default of 5.
	SearchLimit int
}

// Execute validates and runs one command, always returning customer-ready
// text. Invalid arguments and service failures degrade to friendly messages;
// no error ever reaches the decision-maker.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) string {
	if err := cmd.Validate(); err != nil {
		log.Warn().Err(err).Type("command", cmd).Msg("command validation failed")
		return apology
	}

	switch c := cmd.(type) {
	case SearchProducts:
		return d.searchProducts(ctx, c)
	case AddToCart:
		return d.addToCart(ctx, c)
	case ViewCart:
		return d.viewCart(ctx, c)
	case GenerateInvoice:
		return d.generateInvoice(ctx, c)
	case FetchPaymentInfo:
		return d.fetchPaymentInfo(ctx, c)
	case ConfirmPayment:
		return d.confirmPayment(ctx, c)
	case FetchBusinessInfo:
		return d.fetchBusinessInfo()
	}
	// Unreachable while the command set stays sealed.
	return apology
}

func (d *Dispatcher) searchProducts(ctx context.Context, c SearchProducts) string {
	products, err := repo.ListActiveProducts(ctx, d.DB)
	if err != nil {
		log.Error().Err(err).Msg("search: catalog load failed")
		return apology
	}

	docs := make([]search.Product, 0, len(products))
	byID := make(map[uint]int, len(products))
	for i, p := range products {
		docs = append(docs, search.Product{ID: p.ID, Name: p.Name, Description: p.Description})
		byID[p.ID] = i
	}

	limit := d.SearchLimit
	if limit <= 0 {
		limit = 5
	}
	results := search.NewIndex(docs).TopK(c.Query, limit)
	if len(results) == 0 {
		return "No products found matching that description."
	}

	var b strings.Builder
	b.WriteString("Found the following products:\n")
	for _, r := range results {
		p := products[byID[r.Product.ID]]
		stock := "Out of stock"
		if p.StockQuantity > 0 {
			stock = fmt.Sprintf("%d in stock", p.StockQuantity)
		}
		fmt.Fprintf(&b, "- %s (ID: %d): $%.2f. %s [%s]\n", p.Name, p.ID, p.Price, p.Description, stock)
	}
	return b.String()
}

func (d *Dispatcher) addToCart(ctx context.Context, c AddToCart) string {
	parsed := ParseItems(c.Items)
	if len(parsed) == 0 {
		return "I couldn't identify the products to add. Please check product names."
	}

	// "add it" / "add that one" resolves against the product remembered
	// from the previous turn.
	var lastProductID uint
	if d.Sessions != nil {
		if st, err := d.Sessions.Get(ctx, c.Phone); err == nil {
			lastProductID = st.LastProductID
		}
	}

	reqs := make([]services.AddItemRequest, 0, len(parsed))
	for _, it := range parsed {
		if lastProductID != 0 && isProductReference(it.Name) {
			reqs = append(reqs, services.AddItemRequest{ProductID: lastProductID, Quantity: it.Quantity})
			continue
		}
		reqs = append(reqs, services.AddItemRequest{Name: it.Name, Quantity: it.Quantity})
	}

	added, err := d.Carts.AddItems(ctx, c.Phone, reqs)
	if err != nil {
		log.Error().Err(err).Str("phone", c.Phone).Msg("add to cart failed")
		return apology
	}
	if len(added) == 0 {
		return "I couldn't identify the products to add. Please check product names."
	}

	if d.Sessions != nil {
		last := added[len(added)-1].Product.ID
		if _, err := d.Sessions.Update(ctx, c.Phone, func(s *session.State) {
			s.LastProductID = last
		}); err != nil {
			log.Warn().Err(err).Str("phone", c.Phone).Msg("session update failed")
		}
	}

	parts := make([]string, 0, len(added))
	for _, a := range added {
		parts = append(parts, fmt.Sprintf("%dx %s", a.Quantity, a.Product.Name))
	}
	return fmt.Sprintf("Added to cart: %s. Type 'cart' to view your items or 'buy' to checkout.",
		strings.Join(parts, ", "))
}

// isProductReference reports whether the item text is a back-reference to
// the last discussed product rather than a product name.
func isProductReference(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "it", "that", "this", "that one", "this one", "the same":
		return true
	}
	return false
}

func (d *Dispatcher) viewCart(ctx context.Context, c ViewCart) string {
	view, err := d.Carts.ViewCart(ctx, c.Phone)
	if err != nil {
		log.Error().Err(err).Str("phone", c.Phone).Msg("view cart failed")
		return apology
	}
	if view.Empty() {
		return "Your cart is empty."
	}

	var b strings.Builder
	b.WriteString("🛒 Your Cart:\n")
	for _, line := range view.Lines {
		fmt.Fprintf(&b, "- %dx %s: $%.2f\n", line.Quantity, line.Product.Name, line.LineTotal)
	}
	fmt.Fprintf(&b, "\nTotal: $%.2f\n\nType 'buy' or 'checkout' to place your order.", view.Total)
	return b.String()
}

func (d *Dispatcher) generateInvoice(ctx context.Context, c GenerateInvoice) string {
	// Fall back to session-remembered details when the dialogue provided
	// none. "Customer" is the decider's placeholder, not a real name.
	if d.Sessions != nil {
		if st, err := d.Sessions.Get(ctx, c.Phone); err == nil {
			if (c.Name == "" || c.Name == "Customer") && st.Name != "" {
				c.Name = st.Name
			}
			if c.Address == "" {
				c.Address = st.Address
			}
		}
	}

	o, err := d.Orders.PlaceOrderFromCart(ctx, c.Phone, c.Name, c.Address)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return "Your cart is empty! Please add items before checking out."
		case errors.Is(err, services.ErrInsufficientStock):
			var ise *services.InsufficientStockError
			if errors.As(err, &ise) {
				return fmt.Sprintf("Sorry, only %d of %q left in stock. Please adjust your cart and try again.",
					ise.Available, ise.ProductName)
			}
			return "Sorry, an item in your cart just sold out. Please adjust your cart and try again."
		default:
			log.Error().Err(err).Str("phone", c.Phone).Msg("invoice generation failed")
			return "Error generating invoice. Please try again."
		}
	}

	if d.Sessions != nil {
		if _, err := d.Sessions.Update(ctx, c.Phone, func(s *session.State) {
			s.Name = o.CustomerName
			s.Address = o.ShippingAddress
			s.PendingOrderID = o.ID
		}); err != nil {
			log.Warn().Err(err).Str("phone", c.Phone).Msg("session update failed")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📄 INVOICE GENERATED (Order #%d)\n\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	if o.ShippingAddress != "" {
		fmt.Fprintf(&b, "Address: %s\n", o.ShippingAddress)
	}
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		name := fmt.Sprintf("product #%d", it.ProductID)
		if p, err := repo.GetProduct(ctx, d.DB, it.ProductID); err == nil {
			name = p.Name
		}
		fmt.Fprintf(&b, "%dx %s (@ $%.2f)\n", it.Quantity, name, it.UnitPrice)
	}
	fmt.Fprintf(&b, "\nTotal Amount: $%.2f\n\n", o.TotalAmount)
	b.WriteString("Please CONFIRM this invoice if details are correct. Once confirmed, I will provide payment details.")
	return b.String()
}

func (d *Dispatcher) fetchPaymentInfo(ctx context.Context, c FetchPaymentInfo) string {
	if strings.TrimSpace(d.BankDetails) == "" {
		return "Bank details are not currently configured. Please contact support."
	}
	if err := d.Carts.ClearCart(ctx, c.Phone); err != nil {
		log.Error().Err(err).Str("phone", c.Phone).Msg("cart clear on payment info failed")
		return apology
	}
	return fmt.Sprintf(
		"Please transfer the amount to the following bank account:\n\n%s\n\nOnce paid, please send a slip/screenshot here for manual verification.",
		d.BankDetails)
}

func (d *Dispatcher) confirmPayment(ctx context.Context, c ConfirmPayment) string {
	o, err := d.Orders.ConfirmPayment(ctx, c.Phone, c.Ref)
	if err != nil {
		if errors.Is(err, services.ErrNoPendingOrder) {
			return "I couldn't find a pending order for your number. Please make sure you have generated an invoice first."
		}
		log.Error().Err(err).Str("phone", c.Phone).Msg("payment confirmation failed")
		return "An error occurred while updating your payment status. Please try again or contact support."
	}
	if d.Sessions != nil {
		if _, err := d.Sessions.Update(ctx, c.Phone, func(s *session.State) {
			s.PendingOrderID = 0
		}); err != nil {
			log.Warn().Err(err).Str("phone", c.Phone).Msg("session update failed")
		}
	}
	return fmt.Sprintf(
		"Thank you! I have marked your order #%d for payment review.\nOur team will verify the payment and ship your items soon.\nYou will receive a confirmation once verified.",
		o.ID)
}

func (d *Dispatcher) fetchBusinessInfo() string {
	if strings.TrimSpace(d.BusinessInfo) == "" {
		return "No specific business details are currently configured."
	}
	return d.BusinessInfo
}
