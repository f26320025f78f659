// Package domain defines the persistence models for the commerce core:
// catalog (categories, products), customers, carts, orders with immutable
// line-item snapshots, and the conversational transcript. These types are
// mapped with GORM and form the data layer shared by repositories and
// services.
package domain

import (
	"time"
)

// Category groups products for browsing and filtered search.
type Category struct {
	ID          uint   `json:"id"          gorm:"primaryKey"`
	Name        string `json:"name"        gorm:"type:varchar(50);not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:varchar(255)"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Product is a catalog entry. Stock is mutated only by admin operations and
// by order creation (decrement); this core never restocks.
//
// Fields:
//   - Price: unit price, fixed-point currency column (decimal(10,2)).
//   - StockQuantity: units available; never negative (guarded decrement).
//   - IsActive: inactive products are invisible to search and unorderable.
type Product struct {
	ID            uint      `json:"id"            gorm:"primaryKey"`
	CategoryID    uint      `json:"category_id"   gorm:"index"`
	Name          string    `json:"name"          gorm:"type:varchar(100);not null"`
	Description   string    `json:"description"   gorm:"type:text"`
	Price         float64   `json:"price"         gorm:"type:decimal(10,2);not null"`
	StockQuantity int       `json:"stock_quantity" gorm:"not null;default:0"`
	ImageURL      string    `json:"image_url"     gorm:"type:varchar(255)"`
	IsActive      bool      `json:"is_active"     gorm:"not null;default:true"`
	UpdatedAt     time.Time `json:"updated_at"`

	Category Category `json:"-" gorm:"foreignKey:CategoryID;references:ID"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// User is a customer record keyed by phone number (the customer identity on
// the conversational channel). Profile fields are best-known values: they are
// filled in when absent and never overwritten by empty input.
type User struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(50);not null;uniqueIndex"`
	Email       string    `json:"email,omitempty" gorm:"type:varchar(100);index"`
	Name        string    `json:"name"         gorm:"type:varchar(100)"`
	Address     string    `json:"address"      gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Cart is the single unplaced line-item collection for one customer phone.
// It is created lazily on first add and hard-deleted once converted into an
// order or once payment instructions are issued.
type Cart struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserPhone string    `json:"user_phone" gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`

	Items []CartItem `json:"items" gorm:"foreignKey:CartID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Cart.
func (Cart) TableName() string { return "carts" }

// CartItem is one product line in a cart. Re-adding the same product
// increments Quantity on the existing row (enforced by the unique index on
// cart_id+product_id).
type CartItem struct {
	ID        string `json:"id"         gorm:"type:char(36);primaryKey"`
	CartID    string `json:"cart_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_cart_product"`
	ProductID uint   `json:"product_id" gorm:"not null;uniqueIndex:ux_cart_product"`
	Quantity  int    `json:"quantity"   gorm:"not null;check:quantity >= 1"`

	Product Product `json:"product" gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the database table name for CartItem.
func (CartItem) TableName() string { return "cart_items" }

// Order is the immutable record of a placed purchase. Customer fields are a
// snapshot taken at creation time, independent of later profile edits.
// TotalAmount is computed once at creation and never recomputed. Only Status,
// PaymentRef and PaymentReceiptURL may change after creation.
type Order struct {
	ID     uint `json:"id"      gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"index"`

	CustomerName  string `json:"customer_name"  gorm:"type:varchar(100)"`
	CustomerEmail string `json:"customer_email" gorm:"type:varchar(100)"`
	CustomerPhone string `json:"customer_phone" gorm:"type:varchar(50);index"`

	ShippingAddress string `json:"shipping_address" gorm:"type:text"`
	PaymentMethod   string `json:"payment_method"   gorm:"type:varchar(50)"`

	Status            OrderStatus `json:"status" gorm:"type:varchar(32);not null;default:'PENDING';index"`
	TotalAmount       float64     `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	PaymentRef        string      `json:"payment_ref,omitempty" gorm:"type:varchar(100)"`
	PaymentReceiptURL string      `json:"payment_receipt_url,omitempty" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User  User        `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one product line of an order. UnitPrice is the catalog price
// at order time; later price changes never touch existing orders.
type OrderItem struct {
	ID        uint    `json:"id"         gorm:"primaryKey"`
	OrderID   uint    `json:"order_id"   gorm:"not null;index"`
	ProductID uint    `json:"product_id" gorm:"not null;index"`
	Quantity  int     `json:"quantity"   gorm:"not null;check:quantity >= 1"`
	UnitPrice float64 `json:"unit_price" gorm:"type:decimal(10,2);not null"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Message is one append-only transcript entry for a customer conversation.
// Entries are never edited; clear-history removes all rows for a phone.
//
// Role is "customer" or "assistant".
type Message struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserPhone string    `json:"user_phone" gorm:"type:varchar(50);not null;index:idx_phone_msgs,priority:1"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('customer','assistant')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_phone_msgs,priority:2"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// WebhookEvent records a processed inbound message ID so platform
// redeliveries of the same message are acknowledged without reprocessing.
// Rows expire after a TTL; expired rows are reclaimed on the next claim.
type WebhookEvent struct {
	ID         string    `json:"id"          gorm:"type:varchar(128);primaryKey"`
	ReceivedAt time.Time `json:"received_at" gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at"  gorm:"not null;index"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }
