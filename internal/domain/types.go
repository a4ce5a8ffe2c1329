package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// OperatingHours is a shop's daily open window in "HH:MM" local time.
type OperatingHours struct {
	Open  string
	Close string
}

// Shop is a tenant. Every other aggregate in the system is scoped to a shop.
type Shop struct {
	ID               string
	Name             string
	Phone            string
	Address          string
	OperatingHours   OperatingHours
	AutoReplyMessage string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CustomerLevel is the pricing tier a customer belongs to.
type CustomerLevel string

const (
	CustomerLevelRetail    CustomerLevel = "RETAIL"
	CustomerLevelReseller  CustomerLevel = "RESELLER"
	CustomerLevelWholesale CustomerLevel = "WHOLESALE"
)

// Customer is a shop-scoped buyer record. Orders copy the contact fields at
// creation time, so editing or deleting a customer never rewrites history.
type Customer struct {
	ID        string
	ShopID    string
	Name      string
	Phone     string
	Address   string
	Level     CustomerLevel
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceLevel overrides a variant's base price for one customer tier.
type PriceLevel struct {
	Level CustomerLevel
	Price int64
}

// ProductVariant is a sellable unit of a product. Prices are integer Rupiah.
type ProductVariant struct {
	ID          string
	Name        string
	SKU         string
	BasePrice   int64
	Stock       int64
	PriceLevels []PriceLevel
}

// Product groups variants under a shop's catalog.
type Product struct {
	ID          string
	ShopID      string
	Name        string
	Description string
	Active      bool
	Variants    []ProductVariant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPacked    OrderStatus = "PACKED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus tracks how much of the order total has been settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "UNPAID"
	PaymentStatusDownPayment PaymentStatus = "DOWN_PAYMENT"
	PaymentStatusPaid        PaymentStatus = "PAID"
)

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodQRIS     PaymentMethod = "QRIS"
	PaymentMethodCOD      PaymentMethod = "COD"
)

// OrderPriority flags orders that need attention first.
type OrderPriority string

const (
	OrderPriorityNormal OrderPriority = "NORMAL"
	OrderPriorityUrgent OrderPriority = "URGENT"
)

// OrderItem is a priced line on an order. ProductName and VariantName are
// snapshots; the catalog can change without affecting past orders.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	UnitPrice   int64
	Quantity    int64
	Subtotal    int64
}

// Order is the core aggregate. All monetary fields are integer Rupiah.
// Total is stored exactly as computed; a discount larger than the goods value
// produces a negative total and that is intentional.
type Order struct {
	ID              string
	ShopID          string
	OrderNumber     string
	CustomerID      string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   PaymentMethod
	Priority        OrderPriority
	Items           []OrderItem
	Subtotal        int64
	ShippingCost    int64
	Discount        int64
	Total           int64
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusChange is one entry in an order's append-only status ledger.
// FromStatus is empty on the seed entry written at order creation.
type StatusChange struct {
	ID         string
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Actor      string
	Note       string
	CreatedAt  time.Time
}

// ActivityLogEntry records who did what to which entity. The log is a side
// channel: mutations write it but never read it back.
type ActivityLogEntry struct {
	ID         string
	ShopID     string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	CreatedAt  time.Time
}

// Payment is a manual settlement record against an order.
type Payment struct {
	ID        string
	ShopID    string
	OrderID   string
	Amount    int64
	Method    PaymentMethod
	Reference string
	Note      string
	PaidAt    time.Time
	CreatedAt time.Time
}

// Reminder is a follow-up note tied to an order, due at a point in time.
type Reminder struct {
	ID         string
	ShopID     string
	OrderID    string
	CustomerID string
	Message    string
	DueAt      time.Time
	Done       bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MessageTemplate is a reusable WhatsApp message body with {key} placeholders.
type MessageTemplate struct {
	ID        string
	ShopID    string
	Name      string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HealthStatus enumerates dependency states reported by readiness checks.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// SystemHealthCheck is the outcome of probing a single dependency.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport summarises dependency health for readiness probes.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}

// DashboardStats aggregates the numbers shown on a shop's dashboard.
type DashboardStats struct {
	TotalOrders     int64
	TotalRevenue    int64
	PendingPayments int64
	ActiveCustomers int64
}

// DailyRevenuePoint is one day of completed-order revenue.
type DailyRevenuePoint struct {
	Day     time.Time
	Revenue int64
	Orders  int64
}

// ProductSales ranks a product by quantity sold across order items.
type ProductSales struct {
	ProductName string
	Quantity    int64
	Revenue     int64
}
