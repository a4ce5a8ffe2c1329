package services

import (
	"context"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination           = domain.Pagination
	SortOrder            = domain.SortOrder
	Shop                 = domain.Shop
	OperatingHours       = domain.OperatingHours
	Customer             = domain.Customer
	CustomerLevel        = domain.CustomerLevel
	Product              = domain.Product
	ProductVariant       = domain.ProductVariant
	PriceLevel           = domain.PriceLevel
	Order                = domain.Order
	OrderItem            = domain.OrderItem
	OrderStatus          = domain.OrderStatus
	OrderPriority        = domain.OrderPriority
	StatusChange         = domain.StatusChange
	Payment              = domain.Payment
	PaymentStatus        = domain.PaymentStatus
	PaymentMethod        = domain.PaymentMethod
	Reminder             = domain.Reminder
	MessageTemplate      = domain.MessageTemplate
	ActivityLogEntry     = domain.ActivityLogEntry
	PricingBreakdown     = domain.PricingBreakdown
	ItemPricingBreakdown = domain.ItemPricingBreakdown
	DashboardStats       = domain.DashboardStats
	DailyRevenuePoint    = domain.DailyRevenuePoint
	ProductSales         = domain.ProductSales
	SystemHealthReport   = domain.SystemHealthReport
)

// OrderService encapsulates the order lifecycle: creation with customer and
// price snapshots, field edits, line replacement, the status machine, manual
// payments, and hard deletion with cascades.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	Get(ctx context.Context, query OrderQuery, opts OrderReadOptions) (Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	UpdateFields(ctx context.Context, cmd UpdateOrderFieldsCommand) (Order, error)
	ReplaceItems(ctx context.Context, cmd ReplaceOrderItemsCommand) (Order, error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (Order, error)
	Delete(ctx context.Context, cmd DeleteOrderCommand) error
	StatusHistory(ctx context.Context, query OrderQuery) ([]StatusChange, error)
	Payments(ctx context.Context, query OrderQuery) ([]Payment, error)
}

// CustomerService manages the shop's buyer book.
type CustomerService interface {
	Create(ctx context.Context, cmd UpsertCustomerCommand) (Customer, error)
	Update(ctx context.Context, cmd UpsertCustomerCommand) (Customer, error)
	Delete(ctx context.Context, shopID string, customerID string, actor string) error
	Get(ctx context.Context, shopID string, customerID string) (Customer, error)
	List(ctx context.Context, filter CustomerListFilter) (domain.CursorPage[Customer], error)
}

// CatalogService manages products with variants and per-tier prices, and
// resolves the unit price an order line should snapshot.
type CatalogService interface {
	Create(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	Update(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	Delete(ctx context.Context, shopID string, productID string, actor string) error
	Get(ctx context.Context, shopID string, productID string) (Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
	UnitPriceFor(ctx context.Context, query UnitPriceQuery) (ResolvedPrice, error)
}

// ShopService manages tenant settings.
type ShopService interface {
	Create(ctx context.Context, cmd UpsertShopCommand) (Shop, error)
	Update(ctx context.Context, cmd UpsertShopCommand) (Shop, error)
	Get(ctx context.Context, shopID string) (Shop, error)
}

// ReminderService tracks follow-ups tied to orders.
type ReminderService interface {
	Create(ctx context.Context, cmd CreateReminderCommand) (Reminder, error)
	MarkDone(ctx context.Context, shopID string, reminderID string, actor string) (Reminder, error)
	Get(ctx context.Context, shopID string, reminderID string) (Reminder, error)
	ListDue(ctx context.Context, cmd ListDueRemindersCommand) (domain.CursorPage[Reminder], error)
}

// TemplateService manages WhatsApp message templates and renders them against
// an order, producing the message body and a ready-to-send wa.me link.
type TemplateService interface {
	Create(ctx context.Context, cmd UpsertTemplateCommand) (MessageTemplate, error)
	Update(ctx context.Context, cmd UpsertTemplateCommand) (MessageTemplate, error)
	Delete(ctx context.Context, shopID string, templateID string, actor string) error
	Get(ctx context.Context, shopID string, templateID string) (MessageTemplate, error)
	List(ctx context.Context, shopID string, pager Pagination) (domain.CursorPage[MessageTemplate], error)
	RenderForOrder(ctx context.Context, cmd RenderTemplateCommand) (RenderedMessage, error)
	AutoReply(ctx context.Context, shopID string, at time.Time) (AutoReplyResult, error)
}

// ActivityLogService is the side channel every mutation writes to. Record
// outside a transaction never fails the caller; inside one it shares the
// transaction's fate.
type ActivityLogService interface {
	Record(ctx context.Context, record ActivityRecord)
	RecordInTx(ctx context.Context, record ActivityRecord) error
	List(ctx context.Context, filter ActivityListFilter) (domain.CursorPage[ActivityLogEntry], error)
}

// ReportingService aggregates read-only views over orders.
type ReportingService interface {
	Dashboard(ctx context.Context, shopID string) (DashboardStats, error)
	OrdersByStatus(ctx context.Context, shopID string, status OrderStatus, pager Pagination) (domain.CursorPage[Order], error)
	DailyRevenue(ctx context.Context, shopID string, day time.Time) (DailyRevenuePoint, error)
	RevenueSeries(ctx context.Context, shopID string, days int) ([]DailyRevenuePoint, error)
	TopProducts(ctx context.Context, cmd TopProductsQuery) ([]ProductSales, error)
}

// SystemService aggregates utility endpoints (health checks, counters).
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	NextCounterValue(ctx context.Context, cmd CounterCommand) (int64, error)
}

// Command and DTO definitions ------------------------------------------------

// OrderQuery addresses one order inside a shop.
type OrderQuery struct {
	ShopID  string
	OrderID string
}

type OrderReadOptions struct {
	IncludeItems bool
}

type OrderListFilter = repositories.OrderListFilter

type CustomerListFilter = repositories.CustomerListFilter

type ProductListFilter = repositories.ProductListFilter

// OrderItemInput describes one requested line. UnitPriceOverride skips the
// catalog lookup; otherwise the price resolves from the variant and the
// customer's tier at creation time.
type OrderItemInput struct {
	ProductID         string
	VariantID         string
	Quantity          int64
	UnitPriceOverride *int64
}

// CreateOrderCommand describes a new order. CustomerID is optional: walk-in
// buyers are identified by the contact fields alone.
type CreateOrderCommand struct {
	ShopID          string
	CustomerID      string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []OrderItemInput
	ShippingCost    int64
	Discount        int64
	PaymentMethod   PaymentMethod
	Priority        OrderPriority
	Notes           string
	Actor           string
}

type UpdateOrderFieldsCommand struct {
	ShopID          string
	OrderID         string
	CustomerName    *string
	CustomerPhone   *string
	CustomerAddress *string
	ShippingCost    *int64
	Discount        *int64
	PaymentMethod   *PaymentMethod
	PaymentStatus   *PaymentStatus
	Priority        *OrderPriority
	Notes           *string
	Actor           string
}

type ReplaceOrderItemsCommand struct {
	ShopID  string
	OrderID string
	Items   []OrderItemInput
	Actor   string
}

type OrderStatusTransitionCommand struct {
	ShopID       string
	OrderID      string
	TargetStatus OrderStatus
	Note         string
	Actor        string
}

type RecordPaymentCommand struct {
	ShopID    string
	OrderID   string
	Amount    int64
	Method    PaymentMethod
	Reference string
	Note      string
	PaidAt    *time.Time
	Actor     string
}

type DeleteOrderCommand struct {
	ShopID  string
	OrderID string
	Actor   string
}

type UpsertCustomerCommand struct {
	ShopID     string
	CustomerID string
	Name       string
	Phone      string
	Address    string
	Level      CustomerLevel
	Notes      string
	Actor      string
}

// VariantInput carries a variant definition on product upserts.
type VariantInput struct {
	ID          string
	Name        string
	SKU         string
	BasePrice   int64
	Stock       int64
	PriceLevels []PriceLevel
}

type UpsertProductCommand struct {
	ShopID      string
	ProductID   string
	Name        string
	Description string
	Active      *bool
	Variants    []VariantInput
	Actor       string
}

// UnitPriceQuery resolves the price one unit of a variant costs a customer.
type UnitPriceQuery struct {
	ShopID        string
	ProductID     string
	VariantID     string
	CustomerLevel CustomerLevel
}

// ResolvedPrice is the catalog's answer to a UnitPriceQuery.
type ResolvedPrice struct {
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	UnitPrice   int64
}

type UpsertShopCommand struct {
	ShopID           string
	Name             string
	Phone            string
	Address          string
	OperatingHours   OperatingHours
	AutoReplyMessage string
	Actor            string
}

type CreateReminderCommand struct {
	ShopID     string
	OrderID    string
	CustomerID string
	Message    string
	DueAt      time.Time
	Actor      string
}

type ListDueRemindersCommand struct {
	ShopID     string
	Before     time.Time
	Pagination Pagination
}

type UpsertTemplateCommand struct {
	ShopID     string
	TemplateID string
	Name       string
	Body       string
	Actor      string
}

type RenderTemplateCommand struct {
	ShopID     string
	TemplateID string
	OrderID    string
}

// RenderedMessage is a template applied to an order: the final body and a
// wa.me link targeting the order's customer.
type RenderedMessage struct {
	Body         string
	WhatsAppLink string
}

// AutoReplyResult reports whether the shop is inside operating hours at the
// probed instant and the reply body to send when it is not.
type AutoReplyResult struct {
	OutsideHours bool
	Message      string
}

type ActivityRecord struct {
	ShopID     string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Details    string
}

type ActivityListFilter = repositories.ActivityLogFilter

type TopProductsQuery struct {
	ShopID string
	Since  *time.Time
	Limit  int
}

type CounterCommand struct {
	ShopID string
	Name   string
	Step   int64
}
