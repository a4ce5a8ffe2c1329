package repositories

import (
	"context"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Shops() ShopRepository
	Customers() CustomerRepository
	Products() ProductRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	StatusHistory() StatusHistoryRepository
	Payments() PaymentRepository
	Reminders() ReminderRepository
	Templates() MessageTemplateRepository
	ActivityLogs() ActivityLogRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ShopRepository stores tenant records and their settings.
type ShopRepository interface {
	Insert(ctx context.Context, shop domain.Shop) error
	Update(ctx context.Context, shop domain.Shop) error
	FindByID(ctx context.Context, shopID string) (domain.Shop, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Shop], error)
}

// CustomerRepository stores shop-scoped customer records.
type CustomerRepository interface {
	Insert(ctx context.Context, customer domain.Customer) error
	Update(ctx context.Context, customer domain.Customer) error
	Delete(ctx context.Context, shopID string, customerID string) error
	FindByID(ctx context.Context, shopID string, customerID string) (domain.Customer, error)
	List(ctx context.Context, filter CustomerListFilter) (domain.CursorPage[domain.Customer], error)
	CountActive(ctx context.Context, shopID string) (int64, error)
}

// ProductRepository stores catalog products with their variants and tier prices.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, shopID string, productID string) error
	FindByID(ctx context.Context, shopID string, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// OrderRepository persists order headers and provides shop-scoped query helpers.
// List returns orders newest-first. Delete removes the order together with its
// child documents (items, status history, payments, reminders) in one sweep;
// inside a transaction all child reads happen before the buffered deletes.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, shopID string, orderID string) error
	FindByID(ctx context.Context, shopID string, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
	ListAll(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// OrderItemRepository stores order lines underneath an order document.
// InsertForOrder is write-only so it stays usable inside a transaction that
// has already buffered writes; ReplaceForOrder reads the current set first
// and must therefore run before any write in the same transaction.
type OrderItemRepository interface {
	InsertForOrder(ctx context.Context, shopID string, orderID string, items []domain.OrderItem) error
	ReplaceForOrder(ctx context.Context, shopID string, orderID string, items []domain.OrderItem) error
	ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.OrderItem, error)
}

// StatusHistoryRepository owns the append-only status ledger per order.
type StatusHistoryRepository interface {
	Append(ctx context.Context, shopID string, change domain.StatusChange) error
	ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.StatusChange, error)
}

// PaymentRepository stores manual settlement records underneath an order.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) error
	ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.Payment, error)
}

// ReminderRepository stores follow-up reminders tied to orders.
type ReminderRepository interface {
	Insert(ctx context.Context, reminder domain.Reminder) error
	Update(ctx context.Context, reminder domain.Reminder) error
	FindByID(ctx context.Context, shopID string, reminderID string) (domain.Reminder, error)
	ListDue(ctx context.Context, shopID string, before time.Time, pager domain.Pagination) (domain.CursorPage[domain.Reminder], error)
	ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.Reminder, error)
}

// MessageTemplateRepository stores reusable WhatsApp message bodies.
type MessageTemplateRepository interface {
	Insert(ctx context.Context, template domain.MessageTemplate) error
	Update(ctx context.Context, template domain.MessageTemplate) error
	Delete(ctx context.Context, shopID string, templateID string) error
	FindByID(ctx context.Context, shopID string, templateID string) (domain.MessageTemplate, error)
	List(ctx context.Context, shopID string, pager domain.Pagination) (domain.CursorPage[domain.MessageTemplate], error)
}

// ActivityLogRepository persists immutable activity trail entries.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry domain.ActivityLogEntry) error
	List(ctx context.Context, filter ActivityLogFilter) (domain.CursorPage[domain.ActivityLogEntry], error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type CustomerListFilter struct {
	ShopID     string
	Level      []domain.CustomerLevel
	Search     string
	Pagination domain.Pagination
}

type ProductListFilter struct {
	ShopID     string
	ActiveOnly bool
	Pagination domain.Pagination
}

type OrderListFilter struct {
	ShopID        string
	Status        []domain.OrderStatus
	PaymentStatus []domain.PaymentStatus
	DateRange     domain.RangeQuery[time.Time]
	Pagination    domain.Pagination
}

type ActivityLogFilter struct {
	ShopID     string
	EntityType string
	EntityID   string
	Actor      string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
