package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	"github.com/sobri3195/WarungWA/internal/repositories"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract. All repositories share one provider, so a
// unit of work started through RunInTx spans every repository in the bundle.
type Registry struct {
	provider *pfirestore.Provider

	shops         *ShopRepository
	customers     *CustomerRepository
	products      *ProductRepository
	orders        *OrderRepository
	orderItems    *OrderItemRepository
	statusHistory *StatusHistoryRepository
	payments      *PaymentRepository
	reminders     *ReminderRepository
	templates     *MessageTemplateRepository
	activityLogs  *ActivityLogRepository
	counters      *CounterRepository
	health        repositories.HealthRepository
	unitOfWork    *UnitOfWork
}

func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}

	reg := &Registry{provider: provider}
	var err error
	if reg.shops, err = NewShopRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.customers, err = NewCustomerRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.orderItems, err = NewOrderItemRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.statusHistory, err = NewStatusHistoryRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.payments, err = NewPaymentRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.reminders, err = NewReminderRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.templates, err = NewMessageTemplateRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.activityLogs, err = NewActivityLogRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.counters, err = NewCounterRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.unitOfWork, err = NewUnitOfWork(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	checks := []repositories.DependencyCheck{
		{Name: "firestore", Check: firestorePing(provider)},
		{Name: "counters", Check: countersPing(provider)},
	}
	if reg.health, err = repositories.NewDependencyHealthRepository(checks); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

// firestorePing verifies the client can be built and issues a keys-only read
// against the tenant collection.
func firestorePing(provider *pfirestore.Provider) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collection(shopsCollection).Select().Limit(1).Documents(ctx)
		defer iter.Stop()
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return err
		}
		return nil
	}
}

func countersPing(provider *pfirestore.Provider) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collection(countersCollection).Select().Limit(1).Documents(ctx)
		defer iter.Stop()
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return err
		}
		return nil
	}
}

func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) Shops() repositories.ShopRepository            { return r.shops }
func (r *Registry) Customers() repositories.CustomerRepository    { return r.customers }
func (r *Registry) Products() repositories.ProductRepository      { return r.products }
func (r *Registry) Orders() repositories.OrderRepository          { return r.orders }
func (r *Registry) OrderItems() repositories.OrderItemRepository  { return r.orderItems }
func (r *Registry) Payments() repositories.PaymentRepository      { return r.payments }
func (r *Registry) Reminders() repositories.ReminderRepository    { return r.reminders }
func (r *Registry) Counters() repositories.CounterRepository      { return r.counters }
func (r *Registry) Health() repositories.HealthRepository         { return r.health }
func (r *Registry) ActivityLogs() repositories.ActivityLogRepository {
	return r.activityLogs
}
func (r *Registry) StatusHistory() repositories.StatusHistoryRepository {
	return r.statusHistory
}
func (r *Registry) Templates() repositories.MessageTemplateRepository {
	return r.templates
}

func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.unitOfWork.RunInTx(ctx, fn)
}

var _ repositories.Registry = (*Registry)(nil)
