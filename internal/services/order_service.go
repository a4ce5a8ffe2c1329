package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const (
	orderActionCreated       = "order.created"
	orderActionUpdated       = "order.updated"
	orderActionItemsReplaced = "order.items.replaced"
	orderActionStatusChanged = "order.status.changed"
	orderActionPaymentAdded  = "order.payment.recorded"
	orderActionDeleted       = "order.deleted"

	orderEntityType = "order"

	defaultOrderNumberPrefix = "WA"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates duplicate inserts or concurrent updates.
	ErrOrderConflict = errors.New("order: conflict")
)

// orderStateTransitions is the adjacency list of the fulfillment machine.
// CANCELLED absorbs every non-terminal state; COMPLETED and CANCELLED are
// terminal.
var orderStateTransitions = map[string][]string{
	string(domain.OrderStatusNew):       {string(domain.OrderStatusConfirmed), string(domain.OrderStatusCancelled)},
	string(domain.OrderStatusConfirmed): {string(domain.OrderStatusPacked), string(domain.OrderStatusCancelled)},
	string(domain.OrderStatusPacked):    {string(domain.OrderStatusShipped), string(domain.OrderStatusCancelled)},
	string(domain.OrderStatusShipped):   {string(domain.OrderStatusCompleted), string(domain.OrderStatusCancelled)},
}

var knownOrderStatuses = []string{
	string(domain.OrderStatusNew),
	string(domain.OrderStatusConfirmed),
	string(domain.OrderStatusPacked),
	string(domain.OrderStatusShipped),
	string(domain.OrderStatusCompleted),
	string(domain.OrderStatusCancelled),
}

var paymentStatuses = []string{
	string(domain.PaymentStatusUnpaid),
	string(domain.PaymentStatusDownPayment),
	string(domain.PaymentStatusPaid),
}

// editableStatuses are the states in which order fields and lines may still
// change.
var editableStatuses = []string{
	string(domain.OrderStatusNew),
	string(domain.OrderStatusConfirmed),
	string(domain.OrderStatusPacked),
	string(domain.OrderStatusShipped),
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders            repositories.OrderRepository
	Items             repositories.OrderItemRepository
	History           repositories.StatusHistoryRepository
	Payments          repositories.PaymentRepository
	Customers         repositories.CustomerRepository
	Counters          repositories.CounterRepository
	Catalog           CatalogService
	Activity          ActivityLogService
	UnitOfWork        repositories.UnitOfWork
	Clock             func() time.Time
	IDGenerator       func() string
	OrderNumberPrefix string
}

type orderService struct {
	orders       repositories.OrderRepository
	items        repositories.OrderItemRepository
	history      repositories.StatusHistoryRepository
	payments     repositories.PaymentRepository
	customers    repositories.CustomerRepository
	counters     repositories.CounterRepository
	catalog      CatalogService
	activity     ActivityLogService
	unitOfWork   repositories.UnitOfWork
	clock        func() time.Time
	newID        func() string
	numberPrefix string
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Items == nil {
		return nil, errors.New("order service: order item repository is required")
	}
	if deps.History == nil {
		return nil, errors.New("order service: status history repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("order service: payment repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("order service: customer repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog service is required")
	}
	if deps.Activity == nil {
		return nil, errors.New("order service: activity log service is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	prefix := strings.TrimSpace(deps.OrderNumberPrefix)
	if prefix == "" {
		prefix = defaultOrderNumberPrefix
	}

	return &orderService{
		orders:     deps.Orders,
		items:      deps.Items,
		history:    deps.History,
		payments:   deps.Payments,
		customers:  deps.Customers,
		counters:   deps.Counters,
		catalog:    deps.Catalog,
		activity:   deps.Activity,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:        idGen,
		numberPrefix: prefix,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	customerID := strings.TrimSpace(cmd.CustomerID)
	snapshot := customerSnapshot{
		Name:    strings.TrimSpace(cmd.CustomerName),
		Phone:   strings.TrimSpace(cmd.CustomerPhone),
		Address: strings.TrimSpace(cmd.CustomerAddress),
	}
	if shopID == "" {
		return Order{}, fmt.Errorf("%w: shop id is required", ErrOrderInvalidInput)
	}
	if customerID == "" && snapshot.Name == "" && snapshot.Phone == "" && snapshot.Address == "" {
		return Order{}, fmt.Errorf("%w: a customer id or contact details are required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	if cmd.ShippingCost < 0 {
		return Order{}, fmt.Errorf("%w: shipping cost cannot be negative", ErrOrderInvalidInput)
	}
	if cmd.Discount < 0 {
		return Order{}, fmt.Errorf("%w: discount cannot be negative", ErrOrderInvalidInput)
	}

	// Walk-in buyers skip the customer book; the order carries the contact
	// details supplied by the caller and prices at the retail tier.
	level := domain.CustomerLevelRetail
	if customerID != "" {
		customer, err := s.customers.FindByID(ctx, shopID, customerID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				return Order{}, fmt.Errorf("%w: customer %q not found", ErrOrderNotFound, customerID)
			}
			return Order{}, s.mapRepositoryError(err)
		}
		level = customer.Level
		snapshot = customerSnapshot{
			Name:    customer.Name,
			Phone:   customer.Phone,
			Address: customer.Address,
		}
	}

	now := s.now()
	orderID := s.newID()

	items, err := s.buildItems(ctx, shopID, orderID, level, cmd.Items)
	if err != nil {
		return Order{}, err
	}
	pricing := priceOrder(items, cmd.ShippingCost, cmd.Discount)

	number, err := s.generateOrderNumber(ctx, shopID, now)
	if err != nil {
		return Order{}, err
	}

	priority := cmd.Priority
	if priority == "" {
		priority = domain.OrderPriorityNormal
	}

	order := Order{
		ID:              orderID,
		ShopID:          shopID,
		OrderNumber:     number,
		CustomerID:      customerID,
		CustomerName:    snapshot.Name,
		CustomerPhone:   snapshot.Phone,
		CustomerAddress: snapshot.Address,
		Status:          domain.OrderStatusNew,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		PaymentMethod:   cmd.PaymentMethod,
		Priority:        priority,
		Items:           items,
		Subtotal:        pricing.Subtotal,
		ShippingCost:    cmd.ShippingCost,
		Discount:        cmd.Discount,
		Total:           pricing.Total,
		Notes:           strings.TrimSpace(cmd.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	seed := StatusChange{
		ID:        s.newID(),
		OrderID:   orderID,
		ToStatus:  domain.OrderStatusNew,
		Actor:     strings.TrimSpace(cmd.Actor),
		CreatedAt: now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		// A fresh order has no existing lines, so the insert-only path keeps
		// the transaction free of reads after the buffered order write.
		if err := s.items.InsertForOrder(txCtx, shopID, orderID, items); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.history.Append(txCtx, shopID, seed); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionCreated,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s created", shortID(orderID)),
		})
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func (s *orderService) Get(ctx context.Context, query OrderQuery, opts OrderReadOptions) (Order, error) {
	shopID, orderID, err := s.requireOrderRef(query)
	if err != nil {
		return Order{}, err
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if opts.IncludeItems {
		items, err := s.items.ListByOrder(ctx, shopID, orderID)
		if err != nil {
			return Order{}, s.mapRepositoryError(err)
		}
		order.Items = items
	}

	return order, nil
}

func (s *orderService) List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return domain.CursorPage[Order]{}, fmt.Errorf("%w: shop id is required", ErrOrderInvalidInput)
	}
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// UpdateFields edits the order's editable fields. Status is never touched
// here; the status machine owns it. The total is recomputed from the stored
// subtotal and the effective shipping and discount, without clamping.
func (s *orderService) UpdateFields(ctx context.Context, cmd UpdateOrderFieldsCommand) (Order, error) {
	shopID, orderID, err := s.requireOrderRef(OrderQuery{ShopID: cmd.ShopID, OrderID: cmd.OrderID})
	if err != nil {
		return Order{}, err
	}
	if cmd.ShippingCost != nil && *cmd.ShippingCost < 0 {
		return Order{}, fmt.Errorf("%w: shipping cost cannot be negative", ErrOrderInvalidInput)
	}
	if cmd.Discount != nil && *cmd.Discount < 0 {
		return Order{}, fmt.Errorf("%w: discount cannot be negative", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !slices.Contains(editableStatuses, string(order.Status)) {
		return Order{}, fmt.Errorf("%w: order in status %s cannot be edited", ErrOrderInvalidState, order.Status)
	}

	if cmd.CustomerName != nil {
		order.CustomerName = strings.TrimSpace(*cmd.CustomerName)
	}
	if cmd.CustomerPhone != nil {
		order.CustomerPhone = strings.TrimSpace(*cmd.CustomerPhone)
	}
	if cmd.CustomerAddress != nil {
		order.CustomerAddress = strings.TrimSpace(*cmd.CustomerAddress)
	}
	if cmd.ShippingCost != nil {
		order.ShippingCost = *cmd.ShippingCost
	}
	if cmd.Discount != nil {
		order.Discount = *cmd.Discount
	}
	if cmd.PaymentMethod != nil {
		order.PaymentMethod = *cmd.PaymentMethod
	}
	if cmd.Priority != nil {
		order.Priority = *cmd.Priority
	}
	if cmd.Notes != nil {
		order.Notes = strings.TrimSpace(*cmd.Notes)
	}
	if cmd.PaymentStatus != nil && !slices.Contains(paymentStatuses, string(*cmd.PaymentStatus)) {
		return Order{}, fmt.Errorf("%w: unknown payment status %q", ErrOrderInvalidInput, *cmd.PaymentStatus)
	}

	order.Total = order.Subtotal + order.ShippingCost - order.Discount
	order.UpdatedAt = s.now()

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if cmd.PaymentStatus != nil {
			// An explicit payment status wins over the derived one until the
			// next payment lands.
			order.PaymentStatus = *cmd.PaymentStatus
		} else {
			paid, err := s.paidTotal(txCtx, shopID, orderID)
			if err != nil {
				return err
			}
			order.PaymentStatus = derivePaymentStatus(paid, order.Total)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionUpdated,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s updated", shortID(orderID)),
		})
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// ReplaceItems swaps the order's full line set, recomputing subtotal and
// total from the new lines.
func (s *orderService) ReplaceItems(ctx context.Context, cmd ReplaceOrderItemsCommand) (Order, error) {
	shopID, orderID, err := s.requireOrderRef(OrderQuery{ShopID: cmd.ShopID, OrderID: cmd.OrderID})
	if err != nil {
		return Order{}, err
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !slices.Contains(editableStatuses, string(order.Status)) {
		return Order{}, fmt.Errorf("%w: order in status %s cannot be edited", ErrOrderInvalidState, order.Status)
	}

	level := domain.CustomerLevelRetail
	if order.CustomerID != "" {
		if customer, err := s.customers.FindByID(ctx, shopID, order.CustomerID); err == nil {
			level = customer.Level
		}
	}

	items, err := s.buildItems(ctx, shopID, orderID, level, cmd.Items)
	if err != nil {
		return Order{}, err
	}
	pricing := priceOrder(items, order.ShippingCost, order.Discount)

	order.Items = items
	order.Subtotal = pricing.Subtotal
	order.Total = pricing.Total
	order.UpdatedAt = s.now()

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		paid, err := s.paidTotal(txCtx, shopID, orderID)
		if err != nil {
			return err
		}
		order.PaymentStatus = derivePaymentStatus(paid, order.Total)
		if err := s.items.ReplaceForOrder(txCtx, shopID, orderID, items); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionItemsReplaced,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s items replaced", shortID(orderID)),
		})
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	shopID, orderID, err := s.requireOrderRef(OrderQuery{ShopID: cmd.ShopID, OrderID: cmd.OrderID})
	if err != nil {
		return Order{}, err
	}
	target := strings.TrimSpace(string(cmd.TargetStatus))
	if target == "" {
		return Order{}, fmt.Errorf("%w: target status is required", ErrOrderInvalidInput)
	}
	if !slices.Contains(knownOrderStatuses, target) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	current := string(order.Status)
	if !canTransition(current, target) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidState, current, target)
	}

	now := s.now()
	order.Status = domain.OrderStatus(target)
	order.UpdatedAt = now

	change := StatusChange{
		ID:         s.newID(),
		OrderID:    orderID,
		FromStatus: domain.OrderStatus(current),
		ToStatus:   order.Status,
		Actor:      strings.TrimSpace(cmd.Actor),
		Note:       strings.TrimSpace(cmd.Note),
		CreatedAt:  now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.history.Append(txCtx, shopID, change); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionStatusChanged,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s moved %s -> %s", shortID(orderID), current, target),
		})
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// RecordPayment inserts a settlement record and re-derives the order's
// payment status from the sum of all recorded amounts against the total.
func (s *orderService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (Order, error) {
	shopID, orderID, err := s.requireOrderRef(OrderQuery{ShopID: cmd.ShopID, OrderID: cmd.OrderID})
	if err != nil {
		return Order{}, err
	}
	if cmd.Amount <= 0 {
		return Order{}, fmt.Errorf("%w: payment amount must be positive", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if order.Status == domain.OrderStatusCancelled {
		return Order{}, fmt.Errorf("%w: cancelled orders do not take payments", ErrOrderInvalidState)
	}

	now := s.now()
	paidAt := now
	if cmd.PaidAt != nil {
		paidAt = cmd.PaidAt.UTC()
	}

	payment := Payment{
		ID:        s.newID(),
		ShopID:    shopID,
		OrderID:   orderID,
		Amount:    cmd.Amount,
		Method:    cmd.Method,
		Reference: strings.TrimSpace(cmd.Reference),
		Note:      strings.TrimSpace(cmd.Note),
		PaidAt:    paidAt,
		CreatedAt: now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		paid, err := s.paidTotal(txCtx, shopID, orderID)
		if err != nil {
			return err
		}
		order.PaymentStatus = derivePaymentStatus(paid+cmd.Amount, order.Total)
		order.UpdatedAt = now
		if err := s.payments.Insert(txCtx, payment); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.orders.Update(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionPaymentAdded,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s payment of %d recorded", shortID(orderID), cmd.Amount),
		})
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// Delete removes the order and all of its child records. The closing
// activity entry is written in the same transaction and survives the
// cascade; the activity trail is never part of it.
func (s *orderService) Delete(ctx context.Context, cmd DeleteOrderCommand) error {
	shopID, orderID, err := s.requireOrderRef(OrderQuery{ShopID: cmd.ShopID, OrderID: cmd.OrderID})
	if err != nil {
		return err
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	return s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Delete(txCtx, shopID, orderID); err != nil {
			return s.mapRepositoryError(err)
		}
		return s.activity.RecordInTx(txCtx, ActivityRecord{
			ShopID:     shopID,
			Actor:      cmd.Actor,
			Action:     orderActionDeleted,
			EntityType: orderEntityType,
			EntityID:   orderID,
			Details:    fmt.Sprintf("Order %s (%s) deleted", shortID(orderID), order.OrderNumber),
		})
	})
}

func (s *orderService) StatusHistory(ctx context.Context, query OrderQuery) ([]StatusChange, error) {
	shopID, orderID, err := s.requireOrderRef(query)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.FindByID(ctx, shopID, orderID); err != nil {
		return nil, s.mapRepositoryError(err)
	}
	changes, err := s.history.ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	// Most recent change first, regardless of storage order.
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].CreatedAt.After(changes[j].CreatedAt)
	})
	return changes, nil
}

func (s *orderService) Payments(ctx context.Context, query OrderQuery) ([]Payment, error) {
	shopID, orderID, err := s.requireOrderRef(query)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.FindByID(ctx, shopID, orderID); err != nil {
		return nil, s.mapRepositoryError(err)
	}
	payments, err := s.payments.ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return payments, nil
}

// customerSnapshot is the contact block copied onto an order at creation.
type customerSnapshot struct {
	Name    string
	Phone   string
	Address string
}

// priceOrder totals an order's lines. Totals pass through unclamped: a
// discount larger than the goods value yields a negative total.
func priceOrder(items []OrderItem, shipping, discount int64) domain.PricingBreakdown {
	breakdown := domain.PricingBreakdown{
		Shipping: shipping,
		Discount: discount,
		Items:    make([]domain.ItemPricingBreakdown, 0, len(items)),
	}
	for _, item := range items {
		breakdown.Subtotal += item.Subtotal
		breakdown.Items = append(breakdown.Items, domain.ItemPricingBreakdown{
			ItemID:    item.ID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		})
	}
	breakdown.Total = breakdown.Subtotal + shipping - discount
	return breakdown
}

func (s *orderService) buildItems(ctx context.Context, shopID, orderID string, level CustomerLevel, inputs []OrderItemInput) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(inputs))
	for i, input := range inputs {
		productID := strings.TrimSpace(input.ProductID)
		if productID == "" {
			return nil, fmt.Errorf("%w: item %d is missing a product id", ErrOrderInvalidInput, i)
		}
		if input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrOrderInvalidInput, i)
		}

		price, err := s.catalog.UnitPriceFor(ctx, UnitPriceQuery{
			ShopID:        shopID,
			ProductID:     productID,
			VariantID:     strings.TrimSpace(input.VariantID),
			CustomerLevel: level,
		})
		if err != nil {
			if errors.Is(err, ErrCatalogNotFound) {
				return nil, fmt.Errorf("%w: item %d references unknown product or variant", ErrOrderInvalidInput, i)
			}
			return nil, err
		}

		unitPrice := price.UnitPrice
		if input.UnitPriceOverride != nil {
			if *input.UnitPriceOverride < 0 {
				return nil, fmt.Errorf("%w: item %d unit price cannot be negative", ErrOrderInvalidInput, i)
			}
			unitPrice = *input.UnitPriceOverride
		}

		items = append(items, OrderItem{
			ID:          s.newID(),
			OrderID:     orderID,
			ProductID:   price.ProductID,
			VariantID:   price.VariantID,
			ProductName: price.ProductName,
			VariantName: price.VariantName,
			UnitPrice:   unitPrice,
			Quantity:    input.Quantity,
			Subtotal:    unitPrice * input.Quantity,
		})
	}
	return items, nil
}

// paidTotal sums the recorded payments for an order.
func (s *orderService) paidTotal(ctx context.Context, shopID, orderID string) (int64, error) {
	payments, err := s.payments.ListByOrder(ctx, shopID, orderID)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}
	var paid int64
	for _, p := range payments {
		paid += p.Amount
	}
	return paid, nil
}

func derivePaymentStatus(paid, total int64) domain.PaymentStatus {
	switch {
	case paid >= total && paid > 0:
		return domain.PaymentStatusPaid
	case paid > 0:
		return domain.PaymentStatusDownPayment
	default:
		return domain.PaymentStatusUnpaid
	}
}

func (s *orderService) requireOrderRef(query OrderQuery) (string, string, error) {
	shopID := strings.TrimSpace(query.ShopID)
	orderID := strings.TrimSpace(query.OrderID)
	if shopID == "" {
		return "", "", fmt.Errorf("%w: shop id is required", ErrOrderInvalidInput)
	}
	if orderID == "" {
		return "", "", fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	return shopID, orderID, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

// generateOrderNumber allocates the next sequence value outside the order
// transaction; the counter document has transactional semantics of its own.
func (s *orderService) generateOrderNumber(ctx context.Context, shopID string, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, fmt.Sprintf("%s-orders", shopID), 1)
	if err != nil {
		return "", s.mapRepositoryError(err)
	}
	return fmt.Sprintf("%s-%04d-%06d", s.numberPrefix, now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func canTransition(current, target string) bool {
	next, ok := orderStateTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
