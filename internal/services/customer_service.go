package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const (
	customerActionCreated = "customer.created"
	customerActionUpdated = "customer.updated"
	customerActionDeleted = "customer.deleted"

	customerEntityType = "customer"
)

var (
	// ErrCustomerInvalidInput signals the caller provided invalid data.
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
	// ErrCustomerNotFound indicates the customer could not be located.
	ErrCustomerNotFound = errors.New("customer: not found")
	// ErrCustomerConflict indicates duplicate inserts.
	ErrCustomerConflict = errors.New("customer: conflict")
)

var customerLevels = []domain.CustomerLevel{
	domain.CustomerLevelRetail,
	domain.CustomerLevelReseller,
	domain.CustomerLevelWholesale,
}

// CustomerServiceDeps bundles collaborators for the customer service.
type CustomerServiceDeps struct {
	Customers   repositories.CustomerRepository
	Activity    ActivityLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type customerService struct {
	customers repositories.CustomerRepository
	activity  ActivityLogService
	clock     func() time.Time
	newID     func() string
}

// NewCustomerService wires dependencies into a concrete CustomerService implementation.
func NewCustomerService(deps CustomerServiceDeps) (CustomerService, error) {
	if deps.Customers == nil {
		return nil, errors.New("customer service: customer repository is required")
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

	return &customerService{
		customers: deps.Customers,
		activity:  deps.Activity,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
	}, nil
}

func (s *customerService) Create(ctx context.Context, cmd UpsertCustomerCommand) (Customer, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return Customer{}, fmt.Errorf("%w: shop id is required", ErrCustomerInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Customer{}, fmt.Errorf("%w: customer name is required", ErrCustomerInvalidInput)
	}
	phone := strings.TrimSpace(cmd.Phone)
	if phone == "" {
		return Customer{}, fmt.Errorf("%w: customer phone is required", ErrCustomerInvalidInput)
	}

	level := cmd.Level
	if level == "" {
		level = domain.CustomerLevelRetail
	}
	if !slices.Contains(customerLevels, level) {
		return Customer{}, fmt.Errorf("%w: unknown customer level %q", ErrCustomerInvalidInput, level)
	}

	now := s.clock()
	customer := Customer{
		ID:        s.newID(),
		ShopID:    shopID,
		Name:      name,
		Phone:     phone,
		Address:   strings.TrimSpace(cmd.Address),
		Level:     level,
		Notes:     strings.TrimSpace(cmd.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.customers.Insert(ctx, customer); err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, customerActionCreated, customer.ID,
		fmt.Sprintf("Customer %q added", customer.Name))
	return customer, nil
}

// Update edits the customer record. Orders keep the contact snapshot taken at
// creation time, so this never rewrites order history.
func (s *customerService) Update(ctx context.Context, cmd UpsertCustomerCommand) (Customer, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	customerID := strings.TrimSpace(cmd.CustomerID)
	if shopID == "" || customerID == "" {
		return Customer{}, fmt.Errorf("%w: shop id and customer id are required", ErrCustomerInvalidInput)
	}

	customer, err := s.customers.FindByID(ctx, shopID, customerID)
	if err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		customer.Name = name
	}
	if phone := strings.TrimSpace(cmd.Phone); phone != "" {
		customer.Phone = phone
	}
	if cmd.Address != "" {
		customer.Address = strings.TrimSpace(cmd.Address)
	}
	if cmd.Notes != "" {
		customer.Notes = strings.TrimSpace(cmd.Notes)
	}
	if cmd.Level != "" {
		if !slices.Contains(customerLevels, cmd.Level) {
			return Customer{}, fmt.Errorf("%w: unknown customer level %q", ErrCustomerInvalidInput, cmd.Level)
		}
		customer.Level = cmd.Level
	}
	customer.UpdatedAt = s.clock()

	if err := s.customers.Update(ctx, customer); err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, customerActionUpdated, customer.ID,
		fmt.Sprintf("Customer %q updated", customer.Name))
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, shopID string, customerID string, actor string) error {
	shopID = strings.TrimSpace(shopID)
	customerID = strings.TrimSpace(customerID)
	if shopID == "" || customerID == "" {
		return fmt.Errorf("%w: shop id and customer id are required", ErrCustomerInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, shopID, customerID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.customers.Delete(ctx, shopID, customerID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.record(ctx, actor, shopID, customerActionDeleted, customerID,
		fmt.Sprintf("Customer %q deleted", customer.Name))
	return nil
}

func (s *customerService) Get(ctx context.Context, shopID string, customerID string) (Customer, error) {
	shopID = strings.TrimSpace(shopID)
	customerID = strings.TrimSpace(customerID)
	if shopID == "" || customerID == "" {
		return Customer{}, fmt.Errorf("%w: shop id and customer id are required", ErrCustomerInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, shopID, customerID)
	if err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, filter CustomerListFilter) (domain.CursorPage[Customer], error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return domain.CursorPage[Customer]{}, fmt.Errorf("%w: shop id is required", ErrCustomerInvalidInput)
	}
	page, err := s.customers.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Customer]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *customerService) record(ctx context.Context, actor, shopID, action, entityID, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ActivityRecord{
		ShopID:     shopID,
		Actor:      actor,
		Action:     action,
		EntityType: customerEntityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *customerService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCustomerNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCustomerConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("customer: repository unavailable: %w", err)
		}
	}
	return err
}
