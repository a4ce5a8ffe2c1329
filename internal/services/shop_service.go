package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sobri3195/WarungWA/internal/platform/whatsapp"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const (
	shopActionCreated = "shop.created"
	shopActionUpdated = "shop.updated"

	shopEntityType = "shop"
)

var (
	// ErrShopInvalidInput signals the caller provided invalid data.
	ErrShopInvalidInput = errors.New("shop: invalid input")
	// ErrShopNotFound indicates the shop could not be located.
	ErrShopNotFound = errors.New("shop: not found")
	// ErrShopConflict indicates the shop id is already taken.
	ErrShopConflict = errors.New("shop: conflict")
)

// ShopServiceDeps bundles collaborators for the shop service.
type ShopServiceDeps struct {
	Shops    repositories.ShopRepository
	Activity ActivityLogService
	Clock    func() time.Time
}

type shopService struct {
	shops    repositories.ShopRepository
	activity ActivityLogService
	clock    func() time.Time
}

// NewShopService wires dependencies into a concrete ShopService implementation.
func NewShopService(deps ShopServiceDeps) (ShopService, error) {
	if deps.Shops == nil {
		return nil, errors.New("shop service: shop repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &shopService{
		shops:    deps.Shops,
		activity: deps.Activity,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

func (s *shopService) Create(ctx context.Context, cmd UpsertShopCommand) (Shop, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return Shop{}, fmt.Errorf("%w: shop id is required", ErrShopInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Shop{}, fmt.Errorf("%w: shop name is required", ErrShopInvalidInput)
	}
	if err := validateOperatingHours(cmd.OperatingHours); err != nil {
		return Shop{}, err
	}

	now := s.clock()
	shop := Shop{
		ID:               shopID,
		Name:             name,
		Phone:            whatsapp.NormalizePhone(cmd.Phone),
		Address:          strings.TrimSpace(cmd.Address),
		OperatingHours:   cmd.OperatingHours,
		AutoReplyMessage: strings.TrimSpace(cmd.AutoReplyMessage),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.shops.Insert(ctx, shop); err != nil {
		return Shop{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, shopActionCreated, fmt.Sprintf("Shop %q registered", shop.Name))
	return shop, nil
}

func (s *shopService) Update(ctx context.Context, cmd UpsertShopCommand) (Shop, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return Shop{}, fmt.Errorf("%w: shop id is required", ErrShopInvalidInput)
	}

	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return Shop{}, s.mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		shop.Name = name
	}
	if phone := strings.TrimSpace(cmd.Phone); phone != "" {
		shop.Phone = whatsapp.NormalizePhone(phone)
	}
	if cmd.Address != "" {
		shop.Address = strings.TrimSpace(cmd.Address)
	}
	if cmd.OperatingHours.Open != "" || cmd.OperatingHours.Close != "" {
		if err := validateOperatingHours(cmd.OperatingHours); err != nil {
			return Shop{}, err
		}
		shop.OperatingHours = cmd.OperatingHours
	}
	if cmd.AutoReplyMessage != "" {
		shop.AutoReplyMessage = strings.TrimSpace(cmd.AutoReplyMessage)
	}
	shop.UpdatedAt = s.clock()

	if err := s.shops.Update(ctx, shop); err != nil {
		return Shop{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, shopActionUpdated, fmt.Sprintf("Shop %q settings updated", shop.Name))
	return shop, nil
}

func (s *shopService) Get(ctx context.Context, shopID string) (Shop, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return Shop{}, fmt.Errorf("%w: shop id is required", ErrShopInvalidInput)
	}
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return Shop{}, s.mapRepositoryError(err)
	}
	return shop, nil
}

func validateOperatingHours(hours OperatingHours) error {
	if hours.Open == "" && hours.Close == "" {
		return nil
	}
	if !whatsapp.ValidClock(hours.Open) || !whatsapp.ValidClock(hours.Close) {
		return fmt.Errorf("%w: operating hours must be HH:MM", ErrShopInvalidInput)
	}
	return nil
}

func (s *shopService) record(ctx context.Context, actor, shopID, action, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ActivityRecord{
		ShopID:     shopID,
		Actor:      actor,
		Action:     action,
		EntityType: shopEntityType,
		EntityID:   shopID,
		Details:    details,
	})
}

func (s *shopService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrShopNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrShopConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("shop: repository unavailable: %w", err)
		}
	}
	return err
}
