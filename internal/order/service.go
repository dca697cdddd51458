package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/auth"
	"github.com/vasiliy-maslov/velora/internal/pricing"
	"github.com/vasiliy-maslov/velora/internal/user"
)

const (
	defaultPaymentID     = "Manual"
	defaultPaymentStatus = "Completed"
	// FallbackPaymentEmail is recorded when neither the payer nor the owner has an email.
	FallbackPaymentEmail = "customer@velora.local"

	defaultNotifyTimeout = 10 * time.Second
)

// Notifier is told about every newly placed order.
type Notifier interface {
	OrderPlaced(ctx context.Context, c Confirmation) error
}

// OwnerLookup resolves the user an order belongs to.
type OwnerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service interface {
	CreateOrder(ctx context.Context, caller auth.Identity, in CreateOrderInput) (o *Order, created bool, err error)
	GetOrderByID(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	MarkPaid(ctx context.Context, caller auth.Identity, id uuid.UUID, details PaymentDetails) (*Order, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (*Order, error)
	Track(ctx context.Context, id, email string) (*TrackingView, error)
}

type Option func(*service)

// WithClock overrides the time source used for createdAt, paidAt and deliveredAt.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *service) { s.notifyTimeout = d }
}

type service struct {
	orderRepo     Repository
	owners        OwnerLookup
	notifier      Notifier
	now           func() time.Time
	notifyTimeout time.Duration
}

// NewService wires the order service. owners and notifier may be nil.
func NewService(orderRepo Repository, owners OwnerLookup, notifier Notifier, opts ...Option) Service {
	s := &service{
		orderRepo:     orderRepo,
		owners:        owners,
		notifier:      notifier,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder reports created=false when an earlier submission with the same
// idempotency key already produced the returned order.
func (s *service) CreateOrder(ctx context.Context, caller auth.Identity, in CreateOrderInput) (*Order, bool, error) {
	if caller.UserID == uuid.Nil {
		return nil, false, ErrForbidden
	}

	address := normalizeAddress(in.ShippingAddress)
	if address.Email == "" {
		address.Email = caller.Email
	}
	in.ShippingAddress = address

	if err := validateInput(in); err != nil {
		log.Warn().Err(err).Stringer("user_id", caller.UserID).Msg("service: rejected order input")
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.orderRepo.GetOrderByIdempotencyKey(ctx, caller.UserID, in.IdempotencyKey)
		switch {
		case err == nil:
			log.Info().Stringer("order_id", existing.ID).Stringer("user_id", caller.UserID).Msg("service: returning order for repeated submission")
			existing.User = ownerFromIdentity(caller)
			return existing, false, nil
		case !errors.Is(err, ErrOrderNotFound):
			log.Error().Err(err).Stringer("user_id", caller.UserID).Msg("service: failed to look up idempotency key")
			return nil, false, fmt.Errorf("service: failed to look up idempotency key: %w", err)
		}
	}

	items := make([]OrderItem, len(in.OrderItems))
	copy(items, in.OrderItems)

	o := &Order{
		User:            Owner{ID: caller.UserID},
		OrderItems:      items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      in.ItemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TaxPrice:        in.TaxPrice,
		TotalPrice:      in.TotalPrice,
		IdempotencyKey:  in.IdempotencyKey,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.orderRepo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			// A concurrent submission with the same key won the insert.
			existing, getErr := s.orderRepo.GetOrderByIdempotencyKey(ctx, caller.UserID, in.IdempotencyKey)
			if getErr != nil {
				return nil, false, fmt.Errorf("service: failed to load order for idempotency key: %w", getErr)
			}
			existing.User = ownerFromIdentity(caller)
			return existing, false, nil
		}
		log.Error().Err(err).Stringer("user_id", caller.UserID).Msg("service: failed to create order in repository")
		return nil, false, fmt.Errorf("service: failed to create order: %w", err)
	}

	o.User = ownerFromIdentity(caller)
	log.Info().Stringer("order_id", o.ID).Stringer("user_id", caller.UserID).Float64("total_price", o.TotalPrice).Msg("service: order created")

	s.notifyPlaced(o)
	return o, true, nil
}

func (s *service) GetOrderByID(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.CanAccess(o.User.ID) {
		log.Warn().Stringer("order_id", id).Stringer("user_id", caller.UserID).Msg("service: caller may not read order")
		return nil, ErrForbidden
	}

	s.attachOwner(ctx, o, nil)
	return o, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	s.attachOwners(ctx, orders)
	return orders, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	s.attachOwners(ctx, orders)
	return orders, nil
}

func (s *service) MarkPaid(ctx context.Context, caller auth.Identity, id uuid.UUID, details PaymentDetails) (*Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.CanAccess(o.User.ID) {
		log.Warn().Stringer("order_id", id).Stringer("user_id", caller.UserID).Msg("service: caller may not pay order")
		return nil, ErrForbidden
	}
	if o.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if !canTransition(o, StatusPaid) {
		log.Warn().Stringer("order_id", id).Stringer("status", o.Status()).Msg("service: invalid transition to paid")
		return nil, ErrInvalidStatusTransition
	}

	if caller.Owns(o.User.ID) {
		o.User = ownerFromIdentity(caller)
	} else {
		s.attachOwner(ctx, o, nil)
	}

	now := s.now().UTC()
	result := PaymentResult{
		ID:           firstNonEmpty(details.ID, defaultPaymentID),
		Status:       firstNonEmpty(details.Status, defaultPaymentStatus),
		UpdateTime:   firstNonEmpty(details.UpdateTime, now.Format(time.RFC3339)),
		EmailAddress: firstNonEmpty(details.EmailAddress, o.User.Email, FallbackPaymentEmail),
	}

	if err := s.orderRepo.MarkPaid(ctx, id, now, result); err != nil {
		if errors.Is(err, ErrAlreadyPaid) || errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to mark order paid")
		return nil, fmt.Errorf("service: failed to mark order paid: %w", err)
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &result
	o.UpdatedAt = now

	log.Info().Stringer("order_id", id).Stringer("status", StatusPaid).Msg("service: order paid")
	return o, nil
}

func (s *service) MarkDelivered(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.IsDelivered {
		return nil, ErrAlreadyDelivered
	}
	if !canTransition(o, StatusDelivered) {
		log.Warn().Stringer("order_id", id).Stringer("status", o.Status()).Msg("service: invalid transition to delivered")
		if !o.IsPaid {
			return nil, ErrNotPaid
		}
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	if err := s.orderRepo.MarkDelivered(ctx, id, now); err != nil {
		if errors.Is(err, ErrAlreadyDelivered) || errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to mark order delivered")
		return nil, fmt.Errorf("service: failed to mark order delivered: %w", err)
	}

	o.IsDelivered = true
	o.DeliveredAt = &now
	o.UpdatedAt = now

	s.attachOwner(ctx, o, nil)
	log.Info().Stringer("order_id", id).Stringer("status", StatusDelivered).Msg("service: order delivered")
	return o, nil
}

func (s *service) Track(ctx context.Context, id, email string) (*TrackingView, error) {
	id = strings.TrimSpace(id)
	email = strings.TrimSpace(email)
	if id == "" || email == "" {
		return nil, ErrTrackingInput
	}

	orderID, err := uuid.FromString(id)
	if err != nil {
		return nil, ErrTrackingUnverified
	}

	o, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrTrackingUnverified
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order for tracking")
		return nil, fmt.Errorf("service: failed to fetch order for tracking: %w", err)
	}

	s.attachOwner(ctx, o, nil)
	if !strings.EqualFold(email, o.ShippingAddress.Email) && !strings.EqualFold(email, o.User.Email) {
		log.Info().Stringer("order_id", orderID).Msg("service: tracking email did not match")
		return nil, ErrTrackingUnverified
	}

	view := NewTrackingView(o)
	return &view, nil
}

func (s *service) getOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return o, nil
}

// attachOwner fills the owner's name and email. A failed lookup leaves only the id.
func (s *service) attachOwner(ctx context.Context, o *Order, cache map[uuid.UUID]Owner) {
	if s.owners == nil || o.User.ID == uuid.Nil {
		return
	}
	if owner, ok := cache[o.User.ID]; ok {
		o.User = owner
		return
	}

	u, err := s.owners.GetByID(ctx, o.User.ID)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", o.User.ID).Msg("service: failed to resolve order owner")
		return
	}
	o.User = Owner{ID: u.ID, Name: u.Name, Email: u.Email}
	if cache != nil {
		cache[o.User.ID] = o.User
	}
}

func (s *service) attachOwners(ctx context.Context, orders []Order) {
	cache := make(map[uuid.UUID]Owner)
	for i := range orders {
		s.attachOwner(ctx, &orders[i], cache)
	}
}

func (s *service) notifyPlaced(o *Order) {
	if s.notifier == nil {
		return
	}

	c := NewConfirmation(o)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.OrderPlaced(ctx, c); err != nil {
			log.Warn().Err(err).Stringer("order_id", c.OrderID).Msg("service: failed to send order confirmation")
		}
	}()
}

func validateInput(in CreateOrderInput) error {
	if len(in.OrderItems) == 0 {
		return validationError("order must contain at least one item")
	}

	lines := make([]pricing.Line, 0, len(in.OrderItems))
	for _, item := range in.OrderItems {
		if strings.TrimSpace(item.ProductID) == "" {
			return validationError("order item product id is required")
		}
		if item.Quantity < 1 {
			return validationError("order item quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.Price < 0 {
			return validationError("order item price for product %s cannot be negative", item.ProductID)
		}
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
	}

	if err := validateAddress(in.ShippingAddress); err != nil {
		return err
	}

	if !in.PaymentMethod.Valid() {
		return validationError("unsupported payment method %q", in.PaymentMethod)
	}

	for name, v := range map[string]float64{
		"itemsPrice":    in.ItemsPrice,
		"shippingPrice": in.ShippingPrice,
		"taxPrice":      in.TaxPrice,
		"totalPrice":    in.TotalPrice,
	} {
		if v < 0 {
			return validationError("%s cannot be negative", name)
		}
	}

	if !pricing.Equal(in.ItemsPrice, pricing.ItemsPrice(lines)) {
		return validationError("itemsPrice %.2f does not match the order items", in.ItemsPrice)
	}
	if !pricing.Consistent(pricing.Quote{
		ItemsPrice:    in.ItemsPrice,
		ShippingPrice: in.ShippingPrice,
		TaxPrice:      in.TaxPrice,
		TotalPrice:    in.TotalPrice,
	}) {
		return validationError("totalPrice %.2f does not equal items, shipping and tax", in.TotalPrice)
	}

	return nil
}

func validateAddress(a ShippingAddress) error {
	required := []struct {
		field string
		value string
	}{
		{"name", a.Name},
		{"email", a.Email},
		{"phone", a.Phone},
		{"gender", string(a.Gender)},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return validationError("shipping address %s is required", r.field)
		}
	}

	if !IsValidPhone(a.Phone) {
		return validationError("phone must be exactly 10 digits")
	}
	switch a.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return validationError("unsupported gender %q", a.Gender)
	}
	return nil
}

// IsValidPhone reports whether phone is exactly ten ASCII digits.
func IsValidPhone(phone string) bool {
	return IsDigits(phone, 10)
}

// IsDigits reports whether s is exactly n ASCII digits.
func IsDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeAddress(a ShippingAddress) ShippingAddress {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

func ownerFromIdentity(id auth.Identity) Owner {
	return Owner{ID: id.UserID, Name: id.Name, Email: id.Email}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
