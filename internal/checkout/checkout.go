// Package checkout drives a cart through the Address and Payment steps to a
// placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/cart"
	"github.com/vasiliy-maslov/velora/internal/client"
	"github.com/vasiliy-maslov/velora/internal/geo"
	"github.com/vasiliy-maslov/velora/internal/order"
	"github.com/vasiliy-maslov/velora/internal/pricing"
)

var (
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrInvalidPhone       = errors.New("checkout: phone must be exactly 10 digits")
	ErrIncompleteAddress  = errors.New("checkout: shipping address is incomplete")
	ErrInvalidPostalCode  = errors.New("checkout: postal code must be exactly 6 digits")
	ErrUnsupportedPayment = errors.New("checkout: unsupported payment method")
	ErrWrongStep          = errors.New("checkout: action not allowed at this step")
	ErrSubmitInFlight     = errors.New("checkout: order submission already in progress")
	ErrNetwork            = errors.New("checkout: network failure")
)

type Step int

const (
	StepAddress Step = iota
	StepPayment
	StepPlaced
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepPayment:
		return "payment"
	case StepPlaced:
		return "placed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type Cart interface {
	Lines() []cart.Line
	IsEmpty() bool
	Quote() pricing.Quote
	Clear()
}

type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req client.CreateOrderRequest, idempotencyKey string) (*order.Order, error)
}

type Geo interface {
	LookupPostalCode(ctx context.Context, code string) (geo.Place, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error)
}

// Identity is what the checkout knows about the signed-in shopper.
type Identity struct {
	Name  string
	Email string
}

// Flow is safe for concurrent use. Lookups and submission run without holding
// the lock so the caller can keep reading state while they are in flight.
type Flow struct {
	mu sync.Mutex

	cart     Cart
	identity Identity
	orders   OrderSubmitter
	geo      Geo

	step           Step
	address        order.ShippingAddress
	method         order.PaymentMethod
	idempotencyKey string
	submitting     bool
	placed         *order.Order
}

// New starts a checkout. An empty cart cannot be checked out.
func New(c Cart, identity Identity, orders OrderSubmitter, g Geo) (*Flow, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	key, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("checkout: failed to generate idempotency key: %w", err)
	}

	return &Flow{
		cart:     c,
		identity: identity,
		orders:   orders,
		geo:      g,
		step:     StepAddress,
		address: order.ShippingAddress{
			Name:    identity.Name,
			Email:   identity.Email,
			Country: order.DefaultCountry,
		},
		method:         order.PaymentUPI,
		idempotencyKey: key.String(),
	}, nil
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Address() order.ShippingAddress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

// SetAddress replaces the address form. A blank country falls back to the default.
func (f *Flow) SetAddress(a order.ShippingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAddress {
		return ErrWrongStep
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = order.DefaultCountry
	}
	f.address = a
	return nil
}

func (f *Flow) PaymentMethod() order.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

func (f *Flow) IdempotencyKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idempotencyKey
}

// Submitting reports whether PlaceOrder is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Placed returns the created order once the flow reached StepPlaced.
func (f *Flow) Placed() *order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placed
}

// UseLocation fills the address from coordinates. The step does not change.
func (f *Flow) UseLocation(ctx context.Context, lat, lon float64) error {
	if err := f.requireStep(StepAddress); err != nil {
		return err
	}

	place, err := f.geo.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return lookupError("reverse geocode", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	setIfPresent(&f.address.Address, place.Address)
	setIfPresent(&f.address.City, place.City)
	setIfPresent(&f.address.State, place.State)
	setIfPresent(&f.address.PostalCode, place.PostalCode)
	setIfPresent(&f.address.Country, place.Country)
	return nil
}

// LookupPostalCode fills city, state and country from a 6-digit postal code.
// A street address already entered is kept.
func (f *Flow) LookupPostalCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !order.IsDigits(code, 6) {
		return ErrInvalidPostalCode
	}
	if err := f.requireStep(StepAddress); err != nil {
		return err
	}

	place, err := f.geo.LookupPostalCode(ctx, code)
	if err != nil {
		return lookupError("postal code lookup", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.address.PostalCode = code
	setIfPresent(&f.address.City, place.City)
	setIfPresent(&f.address.State, place.State)
	setIfPresent(&f.address.Country, place.Country)
	if strings.TrimSpace(f.address.Address) == "" {
		setIfPresent(&f.address.Address, place.Address)
	}
	return nil
}

// ContinueToPayment validates the address and moves to the Payment step.
func (f *Flow) ContinueToPayment() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAddress {
		return ErrWrongStep
	}
	if !order.IsValidPhone(strings.TrimSpace(f.address.Phone)) {
		return ErrInvalidPhone
	}
	if missing := missingFields(f.address); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteAddress, strings.Join(missing, ", "))
	}

	f.step = StepPayment
	return nil
}

func (f *Flow) SelectPayment(method order.PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPayment, method)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return ErrWrongStep
	}
	f.method = method
	return nil
}

// Back returns from Payment to Address keeping everything entered so far.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepPayment || f.submitting {
		return ErrWrongStep
	}
	f.step = StepAddress
	return nil
}

// Quote prices the live cart.
func (f *Flow) Quote() pricing.Quote {
	return f.cart.Quote()
}

// PlaceOrder submits the order. On failure the flow stays on Payment with the
// cart intact, and a retry reuses the same idempotency key.
func (f *Flow) PlaceOrder(ctx context.Context) (*order.Order, error) {
	f.mu.Lock()
	if f.step != StepPayment {
		f.mu.Unlock()
		return nil, ErrWrongStep
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.cart.IsEmpty() {
		f.mu.Unlock()
		return nil, ErrEmptyCart
	}
	f.submitting = true
	req := f.buildRequestLocked()
	key := f.idempotencyKey
	f.mu.Unlock()

	created, err := f.orders.CreateOrder(ctx, req, key)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		log.Debug().Err(err).Str("idempotency_key", key).Msg("checkout: order submission failed")
		if errors.Is(err, client.ErrNetwork) {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, fmt.Errorf("checkout: failed to place order: %w", err)
	}

	f.cart.Clear()
	f.step = StepPlaced
	f.placed = created
	return created, nil
}

func (f *Flow) buildRequestLocked() client.CreateOrderRequest {
	lines := f.cart.Lines()
	items := make([]order.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Size:      l.Size,
		})
	}

	address := f.address
	if strings.TrimSpace(address.Email) == "" {
		address.Email = f.identity.Email
	}

	q := f.cart.Quote()
	return client.CreateOrderRequest{
		OrderItems:      items,
		ShippingAddress: address,
		PaymentMethod:   f.method,
		ItemsPrice:      q.ItemsPrice,
		ShippingPrice:   q.ShippingPrice,
		TaxPrice:        q.TaxPrice,
		TotalPrice:      q.TotalPrice,
	}
}

func (f *Flow) requireStep(s Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != s {
		return ErrWrongStep
	}
	return nil
}

func lookupError(what string, err error) error {
	if errors.Is(err, geo.ErrNetwork) {
		return fmt.Errorf("%w: %s: %w", ErrNetwork, what, err)
	}
	return fmt.Errorf("checkout: %s: %w", what, err)
}

func missingFields(a order.ShippingAddress) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"gender", string(a.Gender)},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"postal code", a.PostalCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
