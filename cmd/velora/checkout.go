package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vasiliy-maslov/velora/internal/checkout"
	"github.com/vasiliy-maslov/velora/internal/order"
)

func (a *app) checkoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Long: `Place an order for the current cart.

Address fields not given on the command line are filled from --pincode or
--lat/--lon lookups, and the name and email default to the configured
identity. Explicit flags always win over lookups.

A failed submission leaves the cart untouched. Nothing is retried by
default. Passing --retries N resubmits up to N times after a network
failure, reusing the same idempotency key so the order is never created
twice.`,
		RunE: a.runCheckout,
	}

	f := cmd.Flags()
	f.String("name", "", "Recipient name")
	f.String("email", "", "Contact email")
	f.String("phone", "", "10-digit phone number")
	f.String("gender", "", "Male, Female or Other")
	f.String("address", "", "Street address")
	f.String("city", "", "City")
	f.String("state", "", "State")
	f.String("postal-code", "", "Postal code")
	f.String("country", "", "Country (default India)")
	f.String("pincode", "", "Look up city and state from a 6-digit postal code")
	f.Float64("lat", 0, "Latitude for a reverse geocode lookup")
	f.Float64("lon", 0, "Longitude for a reverse geocode lookup")
	f.String("payment", string(order.PaymentUPI), "UPI, Card or 'Cash on Delivery'")
	f.Int("retries", 0, "Resubmit up to N times after a network failure (off by default)")
	return cmd
}

func (a *app) runCheckout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	store, closeCart, err := a.openCart()
	if err != nil {
		return err
	}
	defer closeCart()

	flow, err := checkout.New(store, checkout.Identity{Name: a.cfg.Name, Email: a.cfg.Email}, a.apiClient(), a.geoClient())
	if err != nil {
		return err
	}

	if flags.Changed("lat") || flags.Changed("lon") {
		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		if err := flow.UseLocation(ctx, lat, lon); err != nil {
			return fmt.Errorf("location lookup failed: %w", err)
		}
	}
	if pincode, _ := flags.GetString("pincode"); pincode != "" {
		if err := flow.LookupPostalCode(ctx, pincode); err != nil {
			return fmt.Errorf("postal code lookup failed: %w", err)
		}
	}

	if err := flow.SetAddress(addressFromFlags(flags, flow.Address())); err != nil {
		return err
	}
	if err := flow.ContinueToPayment(); err != nil {
		return err
	}

	payment, _ := flags.GetString("payment")
	if err := flow.SelectPayment(order.PaymentMethod(payment)); err != nil {
		return err
	}

	q := flow.Quote()
	fmt.Fprintf(a.out, "Placing order: items %.2f + shipping %.2f + tax %.2f = %.2f (%s)\n",
		q.ItemsPrice, q.ShippingPrice, q.TaxPrice, q.TotalPrice, flow.PaymentMethod())

	retries, _ := flags.GetInt("retries")
	placed, err := placeWithRetry(cmd, flow, retries)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Order %s placed. Total %.2f.\n", placed.ID, placed.TotalPrice)
	return nil
}

func placeWithRetry(cmd *cobra.Command, flow *checkout.Flow, retries int) (*order.Order, error) {
	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		placed, err := flow.PlaceOrder(cmd.Context())
		if err == nil {
			return placed, nil
		}
		if !errors.Is(err, checkout.ErrNetwork) || attempt >= retries {
			return nil, err
		}

		log.Warn().Err(err).Int("attempt", attempt+1).Str("idempotency_key", flow.IdempotencyKey()).Msg("Order submission failed, retrying")
		select {
		case <-cmd.Context().Done():
			return nil, cmd.Context().Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func addressFromFlags(flags *pflag.FlagSet, a order.ShippingAddress) order.ShippingAddress {
	set := func(dst *string, name string) {
		if v, _ := flags.GetString(name); strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&a.Name, "name")
	set(&a.Email, "email")
	set(&a.Phone, "phone")
	set(&a.Address, "address")
	set(&a.City, "city")
	set(&a.State, "state")
	set(&a.PostalCode, "postal-code")
	set(&a.Country, "country")

	var gender string
	set(&gender, "gender")
	if gender != "" {
		a.Gender = order.Gender(gender)
	}
	return a
}
