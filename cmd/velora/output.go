package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/order"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", formatTable, "Output format: table, json or yaml")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case formatTable, formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// orderSummary is the flattened view used for table and yaml output.
type orderSummary struct {
	ID          string  `yaml:"id"`
	CreatedAt   string  `yaml:"createdAt"`
	Status      string  `yaml:"status"`
	Payment     string  `yaml:"paymentMethod"`
	Items       int     `yaml:"items"`
	Total       float64 `yaml:"total"`
	PaidAt      string  `yaml:"paidAt,omitempty"`
	DeliveredAt string  `yaml:"deliveredAt,omitempty"`
}

func summarize(o order.Order) orderSummary {
	items := 0
	for _, it := range o.OrderItems {
		items += it.Quantity
	}
	return orderSummary{
		ID:          o.ID.String(),
		CreatedAt:   o.CreatedAt.Format(time.DateTime),
		Status:      o.Status().String(),
		Payment:     o.PaymentMethod.String(),
		Items:       items,
		Total:       o.TotalPrice,
		PaidAt:      formatTime(o.PaidAt),
		DeliveredAt: formatTime(o.DeliveredAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateTime)
}

func writeOrders(out io.Writer, format string, orders []order.Order) error {
	switch format {
	case formatJSON:
		return writeJSON(out, orders)
	case formatYAML:
		rows := make([]orderSummary, 0, len(orders))
		for _, o := range orders {
			rows = append(rows, summarize(o))
		}
		return yaml.NewEncoder(out).Encode(rows)
	}

	if len(orders) == 0 {
		_, err := fmt.Fprintln(out, "No orders.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tPAYMENT\tITEMS\tTOTAL")
	for _, o := range orders {
		s := summarize(o)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\n", s.ID, s.CreatedAt, s.Status, s.Payment, s.Items, s.Total)
	}
	return tw.Flush()
}

func writeOrder(out io.Writer, format string, o *order.Order) error {
	switch format {
	case formatJSON:
		return writeJSON(out, o)
	case formatYAML:
		return yaml.NewEncoder(out).Encode(summarize(*o))
	}

	s := summarize(*o)
	a := o.ShippingAddress
	fmt.Fprintf(out, "Order %s\nPlaced:   %s\nStatus:   %s\nPayment:  %s\n", s.ID, s.CreatedAt, s.Status, s.Payment)
	if s.PaidAt != "" {
		fmt.Fprintf(out, "Paid at:  %s\n", s.PaidAt)
	}
	if s.DeliveredAt != "" {
		fmt.Fprintf(out, "Delivered at: %s\n", s.DeliveredAt)
	}
	fmt.Fprintf(out, "Ship to:  %s, %s, %s, %s %s, %s\n\n", a.Name, a.Address, a.City, a.State, a.PostalCode, a.Country)

	if err := writeItems(out, o.OrderItems); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nItems price: %.2f\nShipping:    %.2f\nTax:         %.2f\nTotal:       %.2f\n",
		o.ItemsPrice, o.ShippingPrice, o.TaxPrice, o.TotalPrice)
	return err
}

func writeTracking(out io.Writer, v *order.TrackingView) error {
	status := order.StatusCreated
	switch {
	case v.IsDelivered:
		status = order.StatusDelivered
	case v.IsPaid:
		status = order.StatusPaid
	}

	fmt.Fprintf(out, "Order %s\nPlaced:  %s\nStatus:  %s\n", v.ID, v.CreatedAt.Format(time.DateTime), status)
	if t := formatTime(v.PaidAt); t != "" {
		fmt.Fprintf(out, "Paid:    %s\n", t)
	}
	if t := formatTime(v.DeliveredAt); t != "" {
		fmt.Fprintf(out, "Delivered: %s\n", t)
	}
	fmt.Fprintln(out)
	if err := writeItems(out, v.OrderItems); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nTotal: %.2f\n", v.TotalPrice)
	return err
}

func writeItems(out io.Writer, items []order.OrderItem) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tSIZE\tQTY\tPRICE")
	for _, it := range items {
		size := it.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n", it.ProductID, it.Name, size, it.Quantity, it.Price)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
