package main

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/client"
)

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			orders, err := a.apiClient().MyOrders(cmd.Context())
			if err != nil {
				return err
			}
			return writeOrders(a.out, format, orders)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func (a *app) orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show or update a single order",
	}

	get := &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show an order you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			o, err := a.apiClient().GetOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOrder(a.out, format, o)
		},
	}
	addOutputFlag(get)

	pay := &cobra.Command{
		Use:   "pay <order-id>",
		Short: "Mark an order as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			var req client.PayRequest
			req.ID, _ = cmd.Flags().GetString("transaction-id")
			req.Status, _ = cmd.Flags().GetString("status")
			req.EmailAddress, _ = cmd.Flags().GetString("payer-email")

			o, err := a.apiClient().Pay(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s is %s.\n", o.ID, o.Status())
			return nil
		},
	}
	pay.Flags().String("transaction-id", "", "Payment reference")
	pay.Flags().String("status", "", "Payment status (default Completed)")
	pay.Flags().String("payer-email", "", "Payer email")

	cmd.AddCommand(get, pay)
	return cmd
}

func (a *app) trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <order-id> <email>",
		Short: "Check an order's status without signing in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := client.New(a.cfg.APIURL, "", a.cfg.Timeout).Track(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return writeTracking(a.out, view)
		},
	}
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin-only order operations",
	}

	list := &cobra.Command{
		Use:   "orders",
		Short: "List every order",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			orders, err := a.apiClient().ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			return writeOrders(a.out, format, orders)
		},
	}
	addOutputFlag(list)

	deliver := &cobra.Command{
		Use:   "deliver <order-id>",
		Short: "Mark an order as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			o, err := a.apiClient().Deliver(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s is %s.\n", o.ID, o.Status())
			return nil
		},
	}

	cmd.AddCommand(list, deliver)
	return cmd
}

func parseOrderID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}
