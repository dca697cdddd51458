package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/cart"
)

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the local cart",
	}
	cmd.AddCommand(a.cartAddCmd(), a.cartSetCmd(), a.cartRemoveCmd(), a.cartListCmd(), a.cartClearCmd())
	return cmd
}

func (a *app) cartAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product, replacing the quantity of an existing line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			image, _ := flags.GetString("image")
			category, _ := flags.GetString("category")
			price, _ := flags.GetFloat64("price")
			qty, _ := flags.GetInt("qty")
			size, _ := flags.GetString("size")

			if price < 0 {
				return errors.New("--price must not be negative")
			}

			store, closeCart, err := a.openCart()
			if err != nil {
				return err
			}
			defer closeCart()

			store.Add(cart.Product{ID: args[0], Name: name, Image: image, Category: category, Price: price}, qty, size)
			return printCart(a.out, store)
		},
	}
	cmd.Flags().String("name", "", "Product name")
	cmd.Flags().String("image", "", "Product image URL")
	cmd.Flags().String("category", "", "Product category")
	cmd.Flags().Float64("price", 0, "Unit price")
	cmd.Flags().Int("qty", 1, "Quantity")
	cmd.Flags().String("size", "", "Size, empty when the product has none")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (a *app) cartSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change the quantity of a line. Below 1 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			size, _ := cmd.Flags().GetString("size")

			store, closeCart, err := a.openCart()
			if err != nil {
				return err
			}
			defer closeCart()

			store.UpdateQuantity(args[0], qty, size)
			return printCart(a.out, store)
		},
	}
	cmd.Flags().String("size", "", "Size of the line")
	return cmd
}

func (a *app) cartRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetString("size")

			store, closeCart, err := a.openCart()
			if err != nil {
				return err
			}
			defer closeCart()

			store.Remove(args[0], size)
			return printCart(a.out, store)
		},
	}
	cmd.Flags().String("size", "", "Size of the line")
	return cmd
}

func (a *app) cartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart with its price breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeCart, err := a.openCart()
			if err != nil {
				return err
			}
			defer closeCart()
			return printCart(a.out, store)
		},
	}
}

func (a *app) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeCart, err := a.openCart()
			if err != nil {
				return err
			}
			defer closeCart()

			store.Clear()
			fmt.Fprintln(a.out, "Cart cleared.")
			return nil
		},
	}
}

func printCart(out io.Writer, store *cart.Store) error {
	if store.IsEmpty() {
		_, err := fmt.Fprintln(out, "Your cart is empty.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tSIZE\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range store.Lines() {
		size := l.Size
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%.2f\n", l.ProductID, l.Name, size, l.Quantity, l.Price, l.Price*float64(l.Quantity))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	q := store.Quote()
	_, err := fmt.Fprintf(out, "\nItems: %d\nItems price: %.2f\nShipping:    %.2f\nTax:         %.2f\nTotal:       %.2f\n",
		store.Count(), q.ItemsPrice, q.ShippingPrice, q.TaxPrice, q.TotalPrice)
	return err
}
