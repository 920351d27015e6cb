package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/storefront"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the cart",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd); err != nil {
				return err
			}
			return c.requireSession()
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart and its total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printCart(cmd)
		},
	}

	add := &cobra.Command{
		Use:   "add <id> [quantity]",
		Short: "Add a product, up to the stock available",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := optionalCount(args, 1)
			if err != nil {
				return err
			}
			added, err := c.app.AddToCart(cmd.Context(), args[0], qty)
			if err != nil {
				return err
			}
			if added < qty {
				fmt.Fprintf(cmd.OutOrStdout(), "Only %d unit(s) available, added %d.\n", added, added)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d unit(s).\n", added)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseCount(args[1])
			if err != nil {
				return err
			}
			if err := c.app.SetQuantity(args[0], qty); err != nil {
				return err
			}
			return c.printCart(cmd)
		},
	}

	step := func(use, short string, sign int) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id> [by]",
			Short: short,
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				by, err := optionalCount(args, 1)
				if err != nil {
					return err
				}
				q, err := c.app.ChangeQuantity(args[0], sign*by)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Quantity is now %d.\n", q)
				return nil
			},
		}
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.RemoveFromCart(args[0])
			return c.printCart(cmd)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.ClearCart()
			fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared.")
			return nil
		},
	}

	cmd.AddCommand(show, add, set,
		step("inc", "Increase a quantity, up to the stock", 1),
		step("dec", "Decrease a quantity, never below one", -1),
		remove, clearCmd)
	return cmd
}

func (c *cli) printCart(cmd *cobra.Command) error {
	s := c.app.CartSummary()
	out := cmd.OutOrStdout()
	if len(s.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range s.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\n", l.ID, l.Name, l.Quantity, l.Price, l.Subtotal())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %.2f (%d unit(s))\n", s.Total, s.Units)
	return nil
}

func (c *cli) checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			total := c.app.CartSummary().Total
			resp, err := c.app.Checkout(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			if resp.OrderID != "" {
				fmt.Fprintf(out, "Order %s, total %.2f.\n", resp.OrderID, resp.Total)
			} else {
				fmt.Fprintf(out, "Total %.2f.\n", total)
			}
			return nil
		},
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &storefront.ValidationError{Field: "quantity", Reason: "must be a whole number of at least 1"}
	}
	return n, nil
}

func optionalCount(args []string, def int) (int, error) {
	if len(args) < 2 {
		return def, nil
	}
	return parseCount(args[1])
}
