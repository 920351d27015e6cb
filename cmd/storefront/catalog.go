package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every product",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				products, err := c.app.Products(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
				for _, p := range products {
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Price, p.Stock)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := c.app.Product(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n%s\n\nPrice: %.2f\n", p.Name, p.Description, p.Price)
				if p.InStock() {
					fmt.Fprintf(out, "Stock: %d\n", p.Stock)
				} else {
					fmt.Fprintln(out, "Out of stock")
				}
				if p.Image != "" {
					fmt.Fprintf(out, "Image: %s\n", c.app.ImageURL(p.Image))
				}
				return nil
			},
		},
	)
	return cmd
}
