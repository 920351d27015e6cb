package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the account profile",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd); err != nil {
				return err
			}
			return c.requireSession()
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Profile(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), u)
			return nil
		},
	}

	var edit domain.User
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; unset flags keep their current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			current, err := c.app.Profile(ctx)
			if err != nil {
				return err
			}
			edited := current
			for _, fld := range []struct {
				flag     string
				dst, src *string
			}{
				{"name", &edited.Name, &edit.Name},
				{"email", &edited.Email, &edit.Email},
				{"street", &edited.Address.Street, &edit.Address.Street},
				{"city", &edited.Address.City, &edit.Address.City},
				{"department", &edited.Address.Department, &edit.Address.Department},
				{"description", &edited.Address.Description, &edit.Address.Description},
			} {
				if cmd.Flags().Changed(fld.flag) {
					*fld.dst = *fld.src
				}
			}
			u, err := c.app.UpdateProfile(ctx, current, edited)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated.")
			printProfile(cmd.OutOrStdout(), u)
			return nil
		},
	}
	f := update.Flags()
	f.StringVar(&edit.Name, "name", "", "full name")
	f.StringVar(&edit.Email, "email", "", "email")
	f.StringVar(&edit.Address.Street, "street", "", "street address")
	f.StringVar(&edit.Address.City, "city", "", "city")
	f.StringVar(&edit.Address.Department, "department", "", "department")
	f.StringVar(&edit.Address.Description, "description", "", "delivery notes")

	cmd.AddCommand(show, update)
	return cmd
}

func printProfile(w io.Writer, u domain.User) {
	fmt.Fprintf(w, "Name:        %s\n", u.Name)
	fmt.Fprintf(w, "Email:       %s\n", u.Email)
	fmt.Fprintf(w, "Street:      %s\n", u.Address.Street)
	fmt.Fprintf(w, "City:        %s\n", u.Address.City)
	fmt.Fprintf(w, "Department:  %s\n", u.Address.Department)
	fmt.Fprintf(w, "Description: %s\n", u.Address.Description)
}
