package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/contract"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and restore the saved cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", email)
			if n := c.app.Cart().Len(); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Your cart has %d item(s).\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the saved cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.SignOut(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !c.app.Session().Authenticated() {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			email, err := c.app.Session().Email(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Signed in as %s. Cart: %d unit(s).\n", email, c.app.Cart().TotalQuantity())
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var req contract.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := c.app.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. You can now sign in with \"storefront login\".\n", msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email")
	f.StringVar(&req.Password, "password", "", "password, at least 6 characters")
	f.StringVar(&req.Address.Street, "street", "", "street address")
	f.StringVar(&req.Address.City, "city", "", "city")
	f.StringVar(&req.Address.Department, "department", "", "department")
	f.StringVar(&req.Address.Description, "description", "", "delivery notes")
	return cmd
}

func (c *cli) passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a forgotten password",
	}

	var email string
	request := &cobra.Command{
		Use:   "request",
		Short: "Send a reset code to the account email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := c.app.RequestPasswordReset(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	request.Flags().StringVar(&email, "email", "", "account email")

	var resetEmail, code, newPassword string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the mailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := c.app.ResetPassword(cmd.Context(), resetEmail, code, newPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Sign in with your new password.\n", msg)
			return nil
		},
	}
	reset.Flags().StringVar(&resetEmail, "email", "", "account email")
	reset.Flags().StringVar(&code, "code", "", "6-digit reset code")
	reset.Flags().StringVar(&newPassword, "new-password", "", "new password")

	cmd.AddCommand(request, reset)
	return cmd
}
