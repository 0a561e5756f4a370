package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/domain/user"
)

func (c *cli) registerCmd() *cobra.Command {
	var in user.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in with email and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Users.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printf("Signed out\n")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, ok := c.app.Users.Current()
			if !ok {
				return user.ErrNotLoggedIn
			}
			return c.printUser(&me)
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in user's profile",
	}

	name := &cobra.Command{
		Use:   "name <first> <last>",
		Short: "Change first and last name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.UpdateProfile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}

	phone := &cobra.Command{
		Use:   "phone <number>",
		Short: "Change the phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.UpdatePhone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}

	avatar := &cobra.Command{
		Use:   "avatar <url>",
		Short: "Set the avatar to an image URL or data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.UpdateAvatar(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}

	var addr user.Address
	address := &cobra.Command{
		Use:   "address",
		Short: "Set the default delivery address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Users.UpdateAddress(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return c.printUser(u)
		},
	}
	address.Flags().StringVar(&addr.Street, "street", "", "street")
	address.Flags().StringVar(&addr.City, "city", "", "city")
	address.Flags().StringVar(&addr.AddressDetails, "details", "", "apartment, floor or other details")
	address.Flags().StringVar(&addr.ZipCode, "zip", "", "postal code")

	var current, next string
	password := &cobra.Command{
		Use:   "password",
		Short: "Change the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Users.UpdatePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			c.printf("Password updated\n")
			return nil
		},
	}
	password.Flags().StringVar(&current, "current", "", "current password")
	password.Flags().StringVar(&next, "new", "", "new password")

	cmd.AddCommand(name, phone, avatar, address, password)
	return cmd
}

func (c *cli) printUser(u *user.User) error {
	return c.render(u, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID\t%s\n", u.ID)
		fmt.Fprintf(w, "Name\t%s\n", u.FullName())
		fmt.Fprintf(w, "Email\t%s\n", u.Email)
		fmt.Fprintf(w, "Phone\t%s\n", orDash(u.Phone))
		if u.Address != nil {
			fmt.Fprintf(w, "Address\t%s, %s\n", u.Address.Street, u.Address.City)
		}
		fmt.Fprintf(w, "Member since\t%s\n", day(u.CreatedAt))
	})
}
