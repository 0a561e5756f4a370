package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/command"
	"github.com/example/furniture-market/internal/domain/cart"
	"github.com/example/furniture-market/internal/domain/order"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Put a product in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := c.app.Queries.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := detail.Product
			image := p.Image
			if image == "" && len(p.Images) > 0 {
				image = p.Images[0]
			}
			added, err := c.app.Cart.Add(cmd.Context(), cart.CartItem{
				ID:         p.ID,
				Name:       p.Name,
				Price:      p.Price,
				Image:      image,
				Category:   p.Category,
				Condition:  p.Condition,
				Dimensions: dimensions(p.Dimensions),
			})
			if err != nil {
				return err
			}
			if added {
				c.printf("Added %s to the cart\n", p.Name)
			} else {
				c.printf("%s is already in the cart\n", p.Name)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Take a product out of the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Cart.Remove(cmd.Context(), args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart and its total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Cart.Items(cmd.Context())
			if err != nil {
				return err
			}
			total := cart.Sum(items)
			return c.render(items, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tCONDITION\tPRICE")
				for _, item := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Condition, money(item.Price))
				}
				fmt.Fprintf(w, "\t\tTotal\t%s\n", moneyDec(total))
			})
		},
	}

	clearCart := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Cart.Clear(cmd.Context())
		},
	}

	cmd.AddCommand(add, remove, list, clearCart)
	return cmd
}

func (c *cli) checkoutCmd() *cobra.Command {
	var shipping string
	var addr order.Address
	var wholeCart bool

	cmd := &cobra.Command{
		Use:   "checkout [product-id]",
		Short: "Buy one product, or everything in the cart with --cart",
		Long: `Place an order. Delivery details left out are taken from the signed-in
user's profile.

Shipping methods: standard (₼15), express (₼35), sameDay (₼60).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.fillAddress(&addr)
			method := order.ShippingMethod(shipping)

			if wholeCart {
				placed, err := c.app.Commands.CheckoutCart(cmd.Context(), command.CheckoutCart{
					ShippingMethod: method,
					Address:        addr,
				})
				if err != nil {
					return err
				}
				return c.printOrders(placed)
			}

			if len(args) != 1 {
				return fmt.Errorf("a product id or --cart is required")
			}
			placed, err := c.app.Commands.Checkout(cmd.Context(), command.Checkout{
				ProductID:      args[0],
				ShippingMethod: method,
				Address:        addr,
			})
			if err != nil {
				return err
			}
			return c.printOrders([]order.Order{*placed})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&wholeCart, "cart", false, "check out every item in the cart")
	f.StringVar(&shipping, "shipping", string(order.ShippingStandard), "shipping method")
	f.StringVar(&addr.FullName, "name", "", "recipient name")
	f.StringVar(&addr.Street, "street", "", "street")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.Phone, "phone", "", "contact phone")
	f.StringVar(&addr.Email, "email", "", "contact email")
	return cmd
}

// fillAddress completes empty delivery fields from the signed-in profile
func (c *cli) fillAddress(addr *order.Address) {
	me, ok := c.app.Users.Current()
	if !ok {
		return
	}
	if addr.FullName == "" {
		addr.FullName = me.FullName()
	}
	if addr.Phone == "" {
		addr.Phone = me.Phone
	}
	if addr.Email == "" {
		addr.Email = me.Email
	}
	if me.Address != nil {
		if addr.Street == "" {
			addr.Street = me.Address.Street
		}
		if addr.City == "" {
			addr.City = me.Address.City
		}
	}
}

func (c *cli) orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "order",
		Aliases: []string{"orders"},
		Short:   "Track your orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Your orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Orders.ListByUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.printOrders(items)
		},
	}

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.app.Orders.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(o, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "ID\t%s\n", o.ID)
				fmt.Fprintf(w, "Product\t%s\n", o.ProductName)
				fmt.Fprintf(w, "Price\t%s\n", money(o.ProductPrice))
				fmt.Fprintf(w, "Shipping\t%s (%s)\n", o.ShippingMethod, money(o.ShippingCost))
				fmt.Fprintf(w, "Total\t%s\n", money(o.Total))
				fmt.Fprintf(w, "Deliver to\t%s, %s, %s\n", o.Address.FullName, o.Address.Street, o.Address.City)
				fmt.Fprintf(w, "Status\t%s\n", o.Status)
				fmt.Fprintf(w, "Placed\t%s\n", day(o.CreatedAt))
			})
		},
	}

	advance := &cobra.Command{
		Use:   "advance <order-id>",
		Short: "Move an order to its next fulfilment step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.app.Orders.Advance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printOrders([]order.Order{*o})
		},
	}

	cmd.AddCommand(list, show, advance)
	return cmd
}

func (c *cli) printOrders(items []order.Order) error {
	return c.render(items, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tPRODUCT\tSHIPPING\tTOTAL\tSTATUS\tPLACED")
		for _, o := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				o.ID, o.ProductName, o.ShippingMethod, money(o.Total), o.Status, day(o.CreatedAt))
		}
	})
}
