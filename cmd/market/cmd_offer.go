package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/command"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/sale"
)

func (c *cli) offerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "offer",
		Aliases: []string{"offers"},
		Short:   "Make and answer price or barter offers",
	}

	var amount float64
	var item, itemImage string
	makeOffer := &cobra.Command{
		Use:   "make <product-id>",
		Short: "Offer a price (--amount) or a barter item (--item) for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := command.MakeOffer{
				ProductID: args[0],
				Type:      offer.TypePrice,
				Amount:    amount,
			}
			if item != "" {
				in.Type = offer.TypeBarter
				in.Item = item
				in.ItemImage = itemImage
			} else if amount <= 0 {
				return errors.New("either --amount or --item is required")
			}

			o, err := c.app.Commands.MakeOffer(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.printOffers([]offer.Offer{*o})
		},
	}
	makeOffer.Flags().Float64Var(&amount, "amount", 0, "cash amount offered")
	makeOffer.Flags().StringVar(&item, "item", "", "item offered in exchange")
	makeOffer.Flags().StringVar(&itemImage, "item-image", "", "image URL of the offered item")

	received := &cobra.Command{
		Use:   "received",
		Short: "Offers made on your items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Offers.BySeller(cmd.Context())
			if err != nil {
				return err
			}
			return c.printOffers(items)
		},
	}

	sent := &cobra.Command{
		Use:   "sent",
		Short: "Offers you made",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Offers.ByBuyer(cmd.Context())
			if err != nil {
				return err
			}
			return c.printOffers(items)
		},
	}

	accept := &cobra.Command{
		Use:   "accept <offer-id>",
		Short: "Accept an offer and record the sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Commands.AcceptOffer(cmd.Context(), command.AcceptOffer{OfferID: args[0]})
			if err != nil {
				return err
			}
			return c.printSales([]sale.Sale{*s})
		},
	}

	decline := &cobra.Command{
		Use:   "decline <offer-id>",
		Short: "Decline an offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := c.app.Commands.DeclineOffer(cmd.Context(), command.DeclineOffer{OfferID: args[0]})
			if err != nil {
				return err
			}
			return c.printOffers([]offer.Offer{*o})
		},
	}

	counter := &cobra.Command{
		Use:   "counter <offer-id> <amount>",
		Short: "Answer an offer with a counter amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			o, err := c.app.Commands.CounterOffer(cmd.Context(), command.CounterOffer{OfferID: args[0], Amount: value})
			if err != nil {
				return err
			}
			return c.printOffers([]offer.Offer{*o})
		},
	}

	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Record the missing sale of every accepted offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := c.app.Commands.ReconcileAcceptedOffers(cmd.Context())
			if err != nil {
				return err
			}
			if !c.asJSON && len(created) == 0 {
				c.printf("Every accepted offer has a sale\n")
				return nil
			}
			return c.printSales(created)
		},
	}

	cmd.AddCommand(makeOffer, received, sent, accept, decline, counter, reconcile)
	return cmd
}

func (c *cli) printOffers(items []offer.Offer) error {
	return c.render(items, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tFROM\tFOR\tOFFER\tSTATUS\tCOUNTER\tCREATED")
		for _, o := range items {
			what := money(o.Amount)
			if o.Type == offer.TypeBarter {
				what = "barter: " + o.Item
			}
			counter := "-"
			if o.CounterAmount > 0 {
				counter = money(o.CounterAmount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				o.ID, o.From, o.ForItem, what, o.Status, counter, day(o.CreatedAt))
		}
	})
}
