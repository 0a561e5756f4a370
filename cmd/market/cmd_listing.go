package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/domain/listing"
)

func (c *cli) listingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listing",
		Aliases: []string{"listings"},
		Short:   "Submit and moderate your own listings",
	}

	var d listing.Draft
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a piece of furniture for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.app.Commands.SubmitListing(cmd.Context(), d)
			if err != nil {
				return err
			}
			return c.printListings([]listing.Listing{*l})
		},
	}
	f := submit.Flags()
	f.StringVar(&d.Name, "name", "", "title of the listing")
	f.StringVar(&d.Category, "category", "", "category (sofa, table, chair, storage, bed, desk)")
	f.StringVar(&d.Condition, "condition", "", "condition (new, likeNew, good, fair)")
	f.Float64Var(&d.Price, "price", 0, "asking price")
	f.StringVar(&d.Description, "description", "", "description")
	f.StringSliceVar(&d.Images, "image", nil, "image URL (repeatable)")
	f.Float64Var(&d.Dimensions.Width, "width", 0, "width in cm")
	f.Float64Var(&d.Dimensions.Height, "height", 0, "height in cm")
	f.Float64Var(&d.Dimensions.Depth, "depth", 0, "depth in cm")
	f.BoolVar(&d.AcceptsBarter, "barter", false, "accept barter offers")

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your listings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Listings.ListByUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.printListings(items)
		},
	}

	published := &cobra.Command{
		Use:   "published",
		Short: "List approved and active listings from every seller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Listings.ListPublished(cmd.Context())
			if err != nil {
				return err
			}
			return c.printListings(items)
		},
	}

	var note string
	review := &cobra.Command{
		Use:   "review <id> <status>",
		Short: "Move a listing to approved, rejected, active or sold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.app.Listings.UpdateStatus(cmd.Context(), args[0], listing.Status(args[1]), note)
			if err != nil {
				return err
			}
			return c.printListings([]listing.Listing{*l})
		},
	}
	review.Flags().StringVar(&note, "note", "", "review note shown to the seller")

	cmd.AddCommand(submit, mine, published, review)
	return cmd
}

func (c *cli) printListings(items []listing.Listing) error {
	return c.render(items, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTATUS\tBARTER\tCREATED")
		for _, l := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
				l.ID, l.Name, l.Category, money(l.Price), l.Status, l.AcceptsBarter, day(l.CreatedAt))
		}
	})
}
