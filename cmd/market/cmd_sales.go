package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/sale"
)

func (c *cli) salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sales",
		Aliases: []string{"sale"},
		Short:   "Review and fulfil your sales",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Your sales, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Sales.BySeller(cmd.Context())
			if err != nil {
				return err
			}
			return c.printSales(items)
		},
	}

	period := &cobra.Command{
		Use:       "period <week|month|year>",
		Short:     "Your sales in the last week, this month or this year",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(sale.PeriodWeek), string(sale.PeriodMonth), string(sale.PeriodYear)},
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Sales.ByPeriod(cmd.Context(), sale.Period(args[0]))
			if err != nil {
				return err
			}
			if err := c.printSales(items); err != nil || c.asJSON {
				return err
			}
			c.printf("\n%d sales, %s revenue\n", len(items), moneyDec(revenue(items)))
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <sale-id> <status>",
		Short: "Move a sale to confirmed, shipped or delivered",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Sales.UpdateStatus(cmd.Context(), args[0], sale.Status(args[1]))
			if err != nil {
				return err
			}
			return c.printSales([]sale.Sale{*s})
		},
	}

	cmd.AddCommand(list, period, status)
	return cmd
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary of your listings, offers, orders and sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.app.Queries.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			pending := 0
			for _, o := range d.OffersReceived {
				if o.Status == offer.StatusPending {
					pending++
				}
			}
			return c.render(d, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Signed in as\t%s <%s>\n", d.User.FullName(), d.User.Email)
				fmt.Fprintf(w, "Listings\t%d\n", len(d.Listings))
				fmt.Fprintf(w, "Offers received\t%d (%d pending)\n", len(d.OffersReceived), pending)
				fmt.Fprintf(w, "Offers sent\t%d\n", len(d.OffersSent))
				fmt.Fprintf(w, "Orders\t%d\n", len(d.Orders))
				fmt.Fprintf(w, "Sales\t%d\n", len(d.Sales))
				fmt.Fprintf(w, "Revenue\t%s\n", moneyDec(d.Revenue))
			})
		},
	}
}

func (c *cli) printSales(items []sale.Sale) error {
	return c.render(items, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tPRODUCT\tBUYER\tTOTAL\tSTATUS\tDATE")
		for _, s := range items {
			id := s.ID
			if s.Demo {
				id += " (demo)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				id, s.ProductName, s.BuyerName, money(s.Total), s.Status, day(s.CreatedAt))
		}
	})
}

func revenue(items []sale.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range items {
		total = total.Add(decimal.NewFromFloat(s.Total))
	}
	return total
}
