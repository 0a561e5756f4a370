package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/comment"
	"github.com/example/furniture-market/internal/domain/compare"
)

func (c *cli) browseCmd() *cobra.Command {
	var q catalog.Query
	var page int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search the catalog and published listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Queries.Browse(cmd.Context(), q, page)
			if err != nil {
				return err
			}
			return c.render(result, func(w *tabwriter.Writer) {
				printProducts(w, result.Items)
				fmt.Fprintf(w, "\nPage %d of %d (%d products)\n", result.Page, result.TotalPages, result.Total)
			})
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "match name or description")
	cmd.Flags().StringVar(&q.Category, "category", catalog.MatchAll, "category filter")
	cmd.Flags().StringVar(&q.Condition, "condition", catalog.MatchAll, "condition filter")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (c *cli) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := c.app.Queries.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := detail.Product
			return c.render(detail, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "ID\t%s\n", p.ID)
				fmt.Fprintf(w, "Name\t%s\n", p.Name)
				fmt.Fprintf(w, "Price\t%s\n", money(p.Price))
				fmt.Fprintf(w, "Category\t%s\n", p.Category)
				fmt.Fprintf(w, "Condition\t%s\n", p.Condition)
				fmt.Fprintf(w, "Dimensions\t%s\n", dimensions(p.Dimensions))
				fmt.Fprintf(w, "Seller\t%s\n", orDash(p.Seller))
				fmt.Fprintf(w, "Barter\t%t\n", p.AcceptsBarter)
				fmt.Fprintf(w, "In cart\t%t\n", detail.InCart)
				if p.Description != "" {
					fmt.Fprintf(w, "\n%s\n", p.Description)
				}
				if len(detail.Comments) > 0 {
					fmt.Fprintln(w)
					printComments(w, detail.Comments)
				}
			})
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := c.app.Catalog.Categories()
			return c.render(categories, func(w *tabwriter.Writer) {
				for _, name := range categories {
					fmt.Fprintln(w, name)
				}
			})
		},
	}
}

// compareCmd fills the in-memory compare list from its arguments, so the
// list lives only for this invocation
func (c *cli) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <id>...",
		Short: fmt.Sprintf("Compare up to %d products side by side", compare.MaxItems),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := c.app.Compare
			for _, id := range args {
				detail, err := c.app.Queries.Product(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				if err := list.Add(detail.Product); err != nil {
					if errors.Is(err, compare.ErrAlreadyAdded) {
						continue
					}
					return err
				}
			}

			items := list.Items()
			return c.render(items, func(w *tabwriter.Writer) {
				row := func(label string, value func(p catalog.Product) string) {
					cells := make([]string, 0, len(items)+1)
					cells = append(cells, label)
					for _, p := range items {
						cells = append(cells, value(p))
					}
					fmt.Fprintln(w, strings.Join(cells, "\t"))
				}
				row("", func(p catalog.Product) string { return p.Name })
				row("Price", func(p catalog.Product) string { return money(p.Price) })
				row("Category", func(p catalog.Product) string { return p.Category })
				row("Condition", func(p catalog.Product) string { return p.Condition })
				row("Dimensions", func(p catalog.Product) string { return dimensions(p.Dimensions) })
				row("Material", func(p catalog.Product) string { return orDash(p.Material) })
				row("Color", func(p catalog.Product) string { return orDash(p.Color) })
				row("Barter", func(p catalog.Product) string { return fmt.Sprint(p.AcceptsBarter) })
			})
		},
	}
}

func (c *cli) commentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		Short:   "Read and write product comments",
	}

	add := &cobra.Command{
		Use:   "add <product-id> <text>",
		Short: "Comment on a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Queries.Product(cmd.Context(), args[0]); err != nil {
				return err
			}
			added, err := c.app.Comments.Add(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.render(added, func(w *tabwriter.Writer) {
				printComments(w, []comment.Comment{*added})
			})
		},
	}

	list := &cobra.Command{
		Use:   "list <product-id>",
		Short: "Comments on a product, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Comments.ByProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(items, func(w *tabwriter.Writer) { printComments(w, items) })
		},
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "Comments you wrote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.app.Comments.ByUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(items, func(w *tabwriter.Writer) { printComments(w, items) })
		},
	}

	remove := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Comments.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printf("Comment deleted\n")
			return nil
		},
	}

	cmd.AddCommand(add, list, mine, remove)
	return cmd
}

func printProducts(w *tabwriter.Writer, items []catalog.Product) {
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tCONDITION\tPRICE\tBARTER")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			p.ID, p.Name, p.Category, p.Condition, money(p.Price), p.AcceptsBarter)
	}
}

func printComments(w *tabwriter.Writer, items []comment.Comment) {
	fmt.Fprintln(w, "ID\tAUTHOR\tDATE\tCOMMENT")
	for _, cm := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cm.ID, cm.UserName, day(cm.CreatedAt), cm.Content)
	}
}

func dimensions(d catalog.Dimensions) string {
	if d.Width == 0 && d.Height == 0 && d.Depth == 0 {
		return "-"
	}
	return fmt.Sprintf("%gx%gx%g cm", d.Width, d.Height, d.Depth)
}
