package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/app"
	"github.com/example/furniture-market/internal/config"
	"github.com/example/furniture-market/internal/logging"
)

// cli carries the state shared by every subcommand of one invocation
type cli struct {
	app    *app.App
	logger *zap.Logger
	out    io.Writer

	backend   string
	demoSales bool
	asJSON    bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "market",
		Short: "Yeni Nefes furniture resale and barter marketplace",
		Long: `Browse second-hand furniture, list your own pieces, trade offers and
track orders and sales.

Data is kept in the configured key-value backend (MARKET_BACKEND), so the
signed-in session survives between invocations.`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.open,
		PersistentPostRunE: c.close,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.backend, "backend", "", "storage backend: memory, sqlite, postgres or dynamodb (overrides MARKET_BACKEND)")
	flags.BoolVar(&c.demoSales, "demo-sales", false, "show a sample sale to sellers with no sales yet")
	flags.BoolVar(&c.asJSON, "json", false, "print records as JSON")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.listingCmd(),
		c.offerCmd(),
		c.browseCmd(),
		c.productCmd(),
		c.categoriesCmd(),
		c.compareCmd(),
		c.commentCmd(),
		c.cartCmd(),
		c.checkoutCmd(),
		c.orderCmd(),
		c.salesCmd(),
		c.dashboardCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Backend = c.backend
	}
	if c.demoSales {
		cfg.DemoSales = true
	}

	c.logger, err = logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.out = cmd.OutOrStdout()

	c.app, err = app.New(cmd.Context(), cfg, c.logger)
	if err != nil {
		return fmt.Errorf("failed to open market: %w", err)
	}
	return nil
}

func (c *cli) close(cmd *cobra.Command, args []string) error {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
