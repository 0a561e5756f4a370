package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/compare"
	"github.com/example/furniture-market/internal/domain/listing"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
)

// setupMarket points every invocation at one SQLite file, so state carries
// over between commands the way it does for a real user
func setupMarket(t *testing.T) {
	t.Helper()
	t.Setenv("MARKET_BACKEND", "sqlite")
	t.Setenv("MARKET_SQLITE_PATH", filepath.Join(t.TempDir(), "market.db"))
	t.Setenv("MARKET_NAMESPACE", "cli_test_")
	t.Setenv("SESSION_SECRET", "cli-test-secret")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENVIRONMENT", "test")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	out, err := run(t, append(args, "--json")...)
	require.NoError(t, err, out)

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func registerUser(t *testing.T, first, email string) {
	t.Helper()
	_, _ = run(t, "logout")
	out, err := run(t, "register",
		"--first", first,
		"--last", "Test",
		"--email", email,
		"--password", "password123",
		"--phone", "+994501234567")
	require.NoError(t, err, out)
}

func TestCLI_OfferScenario(t *testing.T) {
	setupMarket(t)

	registerUser(t, "Leyla", "leyla@example.com")
	submitted := runJSON[[]listing.Listing](t, "listing", "submit",
		"--name", "Velvet Armchair",
		"--category", "chair",
		"--condition", "good",
		"--price", "250",
		"--barter")
	require.Len(t, submitted, 1)
	listingID := submitted[0].ID
	assert.Equal(t, listing.StatusPendingReview, submitted[0].Status)

	reviewed := runJSON[[]listing.Listing](t, "listing", "review", listingID, "approved")
	assert.Equal(t, listing.StatusApproved, reviewed[0].Status)

	registerUser(t, "Anar", "anar@example.com")
	made := runJSON[[]offer.Offer](t, "offer", "make", listingID, "--amount", "200")
	require.Len(t, made, 1)
	assert.Equal(t, offer.StatusPending, made[0].Status)

	sent := runJSON[[]offer.Offer](t, "offer", "sent")
	assert.Len(t, sent, 1)

	_, _ = run(t, "logout")
	out, err := run(t, "login", "leyla@example.com", "--password", "password123")
	require.NoError(t, err, out)

	received := runJSON[[]offer.Offer](t, "offer", "received")
	require.Len(t, received, 1)

	accepted := runJSON[[]sale.Sale](t, "offer", "accept", made[0].ID)
	require.Len(t, accepted, 1)
	assert.Equal(t, 200.0, accepted[0].Total)
	assert.Equal(t, made[0].ID, accepted[0].OfferID)

	sales := runJSON[[]sale.Sale](t, "sales", "list")
	assert.Len(t, sales, 1)

	week := runJSON[[]sale.Sale](t, "sales", "period", "week")
	assert.Len(t, week, 1)

	reconciled := runJSON[[]sale.Sale](t, "offer", "reconcile")
	assert.Empty(t, reconciled)

	out, err = run(t, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Leyla Test")
	assert.Contains(t, out, "₼200.00")
}

func TestCLI_RequiresSession(t *testing.T) {
	setupMarket(t)

	_, err := run(t, "whoami")
	assert.Error(t, err)

	_, err = run(t, "listing", "submit", "--name", "Desk", "--category", "desk", "--condition", "good", "--price", "10")
	assert.Error(t, err)

	_, err = run(t, "dashboard")
	assert.Error(t, err)
}

func TestCLI_Browse(t *testing.T) {
	setupMarket(t)

	page := runJSON[catalog.Page](t, "browse", "--category", "sofa")
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)

	categories := runJSON[[]string](t, "categories")
	assert.Equal(t, []string{"sofa", "table", "chair", "storage", "bed", "desk"}, categories)

	_, err := run(t, "product", "does-not-exist")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestCLI_Compare(t *testing.T) {
	setupMarket(t)

	items := runJSON[[]catalog.Product](t, "compare", "1", "3", "1")
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)

	_, err := run(t, "compare", "1", "2", "3", "4", "5")
	assert.ErrorIs(t, err, compare.ErrListFull)
}

func TestCLI_CartCheckout(t *testing.T) {
	setupMarket(t)
	registerUser(t, "Anar", "anar@example.com")

	for _, id := range []string{"2", "3", "2"} {
		out, err := run(t, "cart", "add", id)
		require.NoError(t, err, out)
	}

	out, err := run(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Total")

	placed := runJSON[[]order.Order](t, "checkout", "--cart",
		"--shipping", "express",
		"--street", "Nizami 10",
		"--city", "Baku")
	require.Len(t, placed, 2)
	for _, o := range placed {
		assert.Equal(t, order.ShippingExpress, o.ShippingMethod)
		assert.Equal(t, "Anar Test", o.Address.FullName)
		assert.Equal(t, "anar@example.com", o.Address.Email)
	}

	_, err = run(t, "checkout", "--cart", "--street", "Nizami 10", "--city", "Baku")
	assert.Error(t, err, "cart is empty after checkout")

	orders := runJSON[[]order.Order](t, "order", "list")
	assert.Len(t, orders, 2)

	advanced := runJSON[[]order.Order](t, "order", "advance", orders[0].ID)
	assert.Equal(t, order.StatusConfirmed, advanced[0].Status)
}

func TestCLI_Checkout_NeedsProductOrCart(t *testing.T) {
	setupMarket(t)
	registerUser(t, "Anar", "anar@example.com")

	_, err := run(t, "checkout")
	assert.Error(t, err)
}

func TestCLI_Comments(t *testing.T) {
	setupMarket(t)
	registerUser(t, "Anar", "anar@example.com")

	out, err := run(t, "comment", "add", "1", "Is the sofa still available?")
	require.NoError(t, err, out)

	detail, err := run(t, "product", "1")
	require.NoError(t, err)
	assert.Contains(t, detail, "Is the sofa still available?")

	_, err = run(t, "comment", "add", "does-not-exist", "hello")
	assert.Error(t, err)
}
