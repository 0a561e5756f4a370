package sale

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/store"
	"github.com/example/furniture-market/internal/infrastructure/store/mocks"
)

var testKeys = store.NewKeys("")

type switchable struct {
	u *user.User
}

func (s *switchable) Current() (user.User, bool) {
	return user.Static{User: s.u}.Current()
}

// clock is a settable time source
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestSaleService(t *testing.T, who *switchable, opts Options) (*Service, *store.MemoryKV, *mocks.MockEventStore, *clock) {
	kv := store.NewMemoryKV()
	eventStore := mocks.NewMockEventStore()
	svc := NewService(kv, testKeys, who, eventStore, zaptest.NewLogger(t), opts)
	c := &clock{t: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc.now = c.now
	return svc, kv, eventStore, c
}

func chairSale(sellerID string) Draft {
	return Draft{
		SellerID:       sellerID,
		BuyerID:        "buyer-1",
		BuyerName:      "Leyla Aliyeva",
		BuyerEmail:     "leyla.aliyeva@example.com",
		ProductID:      "listing-1",
		ProductName:    "Velvet Armchair",
		ProductPrice:   240.1,
		ShippingMethod: "express",
		ShippingPrice:  35.2,
		BuyerAddress:   user.Address{Street: "Nizami 10", City: "Baku"},
		Status:         StatusPending,
	}
}

// ============================================
// Record Tests
// ============================================

func TestService_Record_Success(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, eventStore, _ := newTestSaleService(t, who, Options{})

	sale, err := service.Record(context.Background(), chairSale("seller-1"))

	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, 275.3, sale.Total)
	assert.Equal(t, StatusPending, sale.Status)
	assert.False(t, sale.Demo)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventSaleRecorded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_Record_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
	}{
		{"missing seller", func(d *Draft) { d.SellerID = "" }},
		{"missing product", func(d *Draft) { d.ProductID = "" }},
		{"negative price", func(d *Draft) { d.ProductPrice = -1 }},
		{"shipped on creation", func(d *Draft) { d.Status = StatusShipped }},
		{"missing street", func(d *Draft) { d.BuyerAddress.Street = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, eventStore, _ := newTestSaleService(t, &switchable{}, Options{})
			d := chairSale("seller-1")
			tt.mutate(&d)

			_, err := service.Record(context.Background(), d)

			assert.ErrorIs(t, err, ErrInvalidSale)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

func TestService_RoundTrip(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, kv, _, _ := newTestSaleService(t, who, Options{})
	ctx := context.Background()
	d := chairSale("seller-1")
	d.OfferID = "offer-1"
	sale, err := service.Record(ctx, d)
	require.NoError(t, err)

	reloaded := NewService(kv, testKeys, who, nil, nil, Options{})
	got, err := reloaded.FindByOffer(ctx, "offer-1")

	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)
	assert.Equal(t, sale.BuyerAddress, got.BuyerAddress)
	assert.Equal(t, sale.Total, got.Total)
}

func TestService_StageRecord_NotVisibleUntilCommit(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, kv, eventStore, _ := newTestSaleService(t, who, Options{})
	ctx := context.Background()

	change, built, done, err := service.StageRecord(ctx, chairSale("seller-1"))
	require.NoError(t, err)
	require.Len(t, built, 1)

	all, _ := service.All(ctx)
	assert.Empty(t, all)

	require.NoError(t, store.Commit(ctx, kv, change))
	done(ctx)

	all, _ = service.All(ctx)
	assert.Len(t, all, 1)
	assert.Equal(t, []string{EventSaleRecorded}, eventStore.EventTypes())
}

func TestService_FindByOffer_NotFound(t *testing.T) {
	service, _, _, _ := newTestSaleService(t, &switchable{}, Options{})
	ctx := context.Background()
	_, err := service.Record(ctx, chairSale("seller-1"))
	require.NoError(t, err)

	_, err = service.FindByOffer(ctx, "")
	assert.ErrorIs(t, err, ErrSaleNotFound)

	_, err = service.FindByOffer(ctx, "offer-x")
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestMatchOffer(t *testing.T) {
	sales := []Sale{
		{ID: "s-linked", SellerID: "seller-1", BuyerID: "buyer-1", ProductID: "p-1", OfferID: "o-linked"},
		{ID: "s-legacy", SellerID: "seller-1", BuyerID: "buyer-1", ProductID: "p-1"},
		{ID: "s-demo", SellerID: "seller-1", BuyerID: "buyer-2", ProductID: "p-2", Demo: true},
	}
	ref := func(offerID string) OfferRef {
		return OfferRef{OfferID: offerID, SellerID: "seller-1", BuyerID: "buyer-1", ProductID: "p-1"}
	}

	tests := []struct {
		name    string
		ref     OfferRef
		claimed map[string]bool
		want    string
	}{
		{"offer id wins", ref("o-linked"), nil, "s-linked"},
		{"legacy sale by seller buyer and product", ref("o-old"), nil, "s-legacy"},
		{"claimed legacy sale is skipped", ref("o-old"), map[string]bool{"s-legacy": true}, ""},
		{"linked sale never answers for another offer", OfferRef{OfferID: "o-x", SellerID: "seller-1", BuyerID: "buyer-9", ProductID: "p-1"}, nil, ""},
		{"demo sales are ignored", OfferRef{OfferID: "o-y", SellerID: "seller-1", BuyerID: "buyer-2", ProductID: "p-2"}, nil, ""},
		{"id only finds nothing legacy", OfferRef{OfferID: "o-old"}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchOffer(sales, tt.ref, tt.claimed)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

// ============================================
// Query Tests
// ============================================

func TestService_BySeller_ScopedAndNewestFirst(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, _, c := newTestSaleService(t, who, Options{DemoSales: true})
	ctx := context.Background()

	first, _ := service.Record(ctx, chairSale("seller-1"))
	c.t = c.t.Add(time.Hour)
	second, _ := service.Record(ctx, chairSale("seller-1"))
	_, _ = service.Record(ctx, chairSale("seller-2"))

	mine, err := service.BySeller(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	who.u = nil
	none, _ := service.BySeller(ctx)
	assert.Empty(t, none)
}

func TestService_BySeller_DemoFallback(t *testing.T) {
	who := &switchable{u: &user.User{ID: "new-seller"}}
	ctx := context.Background()

	service, kv, _, c := newTestSaleService(t, who, Options{DemoSales: true})
	sales, err := service.BySeller(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	demo := sales[0]
	assert.True(t, demo.Demo)
	assert.Equal(t, "new-seller", demo.SellerID)
	assert.Equal(t, "Anar M.", demo.BuyerName)
	assert.Equal(t, 875.0, demo.Total)
	assert.Equal(t, StatusConfirmed, demo.Status)
	assert.Equal(t, c.t.Add(-48*time.Hour), demo.CreatedAt)

	_, ok, _ := kv.Get(ctx, testKeys.For(store.KeySales))
	assert.False(t, ok, "demo sale is never persisted")

	_, err = service.UpdateStatus(ctx, demo.ID, StatusShipped)
	assert.Error(t, err)

	plain, _, _, _ := newTestSaleService(t, who, Options{})
	sales, err = plain.BySeller(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestService_ByPeriod(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, _, c := newTestSaleService(t, who, Options{DemoSales: true})
	ctx := context.Background()
	now := c.t

	record := func(at time.Time) {
		c.t = at
		_, err := service.Record(ctx, chairSale("seller-1"))
		require.NoError(t, err)
	}
	record(now.Add(-2 * 24 * time.Hour))  // this week
	record(now.Add(-10 * 24 * time.Hour)) // this month
	record(now.Add(-40 * 24 * time.Hour)) // this year
	record(now.AddDate(-1, 0, 0))         // last year
	c.t = now

	tests := []struct {
		period Period
		want   int
	}{
		{PeriodWeek, 1},
		{PeriodMonth, 2},
		{PeriodYear, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			sales, err := service.ByPeriod(ctx, tt.period)
			require.NoError(t, err)
			assert.Len(t, sales, tt.want)
			for _, s := range sales {
				assert.False(t, s.Demo)
			}
		})
	}

	_, err := service.ByPeriod(ctx, "decade")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestService_ByPeriod_NeverIncludesDemo(t *testing.T) {
	who := &switchable{u: &user.User{ID: "new-seller"}}
	service, _, _, _ := newTestSaleService(t, who, Options{DemoSales: true})

	sales, err := service.ByPeriod(context.Background(), PeriodWeek)

	require.NoError(t, err)
	assert.Empty(t, sales)
}

// ============================================
// Status Tests
// ============================================

func TestSale_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, StatusPending, false},
		{StatusShipped, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := &Sale{Status: tt.from}
			assert.Equal(t, tt.want, s.CanTransitionTo(tt.to))
		})
	}
}

func TestService_UpdateStatus(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, eventStore, _ := newTestSaleService(t, who, Options{})
	ctx := context.Background()
	sale, _ := service.Record(ctx, chairSale("seller-1"))

	for _, status := range []Status{StatusConfirmed, StatusShipped, StatusDelivered} {
		updated, err := service.UpdateStatus(ctx, sale.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err := service.UpdateStatus(ctx, sale.ID, StatusPending)
	assert.ErrorIs(t, err, ErrSaleDelivered)
	assert.Equal(t, []string{
		EventSaleRecorded,
		EventSaleStatusChanged,
		EventSaleStatusChanged,
		EventSaleStatusChanged,
	}, eventStore.EventTypes())
}

func TestService_UpdateStatus_Guards(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, _, _ := newTestSaleService(t, who, Options{})
	ctx := context.Background()
	sale, _ := service.Record(ctx, chairSale("seller-1"))

	_, err := service.UpdateStatus(ctx, sale.ID, StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.UpdateStatus(ctx, "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrSaleNotFound)

	who.u = &user.User{ID: "someone-else"}
	_, err = service.UpdateStatus(ctx, sale.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotSeller)

	who.u = nil
	_, err = service.UpdateStatus(ctx, sale.ID, StatusConfirmed)
	assert.ErrorIs(t, err, user.ErrNotLoggedIn)
}

func TestService_CorruptedSalesAreEmpty(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, kv, _, _ := newTestSaleService(t, who, Options{})
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, testKeys.For(store.KeySales), `{"not":"a list"}`))

	all, err := service.All(ctx)

	require.NoError(t, err)
	assert.Empty(t, all)
	_, ok, _ := kv.Get(ctx, testKeys.For(store.KeySales))
	assert.False(t, ok)
}
