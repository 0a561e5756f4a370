package listing

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

// switchable lets a test change the signed-in user
type switchable struct {
	u *user.User
}

func (s *switchable) Current() (user.User, bool) {
	return user.Static{User: s.u}.Current()
}

func newTestListingService(t *testing.T, who *switchable) (*Service, *store.MemoryKV, *mocks.MockEventStore) {
	kv := store.NewMemoryKV()
	eventStore := mocks.NewMockEventStore()
	svc := NewService(kv, testKeys, who, eventStore, zaptest.NewLogger(t))
	return svc, kv, eventStore
}

// tick makes every call to now return a later time
func tick(svc *Service) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func armchair() Draft {
	return Draft{
		Name:          "Velvet Armchair",
		Category:      "chair",
		Condition:     "good",
		Price:         240,
		Description:   "Green velvet, minor wear",
		Images:        []string{"data:image/png;base64,AAAA"},
		Dimensions:    Dimensions{Width: 80, Height: 95, Depth: 75},
		AcceptsBarter: true,
	}
}

// ============================================
// Submit Tests
// ============================================

func TestService_Submit_Success(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, _, eventStore := newTestListingService(t, who)

	l, err := service.Submit(context.Background(), armchair())

	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "seller-1", l.UserID)
	assert.Equal(t, StatusPendingReview, l.Status)
	assert.False(t, l.CreatedAt.IsZero())
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)
	assert.Equal(t, []string{EventListingSubmitted}, eventStore.EventTypes())
}

func TestService_Submit_Errors(t *testing.T) {
	who := &switchable{}
	service, _, _ := newTestListingService(t, who)
	ctx := context.Background()

	_, err := service.Submit(ctx, armchair())
	assert.ErrorIs(t, err, user.ErrNotLoggedIn)

	who.u = &user.User{ID: "seller-1"}
	d := armchair()
	d.Price = 0
	_, err = service.Submit(ctx, d)
	assert.ErrorIs(t, err, ErrInvalidListing)

	d = armchair()
	d.Name = ""
	_, err = service.Submit(ctx, d)
	assert.ErrorIs(t, err, ErrInvalidListing)
}

func TestService_RoundTrip(t *testing.T) {
	who := &switchable{u: &user.User{ID: "seller-1"}}
	service, kv, _ := newTestListingService(t, who)
	ctx := context.Background()

	l, err := service.Submit(ctx, armchair())
	require.NoError(t, err)

	reloaded := NewService(kv, testKeys, who, nil, nil)
	got, err := reloaded.Get(ctx, l.ID)

	require.NoError(t, err)
	assert.Equal(t, l.Name, got.Name)
	assert.Equal(t, l.Dimensions, got.Dimensions)
	assert.Equal(t, l.Images, got.Images)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))
}

// ============================================
// Query Tests
// ============================================

func TestService_ListByUser_ScopedAndNewestFirst(t *testing.T) {
	who := &switchable{}
	service, _, _ := newTestListingService(t, who)
	tick(service)
	ctx := context.Background()

	who.u = &user.User{ID: "a"}
	first, _ := service.Submit(ctx, armchair())
	second, _ := service.Submit(ctx, armchair())
	who.u = &user.User{ID: "b"}
	other, _ := service.Submit(ctx, armchair())

	who.u = &user.User{ID: "a"}
	mine, err := service.ListByUser(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	who.u = &user.User{ID: "b"}
	theirs, _ := service.ListByUser(ctx)
	require.Len(t, theirs, 1)
	assert.Equal(t, other.ID, theirs[0].ID)

	who.u = nil
	none, err := service.ListByUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_ListPublished(t *testing.T) {
	who := &switchable{u: &user.User{ID: "a"}}
	service, _, _ := newTestListingService(t, who)
	ctx := context.Background()

	pending, _ := service.Submit(ctx, armchair())
	approved, _ := service.Submit(ctx, armchair())
	_, err := service.UpdateStatus(ctx, approved.ID, StatusApproved, "")
	require.NoError(t, err)

	published, err := service.ListPublished(ctx)

	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, approved.ID, published[0].ID)
	assert.NotEqual(t, pending.ID, published[0].ID)
}

// ============================================
// Status Transition Tests
// ============================================

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingReview, StatusApproved, true},
		{StatusPendingReview, StatusRejected, true},
		{StatusPendingReview, StatusActive, false},
		{StatusApproved, StatusActive, true},
		{StatusApproved, StatusSold, true},
		{StatusActive, StatusSold, true},
		{StatusRejected, StatusApproved, false},
		{StatusSold, StatusActive, false},
		{Status("bogus"), StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestService_UpdateStatus_FullLifecycle(t *testing.T) {
	who := &switchable{u: &user.User{ID: "a"}}
	service, _, eventStore := newTestListingService(t, who)
	ctx := context.Background()
	l, _ := service.Submit(ctx, armchair())

	for _, next := range []Status{StatusApproved, StatusActive, StatusSold} {
		updated, err := service.UpdateStatus(ctx, l.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	assert.Len(t, eventStore.AppendCalls, 4)
	last := eventStore.AppendCalls[3].Data.(ListingStatusChanged)
	assert.Equal(t, StatusActive, last.From)
	assert.Equal(t, StatusSold, last.To)
}

func TestService_UpdateStatus_RejectWithNote(t *testing.T) {
	who := &switchable{u: &user.User{ID: "a"}}
	service, _, _ := newTestListingService(t, who)
	ctx := context.Background()
	l, _ := service.Submit(ctx, armchair())

	updated, err := service.UpdateStatus(ctx, l.ID, StatusRejected, "photos are blurry")

	require.NoError(t, err)
	assert.Equal(t, "photos are blurry", updated.ReviewNote)
	assert.False(t, updated.UpdatedAt.Before(l.UpdatedAt))
}

func TestService_UpdateStatus_Errors(t *testing.T) {
	who := &switchable{u: &user.User{ID: "a"}}
	service, _, _ := newTestListingService(t, who)
	ctx := context.Background()
	l, _ := service.Submit(ctx, armchair())

	_, err := service.UpdateStatus(ctx, "missing", StatusApproved, "")
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = service.UpdateStatus(ctx, l.ID, StatusSold, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, _ := service.Get(ctx, l.ID)
	assert.Equal(t, StatusPendingReview, got.Status, "failed transition leaves status untouched")
}

func TestService_CorruptedListingsAreEmpty(t *testing.T) {
	who := &switchable{u: &user.User{ID: "a"}}
	service, kv, _ := newTestListingService(t, who)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, testKeys.For(store.KeyListings), `[{"id":"1","name":"x","status":"archived"}]`))

	items, err := service.ListByUser(ctx)

	require.NoError(t, err)
	assert.Empty(t, items)
}
