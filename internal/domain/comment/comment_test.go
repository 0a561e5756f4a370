package comment

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

var (
	leyla = &user.User{ID: "u-1", FirstName: "Leyla", LastName: "Aliyeva", AvatarURL: "https://example.com/l.png"}
	orxan = &user.User{ID: "u-2", FirstName: "Orxan", LastName: "Mammadov"}
)

func newTestCommentService(t *testing.T, who *switchable) (*Service, *store.MemoryKV, *mocks.MockEventStore) {
	kv := store.NewMemoryKV()
	eventStore := mocks.NewMockEventStore()
	svc := NewService(kv, testKeys, who, eventStore, zaptest.NewLogger(t))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return svc, kv, eventStore
}

// ============================================
// Add Tests
// ============================================

func TestService_Add_Success(t *testing.T) {
	service, _, eventStore := newTestCommentService(t, &switchable{u: leyla})

	c, err := service.Add(context.Background(), "1", "  Is the sofa still available?  ")

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "Leyla Aliyeva", c.UserName)
	assert.Equal(t, "https://example.com/l.png", c.UserAvatar)
	assert.Equal(t, "Is the sofa still available?", c.Content)
	assert.Equal(t, []string{EventCommentAdded}, eventStore.EventTypes())
}

func TestService_Add_Errors(t *testing.T) {
	who := &switchable{}
	service, _, eventStore := newTestCommentService(t, who)
	ctx := context.Background()

	_, err := service.Add(ctx, "1", "hello")
	assert.ErrorIs(t, err, user.ErrNotLoggedIn)

	who.u = leyla
	_, err = service.Add(ctx, "1", "   ")
	assert.ErrorIs(t, err, ErrInvalidComment)

	_, err = service.Add(ctx, "", "hello")
	assert.ErrorIs(t, err, ErrInvalidComment)

	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Query Tests
// ============================================

func TestService_ByProduct_NewestFirst(t *testing.T) {
	who := &switchable{u: leyla}
	service, _, _ := newTestCommentService(t, who)
	ctx := context.Background()

	first, _ := service.Add(ctx, "1", "first")
	who.u = orxan
	second, _ := service.Add(ctx, "1", "second")
	_, _ = service.Add(ctx, "2", "elsewhere")

	who.u = nil
	got, err := service.ByProduct(ctx, "1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestService_ByUser_Scoped(t *testing.T) {
	who := &switchable{u: leyla}
	service, _, _ := newTestCommentService(t, who)
	ctx := context.Background()

	_, _ = service.Add(ctx, "1", "mine")
	who.u = orxan
	_, _ = service.Add(ctx, "1", "theirs")

	who.u = leyla
	mine, err := service.ByUser(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Content)

	who.u = nil
	none, _ := service.ByUser(ctx)
	assert.Empty(t, none)
}

func TestService_RoundTrip(t *testing.T) {
	who := &switchable{u: leyla}
	service, kv, _ := newTestCommentService(t, who)
	ctx := context.Background()
	c, err := service.Add(ctx, "1", "Lovely colour")
	require.NoError(t, err)

	reloaded := NewService(kv, testKeys, who, nil, nil)
	got, err := reloaded.ByProduct(ctx, "1")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, c.UserName, got[0].UserName)
	assert.True(t, c.CreatedAt.Equal(got[0].CreatedAt))
}

// ============================================
// Delete Tests
// ============================================

func TestService_Delete(t *testing.T) {
	who := &switchable{u: leyla}
	service, _, eventStore := newTestCommentService(t, who)
	ctx := context.Background()
	c, _ := service.Add(ctx, "1", "remove me")

	who.u = orxan
	err := service.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotAuthor)

	who.u = nil
	err = service.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, user.ErrNotLoggedIn)

	who.u = leyla
	err = service.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrCommentNotFound)

	require.NoError(t, service.Delete(ctx, c.ID))
	got, _ := service.ByProduct(ctx, "1")
	assert.Empty(t, got)
	assert.Equal(t, []string{EventCommentAdded, EventCommentDeleted}, eventStore.EventTypes())
}

func TestService_CorruptedCommentsAreEmpty(t *testing.T) {
	service, kv, _ := newTestCommentService(t, &switchable{u: leyla})
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, testKeys.For(store.KeyComments), `[{"id":"c1","content":"no owner"}]`))

	got, err := service.ByProduct(ctx, "")

	require.NoError(t, err)
	assert.Empty(t, got)
}
