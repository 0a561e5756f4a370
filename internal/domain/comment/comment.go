package comment

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

const AggregateType = "Comment"

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrInvalidComment  = errors.New("comment needs a product and some text")
	ErrNotAuthor       = errors.New("only the author can delete this comment")
)

type Comment struct {
	ID         string    `json:"id" validate:"required"`
	ProductID  string    `json:"productId" validate:"required"`
	UserID     string    `json:"userId" validate:"required"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Service struct {
	comments   *store.Collection[Comment]
	identity   user.Identity
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, identity user.Identity, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "comment"))
	return &Service{
		comments:   store.NewCollection[Comment](kv, keys.For(store.KeyComments), logger),
		identity:   identity,
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Add posts a comment on a product as the signed-in user
func (s *Service) Add(ctx context.Context, productID, content string) (*Comment, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}
	content = strings.TrimSpace(content)
	if productID == "" || content == "" {
		return nil, ErrInvalidComment
	}

	c := Comment{
		ID:         uuid.New().String(),
		ProductID:  productID,
		UserID:     me.ID,
		UserName:   me.FullName(),
		UserAvatar: me.AvatarURL,
		Content:    content,
		CreatedAt:  s.now(),
	}
	err := s.comments.Save(ctx, func(items []Comment) ([]Comment, error) {
		return append(items, c), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Comment added", zap.String("comment_id", c.ID), zap.String("product_id", productID))
	store.Emit(ctx, s.eventStore, s.logger, c.ID, AggregateType, EventCommentAdded, CommentAdded{
		CommentID: c.ID,
		ProductID: c.ProductID,
		UserID:    c.UserID,
		AddedAt:   c.CreatedAt,
	})
	return &c, nil
}

// ByProduct returns a product's comments, newest first
func (s *Service) ByProduct(ctx context.Context, productID string) ([]Comment, error) {
	return s.filter(ctx, func(c Comment) bool { return c.ProductID == productID })
}

// ByUser returns the signed-in user's comments, newest first
func (s *Service) ByUser(ctx context.Context) ([]Comment, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Comment{}, nil
	}
	return s.filter(ctx, func(c Comment) bool { return c.UserID == me.ID })
}

// Delete removes one of the signed-in user's comments
func (s *Service) Delete(ctx context.Context, id string) error {
	me, ok := s.identity.Current()
	if !ok {
		return user.ErrNotLoggedIn
	}

	var removed Comment
	err := s.comments.Save(ctx, func(items []Comment) ([]Comment, error) {
		idx := slices.IndexFunc(items, func(c Comment) bool { return c.ID == id })
		if idx < 0 {
			return nil, ErrCommentNotFound
		}
		if items[idx].UserID != me.ID {
			return nil, ErrNotAuthor
		}
		removed = items[idx]
		return slices.Delete(items, idx, idx+1), nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Comment deleted", zap.String("comment_id", id))
	store.Emit(ctx, s.eventStore, s.logger, id, AggregateType, EventCommentDeleted, CommentDeleted{
		CommentID: id,
		ProductID: removed.ProductID,
		UserID:    removed.UserID,
		DeletedAt: s.now(),
	})
	return nil
}

// Reload drops the cached comments
func (s *Service) Reload() {
	s.comments.Reload()
}

func (s *Service) filter(ctx context.Context, keep func(Comment) bool) ([]Comment, error) {
	items, err := s.comments.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(items))
	for _, c := range items {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
