package cart

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/infrastructure/store"
)

const (
	AggregateType = "Cart"
	// aggregateID is fixed because the cart is shared by every session
	aggregateID = "cart"
)

var (
	ErrInvalidProduct = errors.New("product id is required")
	ErrInvalidPrice   = errors.New("price must not be negative")
)

// CartItem is one product in the cart. The product id doubles as the item id.
type CartItem struct {
	ID         string  `json:"id" validate:"required"`
	Name       string  `json:"name"`
	Price      float64 `json:"price" validate:"gte=0"`
	Image      string  `json:"image"`
	Category   string  `json:"category"`
	Condition  string  `json:"condition"`
	Dimensions string  `json:"dimensions"`
}

// Service is the device-wide cart. It is a set keyed by product id.
type Service struct {
	items      *store.Collection[CartItem]
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "cart"))
	return &Service{
		items:      store.NewCollection[CartItem](kv, keys.For(store.KeyCart), logger),
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Add puts item in the cart. Adding a product that is already present is a
// no-op and reports false.
func (s *Service) Add(ctx context.Context, item CartItem) (bool, error) {
	if item.ID == "" {
		return false, ErrInvalidProduct
	}
	if item.Price < 0 {
		return false, ErrInvalidPrice
	}

	added := false
	err := s.items.Save(ctx, func(items []CartItem) ([]CartItem, error) {
		if indexOf(items, item.ID) >= 0 {
			return items, nil
		}
		added = true
		return append(items, item), nil
	})
	if err != nil {
		return false, err
	}

	if added {
		store.Emit(ctx, s.eventStore, s.logger, aggregateID, AggregateType, EventItemAdded, ItemAddedToCart{
			ProductID: item.ID,
			Price:     item.Price,
			AddedAt:   s.now(),
		})
	}
	return added, nil
}

// Remove drops a product; removing an absent product is a no-op
func (s *Service) Remove(ctx context.Context, productID string) error {
	removed := false
	err := s.items.Save(ctx, func(items []CartItem) ([]CartItem, error) {
		idx := indexOf(items, productID)
		if idx < 0 {
			return items, nil
		}
		removed = true
		return slices.Delete(items, idx, idx+1), nil
	})
	if err != nil {
		return err
	}

	if removed {
		store.Emit(ctx, s.eventStore, s.logger, aggregateID, AggregateType, EventItemRemoved, ItemRemovedFromCart{
			ProductID: productID,
			RemovedAt: s.now(),
		})
	}
	return nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context) error {
	count := 0
	err := s.items.Save(ctx, func(items []CartItem) ([]CartItem, error) {
		count = len(items)
		return []CartItem{}, nil
	})
	if err != nil {
		return err
	}

	s.cleared(ctx, count)
	return nil
}

// StageClear prepares an empty cart for a commit that also places the
// orders. The returned func records the event once the commit succeeded.
func (s *Service) StageClear(ctx context.Context) (*store.Change, func(context.Context), error) {
	count := 0
	change, err := s.items.Stage(ctx, func(items []CartItem) ([]CartItem, error) {
		count = len(items)
		return []CartItem{}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return change, func(ctx context.Context) { s.cleared(ctx, count) }, nil
}

func (s *Service) cleared(ctx context.Context, count int) {
	store.Emit(ctx, s.eventStore, s.logger, aggregateID, AggregateType, EventCartCleared, CartCleared{
		Items:     count,
		ClearedAt: s.now(),
	})
}

// Items returns the cart contents in insertion order
func (s *Service) Items(ctx context.Context) ([]CartItem, error) {
	return s.items.Items(ctx)
}

// Contains reports whether a product is in the cart
func (s *Service) Contains(ctx context.Context, productID string) (bool, error) {
	items, err := s.items.Items(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(items, productID) >= 0, nil
}

// ItemCount is the number of distinct products in the cart
func (s *Service) ItemCount(ctx context.Context) (int, error) {
	items, err := s.items.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Total sums the item prices without float drift
func (s *Service) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.items.Items(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(items), nil
}

// Sum adds up item prices
func Sum(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price))
	}
	return total
}

// Reload drops the cached cart
func (s *Service) Reload() {
	s.items.Reload()
}

func indexOf(items []CartItem, id string) int {
	return slices.IndexFunc(items, func(it CartItem) bool { return it.ID == id })
}
