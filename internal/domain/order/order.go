package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

const AggregateType = "Order"

type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "outForDelivery"
	StatusDelivered      Status = "delivered"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrInvalidStatus  = errors.New("invalid order status transition")
	ErrOrderDelivered = errors.New("order is already delivered")
)

// validTransitions defines allowed state transitions. Fulfilment is strictly
// linear with no skips and no cancellation.
var validTransitions = map[Status][]Status{
	StatusPlaced:         {StatusConfirmed},
	StatusConfirmed:      {StatusShipped},
	StatusShipped:        {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {}, // terminal state
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[o.Status], target)
}

// Next returns the status that follows the current one
func (o *Order) Next() (Status, bool) {
	allowed := validTransitions[o.Status]
	if len(allowed) == 0 {
		return "", false
	}
	return allowed[0], true
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	if o.Status == StatusDelivered {
		return ErrOrderDelivered
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
}

// Address is where an order is delivered
type Address struct {
	FullName string `json:"fullName" validate:"required"`
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type Order struct {
	ID             string         `json:"id" validate:"required"`
	UserID         string         `json:"userId"`
	ProductID      string         `json:"productId" validate:"required"`
	ProductName    string         `json:"productName"`
	ProductImage   string         `json:"productImage"`
	ProductPrice   float64        `json:"productPrice" validate:"gte=0"`
	ShippingMethod ShippingMethod `json:"shippingMethod" validate:"oneof=standard express sameDay"`
	ShippingCost   float64        `json:"shippingCost" validate:"gte=0"`
	Total          float64        `json:"total" validate:"gte=0"`
	Address        Address        `json:"address"`
	Status         Status         `json:"status" validate:"oneof=placed confirmed shipped outForDelivery delivered"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Draft is one product bought with one delivery option
type Draft struct {
	ProductID      string         `validate:"required"`
	ProductName    string         `validate:"required"`
	ProductPrice   float64        `validate:"gte=0"`
	ShippingMethod ShippingMethod `validate:"required"`
	Address        Address
	ProductImage   string
}

type Service struct {
	orders     *store.Collection[Order]
	identity   user.Identity
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, identity user.Identity, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "order"))
	return &Service{
		orders:     store.NewCollection[Order](kv, keys.For(store.KeyOrders), logger),
		identity:   identity,
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Place stores a new order for the signed-in user
func (s *Service) Place(ctx context.Context, d Draft) (*Order, error) {
	o, err := s.build(d)
	if err != nil {
		return nil, err
	}
	err = s.orders.Save(ctx, func(items []Order) ([]Order, error) {
		return append(items, *o), nil
	})
	if err != nil {
		return nil, err
	}
	s.placed(ctx, o)
	return o, nil
}

// StagePlace prepares orders for a commit that touches other collections.
// The returned func records the events once the commit succeeded.
func (s *Service) StagePlace(ctx context.Context, drafts ...Draft) (*store.Change, []Order, func(context.Context), error) {
	built := make([]Order, 0, len(drafts))
	for _, d := range drafts {
		o, err := s.build(d)
		if err != nil {
			return nil, nil, nil, err
		}
		built = append(built, *o)
	}

	change, err := s.orders.Stage(ctx, func(items []Order) ([]Order, error) {
		return append(items, built...), nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	done := func(ctx context.Context) {
		for i := range built {
			s.placed(ctx, &built[i])
		}
	}
	return change, built, done, nil
}

func (s *Service) build(d Draft) (*Order, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}
	if err := store.Validate(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	shipping, err := ShippingCost(d.ShippingMethod)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &Order{
		ID:             uuid.New().String(),
		UserID:         me.ID,
		ProductID:      d.ProductID,
		ProductName:    d.ProductName,
		ProductImage:   d.ProductImage,
		ProductPrice:   d.ProductPrice,
		ShippingMethod: d.ShippingMethod,
		ShippingCost:   shipping,
		Total:          AddPrices(d.ProductPrice, shipping),
		Address:        d.Address,
		Status:         StatusPlaced,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *Service) placed(ctx context.Context, o *Order) {
	s.logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.Float64("total", o.Total))
	store.Emit(ctx, s.eventStore, s.logger, o.ID, AggregateType, EventOrderPlaced, OrderPlaced{
		OrderID:        o.ID,
		UserID:         o.UserID,
		ProductID:      o.ProductID,
		ProductName:    o.ProductName,
		ShippingMethod: o.ShippingMethod,
		Total:          o.Total,
		Email:          o.Address.Email,
		FullName:       o.Address.FullName,
		PlacedAt:       o.CreatedAt,
	})
}

// ListByUser returns the signed-in user's orders, newest first
func (s *Service) ListByUser(ctx context.Context) ([]Order, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Order{}, nil
	}
	items, err := s.orders.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(items))
	for _, o := range items {
		if o.UserID == me.ID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get finds an order by id
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	items, err := s.orders.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range items {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

// UpdateStatus moves an order to the next fulfilment status. It is driven by
// the fulfilment side, so no session is required.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	return s.update(ctx, id, func(o *Order) (Status, error) { return status, nil })
}

// Advance moves an order one step along the fulfilment sequence
func (s *Service) Advance(ctx context.Context, id string) (*Order, error) {
	return s.update(ctx, id, func(o *Order) (Status, error) {
		next, ok := o.Next()
		if !ok {
			return "", ErrOrderDelivered
		}
		return next, nil
	})
}

func (s *Service) update(ctx context.Context, id string, target func(o *Order) (Status, error)) (*Order, error) {
	var from Status
	var updated Order
	err := s.orders.Save(ctx, func(items []Order) ([]Order, error) {
		idx := slices.IndexFunc(items, func(o Order) bool { return o.ID == id })
		if idx < 0 {
			return nil, ErrOrderNotFound
		}
		o := &items[idx]
		to, err := target(o)
		if err != nil {
			return nil, err
		}
		if !o.CanTransitionTo(to) {
			return nil, o.transitionError(to)
		}
		from = o.Status
		o.Status = to
		o.UpdatedAt = s.now()
		updated = *o
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)))
	store.Emit(ctx, s.eventStore, s.logger, id, AggregateType, EventOrderStatusChanged, OrderStatusChanged{
		OrderID:   id,
		UserID:    updated.UserID,
		From:      from,
		To:        updated.Status,
		ChangedAt: updated.UpdatedAt,
	})
	return &updated, nil
}

// Reload drops the cached orders
func (s *Service) Reload() {
	s.orders.Reload()
}
