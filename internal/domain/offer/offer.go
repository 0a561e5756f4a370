package offer

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

const AggregateType = "Offer"

type Type string

const (
	TypeBarter Type = "barter"
	TypePrice  Type = "price"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCountered Status = "countered"
)

var (
	ErrOfferNotFound  = errors.New("offer not found")
	ErrInvalidOffer   = errors.New("invalid offer")
	ErrInvalidStatus  = errors.New("invalid offer status transition")
	ErrNotSeller      = errors.New("only the seller can respond to this offer")
	ErrOwnItem        = errors.New("cannot make an offer on your own item")
	ErrInvalidCounter = errors.New("counter amount must be positive")
)

// validTransitions defines allowed state transitions. Every answer to a
// pending offer is final.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusDeclined, StatusCountered},
	StatusAccepted:  {}, // terminal state
	StatusDeclined:  {}, // terminal state
	StatusCountered: {}, // terminal state
}

// CanTransition reports whether from -> to is an allowed move
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Offer is a buyer's cash or barter proposal for a product. A zero Amount
// means no cash amount was offered.
type Offer struct {
	ID            string    `json:"id" validate:"required"`
	From          string    `json:"from"`
	FromID        string    `json:"fromId" validate:"required"`
	Type          Type      `json:"type" validate:"oneof=barter price"`
	Item          string    `json:"item,omitempty" validate:"required_if=Type barter"`
	ItemImage     string    `json:"itemImage,omitempty"`
	Amount        float64   `json:"amount,omitempty" validate:"required_if=Type price,gte=0"`
	ForItem       string    `json:"forItem"`
	ForItemID     string    `json:"forItemId" validate:"required"`
	ForItemImage  string    `json:"forItemImage"`
	ForItemPrice  float64   `json:"forItemPrice" validate:"gte=0"`
	SellerID      string    `json:"sellerId" validate:"required"`
	Status        Status    `json:"status" validate:"oneof=pending accepted declined countered"`
	CounterAmount float64   `json:"counterAmount,omitempty" validate:"gte=0"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SalePrice is the price a sale records when this offer is accepted. Offers
// without a cash amount fall back to the listed price.
func (o Offer) SalePrice() float64 {
	if o.Amount > 0 {
		return o.Amount
	}
	return o.ForItemPrice
}

// Draft is what a buyer fills in; the buyer fields come from the session
type Draft struct {
	Type         Type    `validate:"oneof=barter price"`
	Item         string  `validate:"required_if=Type barter"`
	Amount       float64 `validate:"required_if=Type price,gte=0"`
	ForItem      string  `validate:"required"`
	ForItemID    string  `validate:"required"`
	ForItemPrice float64 `validate:"gte=0"`
	SellerID     string  `validate:"required"`
	ItemImage    string
	ForItemImage string
}

type Service struct {
	offers     *store.Collection[Offer]
	identity   user.Identity
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, identity user.Identity, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "offer"))
	return &Service{
		offers:     store.NewCollection[Offer](kv, keys.For(store.KeyOffers), logger),
		identity:   identity,
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Make records a pending offer from the signed-in user
func (s *Service) Make(ctx context.Context, d Draft) (*Offer, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}
	if err := store.Validate(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	if d.SellerID == me.ID {
		return nil, ErrOwnItem
	}

	o := Offer{
		ID:           uuid.New().String(),
		From:         me.FullName(),
		FromID:       me.ID,
		Type:         d.Type,
		Item:         d.Item,
		ItemImage:    d.ItemImage,
		Amount:       d.Amount,
		ForItem:      d.ForItem,
		ForItemID:    d.ForItemID,
		ForItemImage: d.ForItemImage,
		ForItemPrice: d.ForItemPrice,
		SellerID:     d.SellerID,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}

	err := s.offers.Save(ctx, func(items []Offer) ([]Offer, error) {
		return append(items, o), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Offer made",
		zap.String("offer_id", o.ID),
		zap.String("from_id", o.FromID),
		zap.String("seller_id", o.SellerID))
	store.Emit(ctx, s.eventStore, s.logger, o.ID, AggregateType, EventOfferMade, OfferMade{
		OfferID:   o.ID,
		FromID:    o.FromID,
		SellerID:  o.SellerID,
		Type:      o.Type,
		Amount:    o.Amount,
		Item:      o.Item,
		ForItemID: o.ForItemID,
		MadeAt:    o.CreatedAt,
	})
	return &o, nil
}

// BySeller returns offers received by the signed-in user, newest first
func (s *Service) BySeller(ctx context.Context) ([]Offer, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Offer{}, nil
	}
	return s.filter(ctx, func(o Offer) bool { return o.SellerID == me.ID })
}

// ByBuyer returns offers sent by the signed-in user, newest first
func (s *Service) ByBuyer(ctx context.Context) ([]Offer, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Offer{}, nil
	}
	return s.filter(ctx, func(o Offer) bool { return o.FromID == me.ID })
}

// Accepted returns every accepted offer regardless of session
func (s *Service) Accepted(ctx context.Context) ([]Offer, error) {
	return s.filter(ctx, func(o Offer) bool { return o.Status == StatusAccepted })
}

// Get finds an offer by id
func (s *Service) Get(ctx context.Context, id string) (*Offer, error) {
	items, err := s.offers.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range items {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, ErrOfferNotFound
}

// Decline closes a pending offer
func (s *Service) Decline(ctx context.Context, id string) (*Offer, error) {
	return s.resolve(ctx, id, StatusDeclined, 0)
}

// Counter closes a pending offer with a counter amount
func (s *Service) Counter(ctx context.Context, id string, amount float64) (*Offer, error) {
	if amount <= 0 {
		return nil, ErrInvalidCounter
	}
	return s.resolve(ctx, id, StatusCountered, amount)
}

// StageAccept prepares the accepted status for a commit that also records
// the sale. The returned func records the event once the commit succeeded.
func (s *Service) StageAccept(ctx context.Context, id string) (*store.Change, *Offer, func(context.Context), error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, nil, nil, user.ErrNotLoggedIn
	}

	var updated Offer
	change, err := s.offers.Stage(ctx, s.transition(me.ID, id, StatusAccepted, 0, &updated))
	if err != nil {
		return nil, nil, nil, err
	}
	return change, &updated, func(ctx context.Context) { s.resolved(ctx, &updated, EventOfferAccepted) }, nil
}

func (s *Service) resolve(ctx context.Context, id string, to Status, counter float64) (*Offer, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}

	var updated Offer
	if err := s.offers.Save(ctx, s.transition(me.ID, id, to, counter, &updated)); err != nil {
		return nil, err
	}

	eventType := EventOfferDeclined
	if to == StatusCountered {
		eventType = EventOfferCountered
	}
	s.resolved(ctx, &updated, eventType)
	return &updated, nil
}

func (s *Service) transition(sellerID, id string, to Status, counter float64, updated *Offer) func([]Offer) ([]Offer, error) {
	return func(items []Offer) ([]Offer, error) {
		idx := slices.IndexFunc(items, func(o Offer) bool { return o.ID == id })
		if idx < 0 {
			return nil, ErrOfferNotFound
		}
		if items[idx].SellerID != sellerID {
			return nil, ErrNotSeller
		}
		if !CanTransition(items[idx].Status, to) {
			return nil, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, items[idx].Status, to)
		}
		items[idx].Status = to
		if to == StatusCountered {
			items[idx].CounterAmount = counter
		}
		*updated = items[idx]
		return items, nil
	}
}

func (s *Service) resolved(ctx context.Context, o *Offer, eventType string) {
	s.logger.Info("Offer resolved", zap.String("offer_id", o.ID), zap.String("status", string(o.Status)))
	store.Emit(ctx, s.eventStore, s.logger, o.ID, AggregateType, eventType, OfferResolved{
		OfferID:       o.ID,
		FromID:        o.FromID,
		SellerID:      o.SellerID,
		ForItem:       o.ForItem,
		Status:        o.Status,
		CounterAmount: o.CounterAmount,
		ResolvedAt:    s.now(),
	})
}

// Reload drops the cached offers
func (s *Service) Reload() {
	s.offers.Reload()
}

func (s *Service) filter(ctx context.Context, keep func(Offer) bool) ([]Offer, error) {
	items, err := s.offers.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Offer, 0, len(items))
	for _, o := range items {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
