package sale

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

const AggregateType = "Sale"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

var (
	ErrSaleNotFound   = errors.New("sale not found")
	ErrInvalidSale    = errors.New("invalid sale")
	ErrInvalidStatus  = errors.New("invalid sale status transition")
	ErrNotSeller      = errors.New("only the seller can update this sale")
	ErrUnknownPeriod  = errors.New("unknown sales period")
	ErrSaleDelivered  = errors.New("sale is already delivered")
	errDemoIsReadOnly = errors.New("demo sale cannot be modified")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed},
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {}, // terminal state
}

// CanTransitionTo checks if the sale can transition to the target status
func (s *Sale) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[s.Status], target)
}

func (s *Sale) transitionError(target Status) error {
	if s.Status == StatusDelivered {
		return ErrSaleDelivered
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, s.Status, target)
}

// Sale is the seller-side record of a completed deal
type Sale struct {
	ID             string       `json:"id" validate:"required"`
	SellerID       string       `json:"sellerId" validate:"required"`
	BuyerID        string       `json:"buyerId"`
	BuyerName      string       `json:"buyerName"`
	BuyerEmail     string       `json:"buyerEmail"`
	ProductID      string       `json:"productId" validate:"required"`
	ProductName    string       `json:"productName"`
	ProductImage   string       `json:"productImage"`
	ProductPrice   float64      `json:"productPrice" validate:"gte=0"`
	ShippingMethod string       `json:"shippingMethod"`
	ShippingPrice  float64      `json:"shippingPrice" validate:"gte=0"`
	Total          float64      `json:"total" validate:"gte=0"`
	BuyerAddress   user.Address `json:"buyerAddress"`
	Status         Status       `json:"status" validate:"oneof=pending confirmed shipped delivered"`
	OfferID        string       `json:"offerId,omitempty"`
	Demo           bool         `json:"demo,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Draft carries everything a workflow knows about a new sale. Total is
// derived from the product and shipping prices.
type Draft struct {
	SellerID       string  `validate:"required"`
	BuyerID        string  `validate:"required"`
	ProductID      string  `validate:"required"`
	ProductPrice   float64 `validate:"gte=0"`
	ShippingPrice  float64 `validate:"gte=0"`
	Status         Status  `validate:"oneof=pending confirmed"`
	BuyerAddress   user.Address
	BuyerName      string
	BuyerEmail     string
	ProductName    string
	ProductImage   string
	ShippingMethod string
	OfferID        string
}

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

type Options struct {
	// DemoSales makes BySeller return a labelled sample sale to sellers
	// who have none yet.
	DemoSales bool
}

type Service struct {
	sales      *store.Collection[Sale]
	identity   user.Identity
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	opts       Options
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, identity user.Identity, es store.EventStoreInterface, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "sale"))
	return &Service{
		sales:      store.NewCollection[Sale](kv, keys.For(store.KeySales), logger),
		identity:   identity,
		eventStore: es,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Record stores a new sale
func (s *Service) Record(ctx context.Context, d Draft) (*Sale, error) {
	sale, err := s.build(d)
	if err != nil {
		return nil, err
	}
	err = s.sales.Save(ctx, func(items []Sale) ([]Sale, error) {
		return append(items, *sale), nil
	})
	if err != nil {
		return nil, err
	}
	s.recorded(ctx, sale)
	return sale, nil
}

// StageRecord prepares sales for a commit that touches other collections.
// The returned func records the events once the commit succeeded.
func (s *Service) StageRecord(ctx context.Context, drafts ...Draft) (*store.Change, []Sale, func(context.Context), error) {
	built := make([]Sale, 0, len(drafts))
	for _, d := range drafts {
		sale, err := s.build(d)
		if err != nil {
			return nil, nil, nil, err
		}
		built = append(built, *sale)
	}

	change, err := s.sales.Stage(ctx, func(items []Sale) ([]Sale, error) {
		return append(items, built...), nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	done := func(ctx context.Context) {
		for i := range built {
			s.recorded(ctx, &built[i])
		}
	}
	return change, built, done, nil
}

func (s *Service) build(d Draft) (*Sale, error) {
	if err := store.Validate(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSale, err)
	}
	total := decimal.NewFromFloat(d.ProductPrice).Add(decimal.NewFromFloat(d.ShippingPrice))
	return &Sale{
		ID:             uuid.New().String(),
		SellerID:       d.SellerID,
		BuyerID:        d.BuyerID,
		BuyerName:      d.BuyerName,
		BuyerEmail:     d.BuyerEmail,
		ProductID:      d.ProductID,
		ProductName:    d.ProductName,
		ProductImage:   d.ProductImage,
		ProductPrice:   d.ProductPrice,
		ShippingMethod: d.ShippingMethod,
		ShippingPrice:  d.ShippingPrice,
		Total:          total.InexactFloat64(),
		BuyerAddress:   d.BuyerAddress,
		Status:         d.Status,
		OfferID:        d.OfferID,
		CreatedAt:      s.now(),
	}, nil
}

func (s *Service) recorded(ctx context.Context, sale *Sale) {
	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("seller_id", sale.SellerID),
		zap.String("offer_id", sale.OfferID),
		zap.Float64("total", sale.Total))
	store.Emit(ctx, s.eventStore, s.logger, sale.ID, AggregateType, EventSaleRecorded, SaleRecorded{
		SaleID:      sale.ID,
		SellerID:    sale.SellerID,
		BuyerID:     sale.BuyerID,
		BuyerName:   sale.BuyerName,
		BuyerEmail:  sale.BuyerEmail,
		ProductID:   sale.ProductID,
		ProductName: sale.ProductName,
		Total:       sale.Total,
		Status:      sale.Status,
		OfferID:     sale.OfferID,
		RecordedAt:  sale.CreatedAt,
	})
}

// BySeller returns the signed-in user's sales, newest first. With
// Options.DemoSales a seller without sales sees one demo record instead.
func (s *Service) BySeller(ctx context.Context) ([]Sale, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Sale{}, nil
	}
	out, err := s.filter(ctx, func(sale Sale) bool { return sale.SellerID == me.ID })
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && s.opts.DemoSales {
		return []Sale{s.demoSale(me.ID)}, nil
	}
	return out, nil
}

// ByPeriod returns the signed-in user's sales created since the start of
// the period. The demo record is never included.
func (s *Service) ByPeriod(ctx context.Context, period Period) ([]Sale, error) {
	now := s.now()
	var since time.Time
	switch period {
	case PeriodWeek:
		since = now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		since = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}

	me, ok := s.identity.Current()
	if !ok {
		return []Sale{}, nil
	}
	return s.filter(ctx, func(sale Sale) bool {
		return sale.SellerID == me.ID && !sale.CreatedAt.Before(since)
	})
}

// FindByOffer returns the sale produced by accepting an offer
func (s *Service) FindByOffer(ctx context.Context, offerID string) (*Sale, error) {
	items, err := s.sales.Items(ctx)
	if err != nil {
		return nil, err
	}
	if sale, ok := MatchOffer(items, OfferRef{OfferID: offerID}, nil); ok {
		return &sale, nil
	}
	return nil, ErrSaleNotFound
}

// OfferRef names an accepted offer by the fields its sale carries
type OfferRef struct {
	OfferID   string
	SellerID  string
	BuyerID   string
	ProductID string
}

// MatchOffer finds the sale recorded for an accepted offer. A sale carrying
// the offer id always wins. Sales written by older clients have no offer id
// and are matched on seller, buyer and product instead; those in claimed are
// skipped so one such sale never answers for two offers.
func MatchOffer(sales []Sale, ref OfferRef, claimed map[string]bool) (Sale, bool) {
	if ref.OfferID != "" {
		for _, sale := range sales {
			if sale.OfferID == ref.OfferID {
				return sale, true
			}
		}
	}
	if ref.SellerID == "" || ref.ProductID == "" {
		return Sale{}, false
	}
	for _, sale := range sales {
		if sale.OfferID != "" || sale.Demo || claimed[sale.ID] {
			continue
		}
		if sale.SellerID == ref.SellerID && sale.BuyerID == ref.BuyerID && sale.ProductID == ref.ProductID {
			return sale, true
		}
	}
	return Sale{}, false
}

// All returns every stored sale regardless of session
func (s *Service) All(ctx context.Context) ([]Sale, error) {
	return s.filter(ctx, func(Sale) bool { return true })
}

// UpdateStatus moves one of the signed-in seller's sales along the
// fulfilment sequence
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Sale, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}

	var from Status
	var updated Sale
	err := s.sales.Save(ctx, func(items []Sale) ([]Sale, error) {
		idx := slices.IndexFunc(items, func(sale Sale) bool { return sale.ID == id })
		if idx < 0 {
			if id == demoSaleID {
				return nil, errDemoIsReadOnly
			}
			return nil, ErrSaleNotFound
		}
		sale := &items[idx]
		if sale.SellerID != me.ID {
			return nil, ErrNotSeller
		}
		if !sale.CanTransitionTo(status) {
			return nil, sale.transitionError(status)
		}
		from = sale.Status
		sale.Status = status
		updated = *sale
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sale status changed",
		zap.String("sale_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	store.Emit(ctx, s.eventStore, s.logger, id, AggregateType, EventSaleStatusChanged, SaleStatusChanged{
		SaleID:    id,
		SellerID:  updated.SellerID,
		From:      from,
		To:        status,
		ChangedAt: s.now(),
	})
	return &updated, nil
}

// Reload drops the cached sales
func (s *Service) Reload() {
	s.sales.Reload()
}

func (s *Service) filter(ctx context.Context, keep func(Sale) bool) ([]Sale, error) {
	items, err := s.sales.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Sale, 0, len(items))
	for _, sale := range items {
		if keep(sale) {
			out = append(out, sale)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
