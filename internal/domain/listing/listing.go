package listing

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

const AggregateType = "Listing"

type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusActive        Status = "active"
	StatusSold          Status = "sold"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidListing  = errors.New("invalid listing")
	ErrInvalidStatus   = errors.New("invalid listing status transition")
)

// validTransitions defines allowed moderation transitions
var validTransitions = map[Status][]Status{
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusApproved:      {StatusActive, StatusSold},
	StatusActive:        {StatusSold},
	StatusRejected:      {}, // terminal state
	StatusSold:          {}, // terminal state
}

// CanTransition reports whether from -> to is an allowed move
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

type Dimensions struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	Depth  float64 `json:"depth" validate:"gte=0"`
}

type Listing struct {
	ID            string     `json:"id" validate:"required"`
	UserID        string     `json:"userId"`
	Name          string     `json:"name" validate:"required"`
	Category      string     `json:"category"`
	Condition     string     `json:"condition"`
	Price         float64    `json:"price" validate:"gte=0"`
	Description   string     `json:"description"`
	Images        []string   `json:"images"`
	Dimensions    Dimensions `json:"dimensions"`
	AcceptsBarter bool       `json:"acceptsBarter"`
	Status        Status     `json:"status" validate:"oneof=pending_review approved rejected active sold"`
	ReviewNote    string     `json:"reviewNote,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Published reports whether buyers can see the listing
func (l Listing) Published() bool {
	return l.Status == StatusApproved || l.Status == StatusActive
}

// Draft is the seller-supplied part of a listing
type Draft struct {
	Name          string  `validate:"required"`
	Category      string  `validate:"required"`
	Condition     string  `validate:"required"`
	Price         float64 `validate:"gt=0"`
	Description   string
	Images        []string
	Dimensions    Dimensions
	AcceptsBarter bool
}

type Service struct {
	listings   *store.Collection[Listing]
	identity   user.Identity
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(kv store.KeyValueStore, keys store.Keys, identity user.Identity, es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "listing"))
	return &Service{
		listings:   store.NewCollection[Listing](kv, keys.For(store.KeyListings), logger),
		identity:   identity,
		eventStore: es,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit stores a new listing owned by the signed-in user, awaiting review
func (s *Service) Submit(ctx context.Context, d Draft) (*Listing, error) {
	me, ok := s.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}
	if err := store.Validate(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	now := s.now()
	l := Listing{
		ID:            uuid.New().String(),
		UserID:        me.ID,
		Name:          d.Name,
		Category:      d.Category,
		Condition:     d.Condition,
		Price:         d.Price,
		Description:   d.Description,
		Images:        slices.Clone(d.Images),
		Dimensions:    d.Dimensions,
		AcceptsBarter: d.AcceptsBarter,
		Status:        StatusPendingReview,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if l.Images == nil {
		l.Images = []string{}
	}

	err := s.listings.Save(ctx, func(items []Listing) ([]Listing, error) {
		return append(items, l), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listing submitted", zap.String("listing_id", l.ID), zap.String("user_id", me.ID))
	store.Emit(ctx, s.eventStore, s.logger, l.ID, AggregateType, EventListingSubmitted, ListingSubmitted{
		ListingID:   l.ID,
		UserID:      me.ID,
		Name:        l.Name,
		Price:       l.Price,
		SubmittedAt: now,
	})
	return &l, nil
}

// ListByUser returns the signed-in user's listings, newest first
func (s *Service) ListByUser(ctx context.Context) ([]Listing, error) {
	me, ok := s.identity.Current()
	if !ok {
		return []Listing{}, nil
	}
	return s.filter(ctx, func(l Listing) bool { return l.UserID == me.ID })
}

// ListPublished returns approved and active listings of every seller
func (s *Service) ListPublished(ctx context.Context) ([]Listing, error) {
	return s.filter(ctx, Listing.Published)
}

// Get finds a listing by id
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	items, err := s.listings.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range items {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, ErrListingNotFound
}

// UpdateStatus moves a listing through moderation. note replaces the review
// note; an empty note clears it.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, note string) (*Listing, error) {
	var from Status
	var updated Listing
	if err := s.listings.Save(ctx, s.transition(id, status, note, &from, &updated)); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, from, &updated)
	return &updated, nil
}

// StageStatus prepares a status change for a multi-collection commit.
// The returned func records the event once the commit succeeded.
func (s *Service) StageStatus(ctx context.Context, id string, status Status, note string) (*store.Change, func(context.Context), error) {
	var from Status
	var updated Listing
	change, err := s.listings.Stage(ctx, s.transition(id, status, note, &from, &updated))
	if err != nil {
		return nil, nil, err
	}
	return change, func(ctx context.Context) { s.statusChanged(ctx, from, &updated) }, nil
}

func (s *Service) transition(id string, status Status, note string, from *Status, updated *Listing) func([]Listing) ([]Listing, error) {
	return func(items []Listing) ([]Listing, error) {
		idx := slices.IndexFunc(items, func(l Listing) bool { return l.ID == id })
		if idx < 0 {
			return nil, ErrListingNotFound
		}
		*from = items[idx].Status
		if !CanTransition(*from, status) {
			return nil, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, *from, status)
		}
		items[idx].Status = status
		items[idx].ReviewNote = note
		items[idx].UpdatedAt = s.now()
		*updated = items[idx]
		return items, nil
	}
}

func (s *Service) statusChanged(ctx context.Context, from Status, l *Listing) {
	s.logger.Info("Listing status changed",
		zap.String("listing_id", l.ID),
		zap.String("from", string(from)),
		zap.String("to", string(l.Status)))
	store.Emit(ctx, s.eventStore, s.logger, l.ID, AggregateType, EventListingStatusChanged, ListingStatusChanged{
		ListingID: l.ID,
		From:      from,
		To:        l.Status,
		Note:      l.ReviewNote,
		ChangedAt: l.UpdatedAt,
	})
}

// Reload drops the cached listings
func (s *Service) Reload() {
	s.listings.Reload()
}

func (s *Service) filter(ctx context.Context, keep func(Listing) bool) ([]Listing, error) {
	items, err := s.listings.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
