package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/domain/cart"
	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/listing"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

// DefaultSellerID owns catalog products that do not name a seller
const DefaultSellerID = "seller-1"

const addressToBeConfirmed = "To be confirmed"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOwnListing      = errors.New("cannot buy your own listing")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Handler runs the workflows that span more than one collection. Every
// workflow holds the handler lock, so two workflows never interleave their
// staged writes. Staging also blocks plain writers of the staged
// collections until the commit finishes.
type Handler struct {
	mu sync.Mutex

	kv         store.KeyValueStore
	identity   user.Identity
	catalog    *catalog.Catalog
	cartSvc    *cart.Service
	listingSvc *listing.Service
	offerSvc   *offer.Service
	orderSvc   *order.Service
	saleSvc    *sale.Service
	logger     *zap.Logger
}

func NewHandler(
	kv store.KeyValueStore,
	identity user.Identity,
	products *catalog.Catalog,
	cartSvc *cart.Service,
	listingSvc *listing.Service,
	offerSvc *offer.Service,
	orderSvc *order.Service,
	saleSvc *sale.Service,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		kv:         kv,
		identity:   identity,
		catalog:    products,
		cartSvc:    cartSvc,
		listingSvc: listingSvc,
		offerSvc:   offerSvc,
		orderSvc:   orderSvc,
		saleSvc:    saleSvc,
		logger:     logger.With(zap.String("component", "command")),
	}
}

// product is what a workflow needs to know about something for sale,
// whether it comes from the catalog or from a user listing
type product struct {
	ID       string
	Name     string
	Image    string
	Price    float64
	SellerID string
	listing  *listing.Listing
}

func (h *Handler) resolveProduct(ctx context.Context, id string) (*product, error) {
	if p, err := h.catalog.Find(id); err == nil {
		sellerID := p.SellerID
		if sellerID == "" {
			sellerID = DefaultSellerID
		}
		return &product{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price, SellerID: sellerID}, nil
	}

	l, err := h.listingSvc.Get(ctx, id)
	if errors.Is(err, listing.ErrListingNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !l.Published() {
		return nil, ErrProductNotFound
	}

	image := ""
	if len(l.Images) > 0 {
		image = l.Images[0]
	}
	return &product{ID: l.ID, Name: l.Name, Image: image, Price: l.Price, SellerID: l.UserID, listing: l}, nil
}

// SubmitListing puts a new listing up for review
func (h *Handler) SubmitListing(ctx context.Context, d listing.Draft) (*listing.Listing, error) {
	return h.listingSvc.Submit(ctx, d)
}

// MakeOffer sends an offer for a catalog product or a published listing
func (h *Handler) MakeOffer(ctx context.Context, cmd MakeOffer) (*offer.Offer, error) {
	p, err := h.resolveProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	return h.offerSvc.Make(ctx, offer.Draft{
		Type:         cmd.Type,
		Item:         cmd.Item,
		ItemImage:    cmd.ItemImage,
		Amount:       cmd.Amount,
		ForItem:      p.Name,
		ForItemID:    p.ID,
		ForItemImage: p.Image,
		ForItemPrice: p.Price,
		SellerID:     p.SellerID,
	})
}

// AcceptOffer accepts a pending offer and records the resulting sale. The
// offer status and the sale are committed together; on a store without
// batch writes the offer is written first, and ReconcileAcceptedOffers
// repairs an accepted offer whose sale write failed.
func (h *Handler) AcceptOffer(ctx context.Context, cmd AcceptOffer) (*sale.Sale, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	offerChange, accepted, offerDone, err := h.offerSvc.StageAccept(ctx, cmd.OfferID)
	if err != nil {
		return nil, err
	}

	saleChange, sales, saleDone, err := h.saleSvc.StageRecord(ctx, saleFromOffer(*accepted))
	if err != nil {
		store.Discard(offerChange)
		return nil, err
	}

	if err := store.Commit(ctx, h.kv, offerChange, saleChange); err != nil {
		h.logger.Error("Failed to commit accepted offer",
			zap.String("offer_id", cmd.OfferID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}

	offerDone(ctx)
	saleDone(ctx)
	return &sales[0], nil
}

// DeclineOffer closes a pending offer
func (h *Handler) DeclineOffer(ctx context.Context, cmd DeclineOffer) (*offer.Offer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offerSvc.Decline(ctx, cmd.OfferID)
}

// CounterOffer closes a pending offer with a counter amount
func (h *Handler) CounterOffer(ctx context.Context, cmd CounterOffer) (*offer.Offer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offerSvc.Counter(ctx, cmd.OfferID, cmd.Amount)
}

// ReconcileAcceptedOffers records the missing sale of every accepted offer
// that has none and returns the sales it created. Sales without an offer id
// are matched on seller, buyer and product.
func (h *Handler) ReconcileAcceptedOffers(ctx context.Context) ([]sale.Sale, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	accepted, err := h.offerSvc.Accepted(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := h.saleSvc.All(ctx)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]bool)
	var drafts []sale.Draft
	for _, o := range accepted {
		ref := sale.OfferRef{OfferID: o.ID, SellerID: o.SellerID, BuyerID: o.FromID, ProductID: o.ForItemID}
		if found, ok := sale.MatchOffer(existing, ref, claimed); ok {
			claimed[found.ID] = true
			continue
		}
		h.logger.Warn("Accepted offer has no sale, recording it", zap.String("offer_id", o.ID))
		drafts = append(drafts, saleFromOffer(o))
	}
	if len(drafts) == 0 {
		return []sale.Sale{}, nil
	}

	change, created, done, err := h.saleSvc.StageRecord(ctx, drafts...)
	if err != nil {
		return nil, err
	}
	if err := store.Commit(ctx, h.kv, change); err != nil {
		return nil, fmt.Errorf("failed to record reconciled sales: %w", err)
	}
	done(ctx)
	return created, nil
}

// saleFromOffer builds the seller's sale for an accepted offer. Delivery
// details are settled later, so the address is a placeholder.
func saleFromOffer(o offer.Offer) sale.Draft {
	price := o.SalePrice()
	return sale.Draft{
		SellerID:       o.SellerID,
		BuyerID:        o.FromID,
		BuyerName:      o.From,
		BuyerEmail:     buyerEmail(o.From),
		ProductID:      o.ForItemID,
		ProductName:    o.ForItem,
		ProductImage:   o.ForItemImage,
		ProductPrice:   price,
		ShippingMethod: string(order.ShippingStandard),
		ShippingPrice:  0,
		BuyerAddress: user.Address{
			Street: addressToBeConfirmed,
			City:   addressToBeConfirmed,
		},
		Status:  sale.StatusConfirmed,
		OfferID: o.ID,
	}
}

// buyerEmail derives a placeholder address from a display name: "Leyla
// Aliyeva" becomes "leyla.aliyeva@example.com". Only the first space is
// replaced.
func buyerEmail(name string) string {
	return strings.Replace(strings.ToLower(name), " ", ".", 1) + "@example.com"
}

// Checkout places an order for one product. Buying another user's listing
// also records a pending sale for its seller and marks the listing sold,
// all in one commit.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (*order.Order, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	me, ok := h.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}
	p, err := h.resolveProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if p.listing != nil && p.SellerID == me.ID {
		return nil, ErrOwnListing
	}

	orderChange, placed, orderDone, err := h.orderSvc.StagePlace(ctx, order.Draft{
		ProductID:      p.ID,
		ProductName:    p.Name,
		ProductImage:   p.Image,
		ProductPrice:   p.Price,
		ShippingMethod: cmd.ShippingMethod,
		Address:        cmd.Address,
	})
	if err != nil {
		return nil, err
	}
	o := placed[0]

	changes := []*store.Change{orderChange}
	dones := []func(context.Context){orderDone}

	if p.listing != nil {
		saleChange, _, saleDone, err := h.saleSvc.StageRecord(ctx, sale.Draft{
			SellerID:       p.SellerID,
			BuyerID:        me.ID,
			BuyerName:      cmd.Address.FullName,
			BuyerEmail:     cmd.Address.Email,
			ProductID:      p.ID,
			ProductName:    p.Name,
			ProductImage:   p.Image,
			ProductPrice:   p.Price,
			ShippingMethod: string(o.ShippingMethod),
			ShippingPrice:  o.ShippingCost,
			BuyerAddress:   user.Address{Street: cmd.Address.Street, City: cmd.Address.City},
			Status:         sale.StatusPending,
		})
		if err != nil {
			store.Discard(changes...)
			return nil, err
		}
		changes = append(changes, saleChange)
		dones = append(dones, saleDone)

		listingChange, listingDone, err := h.listingSvc.StageStatus(ctx, p.ID, listing.StatusSold, "")
		if err != nil {
			store.Discard(changes...)
			return nil, err
		}
		changes = append(changes, listingChange)
		dones = append(dones, listingDone)
	}

	if err := store.Commit(ctx, h.kv, changes...); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	for _, done := range dones {
		done(ctx)
	}
	return &o, nil
}

// CheckoutCart places one order per cart item and empties the cart
func (h *Handler) CheckoutCart(ctx context.Context, cmd CheckoutCart) ([]order.Order, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items, err := h.cartSvc.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	drafts := make([]order.Draft, 0, len(items))
	for _, item := range items {
		drafts = append(drafts, order.Draft{
			ProductID:      item.ID,
			ProductName:    item.Name,
			ProductImage:   item.Image,
			ProductPrice:   item.Price,
			ShippingMethod: cmd.ShippingMethod,
			Address:        cmd.Address,
		})
	}

	orderChange, placed, orderDone, err := h.orderSvc.StagePlace(ctx, drafts...)
	if err != nil {
		return nil, err
	}
	cartChange, cartDone, err := h.cartSvc.StageClear(ctx)
	if err != nil {
		store.Discard(orderChange)
		return nil, err
	}

	if err := store.Commit(ctx, h.kv, orderChange, cartChange); err != nil {
		return nil, fmt.Errorf("failed to check out cart: %w", err)
	}
	orderDone(ctx)
	cartDone(ctx)
	return placed, nil
}
