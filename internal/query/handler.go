package query

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/example/furniture-market/internal/domain/cart"
	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/comment"
	"github.com/example/furniture-market/internal/domain/listing"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
	"github.com/example/furniture-market/internal/domain/user"
)

type Handler struct {
	identity   user.Identity
	catalog    *catalog.Catalog
	cartSvc    *cart.Service
	listingSvc *listing.Service
	offerSvc   *offer.Service
	orderSvc   *order.Service
	saleSvc    *sale.Service
	commentSvc *comment.Service
}

func NewHandler(
	identity user.Identity,
	products *catalog.Catalog,
	cartSvc *cart.Service,
	listingSvc *listing.Service,
	offerSvc *offer.Service,
	orderSvc *order.Service,
	saleSvc *sale.Service,
	commentSvc *comment.Service,
) *Handler {
	return &Handler{
		identity:   identity,
		catalog:    products,
		cartSvc:    cartSvc,
		listingSvc: listingSvc,
		offerSvc:   offerSvc,
		orderSvc:   orderSvc,
		saleSvc:    saleSvc,
		commentSvc: commentSvc,
	}
}

// Dashboard collects the signed-in user's listings, offers, orders and sales
func (h *Handler) Dashboard(ctx context.Context) (*Dashboard, error) {
	me, ok := h.identity.Current()
	if !ok {
		return nil, user.ErrNotLoggedIn
	}

	d := &Dashboard{User: me}
	var err error
	if d.Listings, err = h.listingSvc.ListByUser(ctx); err != nil {
		return nil, err
	}
	if d.OffersReceived, err = h.offerSvc.BySeller(ctx); err != nil {
		return nil, err
	}
	if d.OffersSent, err = h.offerSvc.ByBuyer(ctx); err != nil {
		return nil, err
	}
	if d.Orders, err = h.orderSvc.ListByUser(ctx); err != nil {
		return nil, err
	}
	if d.Sales, err = h.saleSvc.BySeller(ctx); err != nil {
		return nil, err
	}

	d.Revenue = decimal.Zero
	for _, s := range d.Sales {
		if !s.Demo {
			d.Revenue = d.Revenue.Add(decimal.NewFromFloat(s.Total))
		}
	}
	return d, nil
}

// Browse filters the catalog together with published listings and returns
// one page. Catalog products come first.
func (h *Handler) Browse(ctx context.Context, q catalog.Query, page int) (catalog.Page, error) {
	published, err := h.listingSvc.ListPublished(ctx)
	if err != nil {
		return catalog.Page{}, err
	}

	items := h.catalog.All()
	for _, l := range published {
		items = append(items, fromListing(l))
	}
	return catalog.Paginate(catalog.FilterProducts(items, q), page, catalog.DefaultPerPage), nil
}

// Product returns the detail view of a catalog product or published listing
func (h *Handler) Product(ctx context.Context, id string) (*ProductDetail, error) {
	detail := &ProductDetail{}
	if p, err := h.catalog.Find(id); err == nil {
		detail.Product = p
	} else {
		l, err := h.listingSvc.Get(ctx, id)
		if errors.Is(err, listing.ErrListingNotFound) || (err == nil && !l.Published()) {
			return nil, catalog.ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}
		detail.Product = fromListing(*l)
		detail.ListingID = l.ID
	}

	var err error
	if detail.Comments, err = h.commentSvc.ByProduct(ctx, id); err != nil {
		return nil, err
	}
	if detail.InCart, err = h.cartSvc.Contains(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func fromListing(l listing.Listing) catalog.Product {
	p := catalog.Product{
		ID:            l.ID,
		Name:          l.Name,
		Price:         l.Price,
		Images:        l.Images,
		Category:      l.Category,
		Condition:     l.Condition,
		Description:   l.Description,
		AcceptsBarter: l.AcceptsBarter,
		SellerID:      l.UserID,
		Dimensions: catalog.Dimensions{
			Width:  l.Dimensions.Width,
			Height: l.Dimensions.Height,
			Depth:  l.Dimensions.Depth,
		},
	}
	if len(l.Images) > 0 {
		p.Image = l.Images[0]
	}
	return p
}
