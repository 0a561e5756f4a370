package notification

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/email"
	"github.com/example/furniture-market/internal/infrastructure/store"
)

// Mailer sends the notification emails
type Mailer interface {
	SendOrderConfirmation(to string, o email.OrderSummary) error
	SendOfferAccepted(to string, n email.SaleSummary) error
	SendSaleNotice(to string, n email.SaleSummary) error
}

// Directory looks up registered users
type Directory interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Handler processes events for sending notifications
type Handler struct {
	mailer    Mailer
	directory Directory
	logger    *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, directory Directory, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		mailer:    mailer,
		directory: directory,
		logger:    logger.With(zap.String("component", "notifier")),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Warn("Failed to unmarshal event", zap.Error(err))
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case sale.EventSaleRecorded:
		return h.handleSaleRecorded(ctx, event)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.logger.Warn("Failed to unmarshal OrderPlaced event", zap.Error(err))
		return err
	}

	h.logger.Info("Processing OrderPlaced event", zap.String("order_id", e.OrderID), zap.String("user_id", e.UserID))

	err := h.mailer.SendOrderConfirmation(e.Email, email.OrderSummary{
		OrderID:        e.OrderID,
		FullName:       e.FullName,
		ProductName:    e.ProductName,
		ShippingMethod: string(e.ShippingMethod),
		Total:          e.Total,
	})
	if err != nil {
		h.logger.Error("Failed to send order confirmation", zap.String("to", e.Email), zap.Error(err))
		return err
	}

	h.logger.Info("Order confirmation email sent", zap.String("to", e.Email), zap.String("order_id", e.OrderID))
	return nil
}

// handleSaleRecorded tells the buyer when the sale came from an accepted
// offer, and the seller when it came from a checkout
func (h *Handler) handleSaleRecorded(ctx context.Context, event store.Event) error {
	var e sale.SaleRecorded
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.logger.Warn("Failed to unmarshal SaleRecorded event", zap.Error(err))
		return err
	}

	summary := email.SaleSummary{SaleID: e.SaleID, ProductName: e.ProductName, Total: e.Total}

	if e.OfferID != "" {
		to, name := e.BuyerEmail, e.BuyerName
		if u, ok := h.lookup(ctx, e.BuyerID); ok {
			to, name = u.Email, u.FullName()
		}
		summary.Name = name
		if err := h.mailer.SendOfferAccepted(to, summary); err != nil {
			h.logger.Error("Failed to send offer accepted notice", zap.String("to", to), zap.Error(err))
			return err
		}
		h.logger.Info("Offer accepted email sent", zap.String("to", to), zap.String("offer_id", e.OfferID))
		return nil
	}

	seller, ok := h.lookup(ctx, e.SellerID)
	if !ok {
		return nil
	}
	summary.Name = seller.FullName()
	if err := h.mailer.SendSaleNotice(seller.Email, summary); err != nil {
		h.logger.Error("Failed to send sale notice", zap.String("to", seller.Email), zap.Error(err))
		return err
	}
	h.logger.Info("Sale notice email sent", zap.String("to", seller.Email), zap.String("sale_id", e.SaleID))
	return nil
}

func (h *Handler) lookup(ctx context.Context, userID string) (*user.User, bool) {
	if h.directory == nil || userID == "" {
		return nil, false
	}
	u, err := h.directory.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			h.logger.Warn("Error getting user", zap.String("user_id", userID), zap.Error(err))
		} else {
			h.logger.Info("User not found", zap.String("user_id", userID))
		}
		return nil, false
	}
	return u, true
}

// CachedDirectory is a Directory that keeps its records in memory
type CachedDirectory interface {
	Directory
	Reload()
}

type freshDirectory struct {
	cached CachedDirectory
}

// Fresh rereads the registry before every lookup, so users registered by
// another process after the notifier started are found
func Fresh(d CachedDirectory) Directory {
	return freshDirectory{cached: d}
}

func (d freshDirectory) FindByID(ctx context.Context, id string) (*user.User, error) {
	d.cached.Reload()
	return d.cached.FindByID(ctx, id)
}
