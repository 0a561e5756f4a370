package store

import (
	"context"
	"errors"
)

// DefaultNamespace prefixes every persisted key
const DefaultNamespace = "yeni_nefes_"

// Key suffixes for the persisted collections
const (
	KeyUsers        = "users"
	KeyCurrentUser  = "current_user"
	KeySessionToken = "session_token"
	KeyCart         = "cart"
	KeyListings     = "listings"
	KeyOffers       = "offers"
	KeyOrders       = "orders"
	KeySales        = "sales"
	KeyComments     = "comments"
)

var ErrEmptyKey = errors.New("key is required")

// KeyValueStore is the persistence medium every collection is flushed to.
// Values are JSON documents; a missing key is reported with ok == false.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can write several keys atomically
type Batcher interface {
	SetMany(ctx context.Context, entries map[string]string) error
}

// Keys resolves key suffixes under one application namespace
type Keys struct {
	Namespace string
}

// NewKeys returns Keys for namespace, falling back to DefaultNamespace
func NewKeys(namespace string) Keys {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Keys{Namespace: namespace}
}

// For returns the full key for a suffix
func (k Keys) For(suffix string) string {
	ns := k.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + suffix
}
