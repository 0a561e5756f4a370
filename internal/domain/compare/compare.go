// Package compare keeps the short list of catalog products a visitor is
// comparing side by side. The list lives in memory only.
package compare

import (
	"errors"
	"slices"
	"sync"

	"github.com/example/furniture-market/internal/domain/catalog"
)

const MaxItems = 4

var (
	ErrListFull     = errors.New("compare list is full")
	ErrAlreadyAdded = errors.New("product is already in the compare list")
)

type List struct {
	mu    sync.Mutex
	items []catalog.Product
}

func NewList() *List {
	return &List{}
}

// Add appends p unless the list is full or already holds it
func (l *List) Add(p catalog.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(p.ID) >= 0 {
		return ErrAlreadyAdded
	}
	if len(l.items) >= MaxItems {
		return ErrListFull
	}
	l.items = append(l.items, p)
	return nil
}

func (l *List) Remove(productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.indexOf(productID); idx >= 0 {
		l.items = slices.Delete(l.items, idx, idx+1)
	}
}

func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

func (l *List) Contains(productID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexOf(productID) >= 0
}

// Items returns the products in the order they were added
func (l *List) Items() []catalog.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]catalog.Product{}, l.items...)
}

func (l *List) indexOf(id string) int {
	return slices.IndexFunc(l.items, func(p catalog.Product) bool { return p.ID == id })
}
