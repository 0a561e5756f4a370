package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrCorrupted marks a stored value that cannot be decoded into the expected shape
var ErrCorrupted = errors.New("stored value is corrupted")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on v (a struct or pointer to struct)
func Validate(v any) error {
	return validate.Struct(v)
}

// ValidateVar checks a single value against a validator tag
func ValidateVar(v any, tag string) error {
	return validate.Var(v, tag)
}

// Collection is a JSON list persisted under one key. Records are cached in
// memory after the first read and the whole list is flushed on every write.
type Collection[T any] struct {
	kv     KeyValueStore
	key    string
	logger *zap.Logger

	writeMu sync.Mutex // held from Stage until the Change is committed or discarded
	mu      sync.Mutex
	items   []T
	loaded  bool
}

func NewCollection[T any](kv KeyValueStore, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		kv:     kv,
		key:    key,
		logger: logger.With(zap.String("key", key)),
	}
}

// Key returns the storage key of the collection
func (c *Collection[T]) Key() string { return c.key }

// Items returns a copy of all records, loading them on first use
func (c *Collection[T]) Items(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(c.items), nil
}

// Reload drops the cache so the next access reads the store again
func (c *Collection[T]) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
}

// Stage computes the next state of the collection without writing it.
// The returned Change must be passed to Commit to take effect. Until it is
// committed or discarded, other writers of the collection block.
func (c *Collection[T]) Stage(ctx context.Context, fn func(items []T) ([]T, error)) (*Change, error) {
	c.writeMu.Lock()

	change, err := c.stage(ctx, fn)
	if err != nil {
		c.writeMu.Unlock()
		return nil, err
	}
	change.release = c.writeMu.Unlock
	return change, nil
}

func (c *Collection[T]) stage(ctx context.Context, fn func(items []T) ([]T, error)) (*Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	next, err := fn(slices.Clone(c.items))
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []T{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", c.key, err)
	}

	return &Change{
		Key:   c.key,
		Value: string(data),
		apply: func() {
			c.mu.Lock()
			c.items = next
			c.loaded = true
			c.mu.Unlock()
		},
	}, nil
}

// Save runs a read-modify-write cycle and flushes the result
func (c *Collection[T]) Save(ctx context.Context, fn func(items []T) ([]T, error)) error {
	change, err := c.Stage(ctx, fn)
	if err != nil {
		return err
	}
	return Commit(ctx, c.kv, change)
}

func (c *Collection[T]) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.key, err)
	}

	items := []T{}
	if ok {
		decoded, err := DecodeList[T](raw)
		if err != nil {
			c.logger.Warn("Discarding corrupted collection", zap.Error(err))
			if rmErr := c.kv.Remove(ctx, c.key); rmErr != nil {
				c.logger.Warn("Failed to remove corrupted key", zap.Error(rmErr))
			}
		} else {
			items = decoded
		}
	}

	c.items = items
	c.loaded = true
	return nil
}

// DecodeList parses a JSON array and validates every record in it
func DecodeList[T any](raw string) ([]T, error) {
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	for i := range items {
		if err := Validate(&items[i]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupted, i, err)
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Change is a pending write of one key produced by Collection.Stage
type Change struct {
	Key   string
	Value string

	apply   func()
	release func()
	once    sync.Once
}

// Commit writes the changes and updates the owning caches. Stores that
// implement Batcher write all changes in one atomic step; other stores are
// written in argument order and Commit stops at the first failure, leaving
// earlier changes applied. Every change is released when Commit returns.
func Commit(ctx context.Context, kv KeyValueStore, changes ...*Change) error {
	defer Discard(changes...)

	if b, ok := kv.(Batcher); ok && len(changes) > 1 {
		entries := make(map[string]string, len(changes))
		for _, ch := range changes {
			entries[ch.Key] = ch.Value
		}
		if err := b.SetMany(ctx, entries); err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}
		for _, ch := range changes {
			ch.commit()
		}
		return nil
	}

	for _, ch := range changes {
		if err := kv.Set(ctx, ch.Key, ch.Value); err != nil {
			return fmt.Errorf("failed to write %s: %w", ch.Key, err)
		}
		ch.commit()
	}
	return nil
}

// Discard drops staged changes that will not be committed and unblocks
// their collections. Nil and already released changes are ignored.
func Discard(changes ...*Change) {
	for _, ch := range changes {
		if ch != nil {
			ch.done()
		}
	}
}

func (ch *Change) commit() {
	if ch.apply != nil {
		ch.apply()
	}
	ch.done()
}

func (ch *Change) done() {
	ch.once.Do(func() {
		if ch.release != nil {
			ch.release()
		}
	})
}
