package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	return p.err
}

func TestEventStore_AppendVersionsPerAggregate(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	e1, err := es.Append(ctx, "offer-1", "Offer", "OfferMade", map[string]string{"id": "offer-1"})
	require.NoError(t, err)
	e2, err := es.Append(ctx, "offer-1", "Offer", "OfferAccepted", nil)
	require.NoError(t, err)
	e3, err := es.Append(ctx, "sale-1", "Sale", "SaleRecorded", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, e1.Version)
	assert.Equal(t, 2, e2.Version)
	assert.Equal(t, 1, e3.Version)
	assert.Len(t, es.GetEvents("offer-1"), 2)

	all := es.GetAllEvents()
	require.Len(t, all, 3)
	assert.Equal(t, "OfferMade", all[0].EventType)
	assert.Equal(t, "SaleRecorded", all[2].EventType)
}

func TestEventStore_PublishesWhenConfigured(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	es := NewEventStore(pub)

	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"order-1"}, pub.keys)
}

func TestEventStore_PublishFailureKeepsEvent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	es := NewEventStore(pub)

	event, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", nil)

	assert.Error(t, err)
	require.NotNil(t, event)
	assert.Len(t, es.GetAllEvents(), 1)
}
