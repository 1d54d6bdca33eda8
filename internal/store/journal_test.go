package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/store"
	"github.com/sharehub/sharehub/internal/store/schema"
)

// flakyStore fails the first few appends, then succeeds
type flakyStore struct {
	failures int
	appended []*schema.HubEvent
}

func (s *flakyStore) AppendEvent(_ context.Context, event *schema.HubEvent) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	s.appended = append(s.appended, event)
	return nil
}

func (s *flakyStore) ListEventsAfter(_ context.Context, _ string, _ int) ([]schema.HubEvent, error) {
	return nil, nil
}

func (s *flakyStore) ListEventsByType(_ context.Context, _ domain.HubEventType, _ int) ([]schema.HubEvent, error) {
	return nil, nil
}

func TestJournalPublisher_AppendsEvent(t *testing.T) {
	st := &flakyStore{}
	publisher := store.NewJournalPublisher(st, adapter.NewJSON(), time.Second)

	tokenID := domain.TokenID(7)
	seller := common.HexToAddress("0x01")
	event := domain.NewHubEvent(domain.EventTypeListingCreated, time.Now())
	event.TokenID = &tokenID
	event.Seller = &seller
	event.Shares = 10

	require.NoError(t, publisher.PublishEvent(context.Background(), event))
	require.Len(t, st.appended, 1)

	row := st.appended[0]
	assert.Equal(t, event.ID, row.ID)
	assert.Equal(t, domain.EventTypeListingCreated, row.Type)
	require.NotNil(t, row.TokenID)
	assert.Equal(t, uint64(7), *row.TokenID)
	assert.Nil(t, row.ListingID)

	// The full event survives in the payload
	var decoded domain.HubEvent
	require.NoError(t, json.Unmarshal(row.Payload, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, uint64(10), decoded.Shares)
}

func TestJournalPublisher_RetriesTransientFailures(t *testing.T) {
	st := &flakyStore{failures: 2}
	publisher := store.NewJournalPublisher(st, adapter.NewJSON(), 10*time.Second)

	event := domain.NewHubEvent(domain.EventTypePaused, time.Now())
	require.NoError(t, publisher.PublishEvent(context.Background(), event))
	assert.Len(t, st.appended, 1)
}

func TestJournalPublisher_GivesUpWhenContextCancelled(t *testing.T) {
	st := &flakyStore{failures: 1 << 30}
	publisher := store.NewJournalPublisher(st, adapter.NewJSON(), time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	event := domain.NewHubEvent(domain.EventTypePaused, time.Now())
	err := publisher.PublishEvent(ctx, event)
	assert.Error(t, err)
	assert.Empty(t, st.appended)
}
