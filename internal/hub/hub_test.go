package hub_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/hub"
	"github.com/sharehub/sharehub/internal/ledger/memledger"
	"github.com/sharehub/sharehub/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var (
	owner        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	hubAccount   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	shareToken   = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	feeRecipient = common.HexToAddress("0x00000000000000000000000000000000000000a4")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob          = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol        = common.HexToAddress("0x00000000000000000000000000000000000000b3")
)

// fixedClock implements adapter.Clock returning a pinned time
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time                         { return c.now }
func (c *fixedClock) Since(t time.Time) time.Duration       { return c.now.Sub(t) }
func (c *fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

var _ adapter.Clock = (*fixedClock)(nil)

// capturePublisher records every published event for assertions
type capturePublisher struct {
	mu     sync.Mutex
	events []*domain.HubEvent
}

func (p *capturePublisher) PublishEvent(_ context.Context, event *domain.HubEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() {}

func (p *capturePublisher) types() []domain.HubEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.HubEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *capturePublisher) last() *domain.HubEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// testHub bundles a hub with its in-memory collaborators
type testHub struct {
	hub    *hub.Hub
	shares *memledger.ShareLedger
	bank   *memledger.Bank
	events *capturePublisher
	clock  *fixedClock
}

// setupHub creates a hub wired to fresh in-memory collaborators
func setupHub(t *testing.T) *testHub {
	t.Helper()

	shares := memledger.NewShareLedger(hubAccount)
	bank := memledger.NewBank()
	events := &capturePublisher{}
	clock := &fixedClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	h, err := hub.New(
		hub.Config{
			Owner:        owner,
			Account:      hubAccount,
			ShareToken:   shareToken,
			FeeRecipient: feeRecipient,
			FeeBps:       250,
		},
		shares, bank, events, clock,
	)
	require.NoError(t, err)

	return &testHub{hub: h, shares: shares, bank: bank, events: events, clock: clock}
}

// registerAsset mints the initial supply and registers the asset as the
// share-token collaborator would
func (th *testHub) registerAsset(t *testing.T, tokenID domain.TokenID, to common.Address, totalShares uint64) {
	t.Helper()
	th.shares.Mint(tokenID, to, totalShares)
	require.NoError(t, th.hub.RegisterAsset(context.Background(), shareToken, tokenID, to, totalShares, "ipfs://asset"))
}

// transferShares moves shares on the ledger and mirrors the transfer into the
// hub, as the collaborator does for every executed transfer
func (th *testHub) transferShares(t *testing.T, tokenID domain.TokenID, from, to common.Address, amount uint64) {
	t.Helper()
	th.shares.SetApprovalForAll(from, hubAccount, true)
	require.NoError(t, th.shares.SafeTransferFrom(context.Background(), from, to, tokenID, amount))
	require.NoError(t, th.hub.UpdateOwnership(context.Background(), shareToken, tokenID, &from, &to, amount))
}

func TestNew_Validation(t *testing.T) {
	shares := memledger.NewShareLedger(hubAccount)
	bank := memledger.NewBank()
	clock := &fixedClock{now: time.Now()}

	_, err := hub.New(hub.Config{Account: hubAccount}, shares, bank, nil, clock)
	require.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))

	_, err = hub.New(hub.Config{Owner: owner}, shares, bank, nil, clock)
	require.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))

	_, err = hub.New(hub.Config{Owner: owner, Account: hubAccount, FeeBps: 1001}, shares, bank, nil, clock)
	require.Equal(t, domain.ErrCodeValidation, domain.CodeOf(err))
}

func TestNew_Defaults(t *testing.T) {
	shares := memledger.NewShareLedger(hubAccount)
	bank := memledger.NewBank()
	clock := &fixedClock{now: time.Now()}

	h, err := hub.New(hub.Config{Owner: owner, Account: hubAccount, ShareToken: shareToken}, shares, bank, nil, clock)
	require.NoError(t, err)

	require.Equal(t, uint64(250), h.PlatformFeeBps())
	require.Equal(t, owner, h.FeeRecipient()) // falls back to owner
	require.False(t, h.Paused())
}
