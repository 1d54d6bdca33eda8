package bridge_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/bridge"
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
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	hubAccount = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	shareToken = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// fakeMessage implements adapter.Message, recording the delivery outcome
type fakeMessage struct {
	data []byte
	done chan string // "ack", "nak" or "term"
}

func newFakeMessage(t *testing.T, event domain.LedgerEvent) *fakeMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &fakeMessage{data: data, done: make(chan string, 1)}
}

func (m *fakeMessage) Data() []byte                            { return m.data }
func (m *fakeMessage) Metadata() (*jetstream.MsgMetadata, error) { return nil, nil }
func (m *fakeMessage) Ack() error                              { m.done <- "ack"; return nil }
func (m *fakeMessage) Nak() error                              { m.done <- "nak"; return nil }
func (m *fakeMessage) Term() error                             { m.done <- "term"; return nil }

func (m *fakeMessage) outcome(t *testing.T) string {
	t.Helper()
	select {
	case outcome := <-m.done:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("message was never acknowledged")
		return ""
	}
}

// fakeConsumeContext implements adapter.ConsumeContext
type fakeConsumeContext struct {
	closed chan struct{}
	once   sync.Once
}

func (c *fakeConsumeContext) Stop()                   { c.once.Do(func() { close(c.closed) }) }
func (c *fakeConsumeContext) Drain()                  { c.Stop() }
func (c *fakeConsumeContext) Closed() <-chan struct{} { return c.closed }

// fakeConsumer implements adapter.Consumer, handing the handler to the test
type fakeConsumer struct {
	handlerCh chan adapter.MessageHandler
}

func (c *fakeConsumer) Consume(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
	c.handlerCh <- handler
	return &fakeConsumeContext{closed: make(chan struct{})}, nil
}

func (c *fakeConsumer) Info(_ context.Context) (*jetstream.ConsumerInfo, error) {
	return nil, nil
}

// fakeJetStream implements adapter.JetStream
type fakeJetStream struct {
	consumer *fakeConsumer
}

func (j *fakeJetStream) Publish(_ context.Context, _ string, _ []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return &jetstream.PubAck{}, nil
}

func (j *fakeJetStream) CreateOrUpdateConsumer(_ context.Context, _ string, _ jetstream.ConsumerConfig) (adapter.Consumer, error) {
	return j.consumer, nil
}

// fakeNatsConn implements adapter.NatsConn
type fakeNatsConn struct{}

func (c *fakeNatsConn) Close()               {}
func (c *fakeNatsConn) LastError() error     { return nil }
func (c *fakeNatsConn) ConnectedUrl() string { return "nats://fake" }

// fakeNatsJetStream implements adapter.NatsJetStream
type fakeNatsJetStream struct {
	js *fakeJetStream
}

func (n *fakeNatsJetStream) Connect(_ string, _ ...nats.Option) (adapter.NatsConn, adapter.JetStream, error) {
	return &fakeNatsConn{}, n.js, nil
}

type testBridge struct {
	bridge  bridge.Bridge
	hub     *hub.Hub
	shares  *memledger.ShareLedger
	handler adapter.MessageHandler
	cancel  context.CancelFunc
}

// setupBridge starts a bridge over a fake JetStream and waits until it is
// consuming
func setupBridge(t *testing.T) *testBridge {
	t.Helper()

	shares := memledger.NewShareLedger(hubAccount)
	bank := memledger.NewBank()

	h, err := hub.New(
		hub.Config{Owner: owner, Account: hubAccount, ShareToken: shareToken},
		shares, bank, nil, adapter.NewClock(),
	)
	require.NoError(t, err)

	consumer := &fakeConsumer{handlerCh: make(chan adapter.MessageHandler, 1)}
	natsJS := &fakeNatsJetStream{js: &fakeJetStream{consumer: consumer}}

	b, err := bridge.NewBridge(
		bridge.Config{
			StreamName:   "SHARE_LEDGER_EVENTS",
			ConsumerName: "registryd",
			ShareToken:   shareToken,
		},
		natsJS, h, adapter.NewJSON(),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = b.Run(ctx)
	}()

	var handler adapter.MessageHandler
	select {
	case handler = <-consumer.handlerCh:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge never started consuming")
	}

	t.Cleanup(func() {
		cancel()
		b.Close()
	})

	return &testBridge{bridge: b, hub: h, shares: shares, handler: handler, cancel: cancel}
}

func TestBridge_MintRegistersAsset(t *testing.T) {
	tb := setupBridge(t)

	tb.shares.Mint(1, alice, 100)
	msg := newFakeMessage(t, domain.LedgerEvent{
		Type:        domain.LedgerEventMinted,
		TokenID:     1,
		To:          &alice,
		Amount:      100,
		TotalShares: 100,
		MetadataURI: "ipfs://deed-1",
		Timestamp:   time.Now(),
	})

	tb.handler(msg)
	assert.Equal(t, "ack", msg.outcome(t))

	asset, err := tb.hub.GetAsset(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), asset.TotalShares)
	assert.Equal(t, "ipfs://deed-1", asset.MetadataURI)
	assert.Equal(t, []common.Address{alice}, tb.hub.GetAssetOwners(1))
}

func TestBridge_MintRedeliveryAcked(t *testing.T) {
	tb := setupBridge(t)
	tb.shares.Mint(1, alice, 100)

	event := domain.LedgerEvent{
		Type:        domain.LedgerEventMinted,
		TokenID:     1,
		To:          &alice,
		Amount:      100,
		TotalShares: 100,
		Timestamp:   time.Now(),
	}

	first := newFakeMessage(t, event)
	tb.handler(first)
	assert.Equal(t, "ack", first.outcome(t))

	// The same mint delivered again is acknowledged, not retried forever
	second := newFakeMessage(t, event)
	tb.handler(second)
	assert.Equal(t, "ack", second.outcome(t))
	assert.Equal(t, 1, tb.hub.GetTotalAssets())
}

func TestBridge_TransferUpdatesOwnership(t *testing.T) {
	tb := setupBridge(t)
	tb.shares.Mint(1, alice, 100)

	mint := newFakeMessage(t, domain.LedgerEvent{
		Type: domain.LedgerEventMinted, TokenID: 1, To: &alice, Amount: 100, TotalShares: 100, Timestamp: time.Now(),
	})
	tb.handler(mint)
	require.Equal(t, "ack", mint.outcome(t))

	// Move the full balance on the ledger, then deliver the transfer event
	tb.shares.SetApprovalForAll(alice, hubAccount, true)
	require.NoError(t, tb.shares.SafeTransferFrom(context.Background(), alice, bob, 1, 100))

	transfer := newFakeMessage(t, domain.LedgerEvent{
		Type: domain.LedgerEventTransferred, TokenID: 1, From: &alice, To: &bob, Amount: 100, Timestamp: time.Now(),
	})
	tb.handler(transfer)
	assert.Equal(t, "ack", transfer.outcome(t))

	assert.Equal(t, []common.Address{bob}, tb.hub.GetAssetOwners(1))
	assert.Empty(t, tb.hub.GetOwnerAssets(alice))
}

func TestBridge_InvalidEventTerminated(t *testing.T) {
	tb := setupBridge(t)

	// Zero amount fails structural validation
	msg := newFakeMessage(t, domain.LedgerEvent{
		Type: domain.LedgerEventTransferred, TokenID: 1, From: &alice, To: &bob, Amount: 0,
	})
	tb.handler(msg)
	assert.Equal(t, "term", msg.outcome(t))
}

func TestBridge_UnparseableMessageTerminated(t *testing.T) {
	tb := setupBridge(t)

	msg := &fakeMessage{data: []byte("not json"), done: make(chan string, 1)}
	tb.handler(msg)
	assert.Equal(t, "term", msg.outcome(t))
}

func TestBridge_PausedHubNaksForRedelivery(t *testing.T) {
	tb := setupBridge(t)
	require.NoError(t, tb.hub.Pause(context.Background(), owner))

	tb.shares.Mint(1, alice, 100)
	msg := newFakeMessage(t, domain.LedgerEvent{
		Type: domain.LedgerEventMinted, TokenID: 1, To: &alice, Amount: 100, TotalShares: 100, Timestamp: time.Now(),
	})
	tb.handler(msg)
	assert.Equal(t, "nak", msg.outcome(t))
}
