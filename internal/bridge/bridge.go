// Package bridge feeds share-ledger events from the token collaborator into
// the hub's authority-gated entry points.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/sharehub/sharehub/internal/adapter"
	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/hub"
	"github.com/sharehub/sharehub/internal/logger"
)

// Config holds the configuration for the ledger-event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	// ShareToken is the collaborator identity the bridge acts for; it must
	// match the hub's configured share-token address.
	ShareToken common.Address
}

// Bridge defines the interface for the ledger-event bridge
type Bridge interface {
	// Run starts consuming ledger events until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	hub    *hub.Hub
	json   adapter.JSON
	config Config
}

// NewBridge creates a new ledger-event bridge
func NewBridge(cfg Config, natsJS adapter.NatsJetStream, h *hub.Hub, jsonAdapter adapter.JSON) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:     nc,
		js:     js,
		hub:    h,
		json:   jsonAdapter,
		config: cfg,
	}, nil
}

// Run starts consuming ledger events
func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting ledger-event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: "shares.events.>",
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming ledger events")

	// Messages are applied one at a time: the hub serializes mutation the
	// way the ledger serializes transactions, and the stream's order is the
	// ledger's order.
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down ledger-event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage applies a single ledger event to the hub
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var event domain.LedgerEvent
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal ledger event"))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if !event.Valid() {
		logger.Warn("Dropping invalid ledger event",
			zap.String("type", string(event.Type)),
			zap.Uint64("tokenID", uint64(event.TokenID)))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	if err := b.apply(ctx, &event); err != nil {
		logger.Error(err,
			zap.String("message", "Failed to apply ledger event"),
			zap.String("type", string(event.Type)),
			zap.Uint64("tokenID", uint64(event.TokenID)))
		if b.retryable(err) {
			if err := msg.Nak(); err != nil {
				logger.Error(err, zap.String("message", "Failed to NAK message"))
			}
		} else {
			if err := msg.Term(); err != nil {
				logger.Error(err, zap.String("message", "Failed to terminate message"))
			}
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// apply routes the event to the matching hub entry point
func (b *bridge) apply(ctx context.Context, event *domain.LedgerEvent) error {
	switch event.Type {
	case domain.LedgerEventMinted:
		err := b.hub.RegisterAsset(ctx, b.config.ShareToken, event.TokenID, *event.To, event.TotalShares, event.MetadataURI)
		if errors.Is(err, domain.ErrAssetAlreadyRegistered) {
			// Redelivery of a mint that was already applied.
			return nil
		}
		return err
	case domain.LedgerEventTransferred:
		return b.hub.UpdateOwnership(ctx, b.config.ShareToken, event.TokenID, event.From, event.To, event.Amount)
	default:
		return fmt.Errorf("unknown ledger event type: %s", event.Type)
	}
}

// retryable reports whether a failed event should be redelivered. Transfer
// failures and in-flight-call rejections are transient; everything else is
// permanent for a given event.
func (b *bridge) retryable(err error) bool {
	if errors.Is(err, domain.ErrReentrantCall) || errors.Is(err, domain.ErrPaused) {
		return true
	}
	return domain.CodeOf(err) == domain.ErrCodeTransferFailed
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
