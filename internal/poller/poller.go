package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/metrics"
	"github.com/fjod/go_cart/storefront-service/internal/registry"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "checkout-outbox"

var ErrMissingClientID = errors.New("missing or invalid client_id")

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller empties the cart of every client that completed a checkout.
type Poller struct {
	registry *registry.Registry
	reader   messageReader
	logger   *zap.Logger
	metrics  *metrics.Metrics
	backoff  time.Duration
}

func NewPoller(reg *registry.Registry, logger *zap.Logger, m *metrics.Metrics, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reg, reader, logger, m)
}

func newPoller(reg *registry.Registry, reader messageReader, logger *zap.Logger, m *metrics.Metrics) *Poller {
	return &Poller{
		registry: reg,
		reader:   reader,
		logger:   logger,
		metrics:  m,
		backoff:  time.Second,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.getMessageAndEmptyCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Error("error closing reader", zap.Error(err))
	}
}

func (p *Poller) getMessageAndEmptyCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("error reading message", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(p.backoff):
		}
		return
	}

	if err := p.handleMessage(ctx, m.Value); err != nil {
		p.logger.Warn("checkout message skipped",
			zap.Int64("offset", m.Offset),
			zap.Error(err))
	}
}

func (p *Poller) handleMessage(ctx context.Context, value []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(value, &payload); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	clientID, ok := payload["client_id"].(string)
	if !ok || clientID == "" {
		return ErrMissingClientID
	}

	client, err := p.registry.Client(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}
	if err := client.Cart.ClearCart(ctx); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	p.metrics.CheckoutCleared()
	p.logger.Info("cart cleared after checkout", zap.String("client_id", clientID))
	return nil
}
