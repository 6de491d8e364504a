// Package poller consumes order-completed events and empties the
// corresponding cart. Clearing goes through the cart store so the
// single-writer rule for snapshots holds here too.
package poller

import (
	"context"
	"encoding/json"
	"log"

	"github.com/kleankickx/storefront-api/internal/store"
	"github.com/segmentio/kafka-go"
)

const ordersTopic = "order-completed"

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Poller struct {
	store  *store.Store
	reader messageReader
}

func New(cartStore *store.Store, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    ordersTopic,
		GroupID:  "storefront-cart-clearer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{store: cartStore, reader: reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.clearCompletedOrderCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing reader: %v", err)
	}
}

func (p *Poller) clearCompletedOrderCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("error reading message: %v", err)
		}
		return
	}

	var payload map[string]interface{}
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		log.Printf("error parsing message: %v", errUnmarshal)
		return
	}
	userID, ok := payload["user_id"].(string)
	if !ok {
		log.Printf("missing or invalid user_id in order-completed event")
		return
	}

	p.store.Clear(ctx, userID)
	log.Printf("cleared cart for user %s after order completion", userID)
}
