package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/adventjoy/calendar-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event is one item on a buyer's live feed, e.g. a day_opened
// notification when the recipient opens an envelope.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	BuyerID string
	Events  chan Event
	Done    chan struct{}
}

// Broker fans out calendar events to connected buyer clients, backed by
// Redis pub/sub so multiple server instances share one feed.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool   // buyerID -> set of clients
	subs    map[string]context.CancelFunc // buyerID -> pubsub goroutine cancel
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		subs:    make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(buyerID string) *Client {
	client := &Client{
		BuyerID: buyerID,
		Events:  make(chan Event, 100),
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[buyerID] == nil {
		b.clients[buyerID] = make(map[*Client]bool)
		subCtx, subCancel := context.WithCancel(b.ctx)
		b.subs[buyerID] = subCancel
		go b.subscribeToRedis(subCtx, buyerID)
	}
	b.clients[buyerID][client] = true
	clientCount := len(b.clients[buyerID])
	b.mu.Unlock()

	log.Info().
		Str("buyerId", buyerID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.BuyerID]; ok {
		delete(clients, client)
		close(client.Done)

		// The last client leaving stops the buyer's pubsub goroutine;
		// a later Subscribe starts a fresh one.
		if len(clients) == 0 {
			delete(b.clients, client.BuyerID)
			if cancel, ok := b.subs[client.BuyerID]; ok {
				cancel()
				delete(b.subs, client.BuyerID)
			}
		}

		log.Info().
			Str("buyerId", client.BuyerID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, buyerID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.EventChannel(buyerID)
	return b.redis.Publish(ctx, channel, data).Err()
}

// PublishDayOpened notifies the buyer's live feed that a day was opened
// for the first time.
func (b *Broker) PublishDayOpened(ctx context.Context, buyerID, calendarID string, day int) error {
	data, err := json.Marshal(map[string]any{
		"calendarId": calendarID,
		"dayNumber":  day,
		"openedAt":   time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return b.Publish(ctx, buyerID, Event{Type: "day_opened", Data: data})
}

func (b *Broker) subscribeToRedis(ctx context.Context, buyerID string) {
	channel := redisclient.EventChannel(buyerID)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("buyerId", buyerID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(buyerID, event)
		}
	}
}

func (b *Broker) broadcast(buyerID string, event Event) {
	b.mu.RLock()
	clients := b.clients[buyerID]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("buyerId", buyerID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.subs = make(map[string]context.CancelFunc)
}

func (b *Broker) ClientCount(buyerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[buyerID])
}
