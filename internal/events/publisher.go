package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the Redis channel posting events are published on.
const DefaultChannel = "wallet_events"

// EventTransactionPosted is emitted after a posting commits.
const EventTransactionPosted = "wallet.transaction.posted"

// PostingEvent describes a committed ledger posting.
type PostingEvent struct {
	EventType          string    `json:"event_type"`
	AccountID          string    `json:"account_id"`
	OwnerType          string    `json:"owner_type"`
	OwnerID            string    `json:"owner_id"`
	TransactionID      string    `json:"transaction_id"`
	TransactionType    string    `json:"transaction_type"`
	Amount             string    `json:"amount"`
	Currency           string    `json:"currency"`
	RunningBalance     string    `json:"running_balance"`
	RunningHoldBalance string    `json:"running_hold_balance"`
	ReferenceType      string    `json:"reference_type,omitempty"`
	ReferenceID        string    `json:"reference_id,omitempty"`
	ActorID            string    `json:"actor_id,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishPosting(ctx context.Context, event PostingEvent) error
}

// RedisPublisher publishes events on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Channel() string { return p.channel }

func (p *RedisPublisher) PublishPosting(ctx context.Context, event PostingEvent) error {
	if event.EventType == "" {
		event.EventType = EventTransactionPosted
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"channel":        p.channel,
		"account_id":     event.AccountID,
		"transaction_id": event.TransactionID,
	}).Debug("Posting event published")

	return nil
}
