// Package wallet implements the wallet ledger: the account registry, the
// transaction engine that is the only writer of balances, payout
// aggregation, the overview composer and the configuration store.
package wallet

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/events"
	"wallet_ledger/internal/utils"
)

const defaultCacheTTL = 60 * time.Second

// IdempotencyHook runs inside the posting transaction, after the account row
// is locked and before any write. Returning a transaction short-circuits the
// posting and that transaction is reported back to the caller instead.
type IdempotencyHook func(ctx context.Context, tx *gorm.DB, accountID, key string) (*domain.WalletTransaction, error)

type Service struct {
	db          *gorm.DB
	rdb         *redis.Client
	cacheTTL    time.Duration
	publisher   events.Publisher
	idempotency IdempotencyHook
	ids         *idGenerator
	now         func() time.Time
}

type Option func(*Service)

// WithCache enables the Redis read cache for settings and transaction history.
func WithCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.rdb = rdb
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithPublisher publishes an event for every committed posting.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithIdempotencyHook(h IdempotencyHook) Option {
	return func(s *Service) { s.idempotency = h }
}

// WithClock overrides the time source used for posting timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:       db,
		cacheTTL: defaultCacheTTL,
		ids:      newIDGenerator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// idGenerator hands out monotonic ULIDs; the entropy source is not safe for
// concurrent use on its own.
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) next(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(at), g.entropy).String()
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.rdb == nil {
		return false
	}
	found, err := utils.GetCache(ctx, s.rdb, key, dest)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.rdb == nil {
		return
	}
	if err := utils.SetCache(ctx, s.rdb, key, value, s.cacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
}

func (s *Service) cacheGetField(ctx context.Context, key, field string, dest any) bool {
	if s.rdb == nil {
		return false
	}
	found, err := utils.GetCacheField(ctx, s.rdb, key, field, dest)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "field": field, "error": err.Error()}).Warn("Cache read failed")
		return false
	}
	return found
}

func (s *Service) cacheSetField(ctx context.Context, key, field string, value any) {
	if s.rdb == nil {
		return
	}
	if err := utils.SetCacheField(ctx, s.rdb, key, field, value, s.cacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "field": field, "error": err.Error()}).Warn("Cache write failed")
	}
}

func (s *Service) cacheDelete(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := utils.DeleteCache(ctx, s.rdb, key); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

func settingsCacheKey() string { return "wallet:settings" }

func transactionsCacheKey(accountID string) string { return "wallet:txs:" + accountID }
