package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wallet_ledger/internal/db"
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/events"
)

// newTestDB opens a private in-memory database. A single connection keeps
// the database alive and serializes transactions the way row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: db.UTCNow,
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, gdb.AutoMigrate(&domain.PayoutRequest{}))
	return gdb
}

// tickingClock advances one second per reading so postings get distinct times.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB) {
	t.Helper()
	gdb := newTestDB(t)
	opts = append([]Option{WithClock(newTickingClock().Now)}, opts...)
	return NewService(gdb, opts...), gdb
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func createAccount(t *testing.T, svc *Service, name string, owner domain.Owner, currency string) *AccountView {
	t.Helper()
	view, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		DisplayName: name,
		OwnerType:   string(owner.Type),
		OwnerID:     owner.ID,
		Currency:    currency,
	})
	require.NoError(t, err)
	return view
}

func mustPost(t *testing.T, svc *Service, accountID string, txType domain.TransactionType, amount string) *PostingResult {
	t.Helper()
	res, err := svc.RecordTransaction(context.Background(), PostingInput{
		AccountID: accountID,
		Type:      string(txType),
		Amount:    decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return res
}

func loadAccount(t *testing.T, gdb *gorm.DB, id string) domain.WalletAccount {
	t.Helper()
	var account domain.WalletAccount
	require.NoError(t, gdb.Where("id = ?", id).First(&account).Error)
	return account
}

func countTransactions(t *testing.T, gdb *gorm.DB, accountID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&domain.WalletTransaction{}).Where("wallet_account_id = ?", accountID).Count(&n).Error)
	return n
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PostingEvent
	err    error
}

func (p *recordingPublisher) PublishPosting(_ context.Context, event events.PostingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []events.PostingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.PostingEvent(nil), p.events...)
}
