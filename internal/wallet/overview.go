package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"wallet_ledger/internal/domain"
)

const recentTransactionLimit = 10

type OverviewInput struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

type CurrencyTotal struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	HoldBalance string `json:"holdBalance"`
	Accounts    int64  `json:"accounts"`
}

type AccountCounts struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Suspended int64 `json:"suspended"`
	Closed    int64 `json:"closed"`
}

// Overview is the wallet dashboard. Its parts are read independently and may
// reflect slightly different instants; it must not drive payout decisions.
type Overview struct {
	Settings           domain.WalletSettings     `json:"settings"`
	Accounts           AccountPage               `json:"accounts"`
	Totals             []CurrencyTotal           `json:"totals"`
	Counts             AccountCounts             `json:"counts"`
	LastTransactionAt  *string                   `json:"lastTransactionAt"`
	PayoutQueue        []PayoutView              `json:"payoutQueue"`
	RecentTransactions []TransactionView         `json:"recentTransactions"`
	ComplianceNotices  []domain.ComplianceNotice `json:"complianceNotices"`
}

// GetOverview composes the dashboard from parallel reads. Any failing read
// fails the whole overview.
func (s *Service) GetOverview(ctx context.Context, in OverviewInput) (*Overview, error) {
	var (
		settings *SettingsView
		page     *AccountPage
		totals   []CurrencyTotal
		counts   AccountCounts
		queue    []PayoutView
		recent   []domain.WalletTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.GetSettings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = s.ListAccounts(gctx, ListAccountsInput{
			Search:        in.Search,
			Status:        in.Status,
			Page:          in.Page,
			PageSize:      in.PageSize,
			IncludeRecent: true,
		})
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.currencyTotals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.accountCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		queue, err = s.PayoutQueue(gctx, payoutQueueLimit)
		return err
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Order("occurred_at DESC").
			Order("id DESC").
			Limit(recentTransactionLimit).
			Find(&recent).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compose wallet overview: %w", err)
	}

	overview := &Overview{
		Settings:           settings.Settings,
		Accounts:           *page,
		Totals:             totals,
		Counts:             counts,
		PayoutQueue:        queue,
		RecentTransactions: formatTransactions(recent),
		ComplianceNotices:  domain.ComplianceNotices(settings.Settings),
	}
	if len(recent) > 0 {
		overview.LastTransactionAt = formatTimePtr(&recent[0].OccurredAt)
	}
	return overview, nil
}

func (s *Service) currencyTotals(ctx context.Context) ([]CurrencyTotal, error) {
	var rows []struct {
		Currency    string
		Balance     decimal.Decimal
		HoldBalance decimal.Decimal
		Accounts    int64
	}
	err := s.db.WithContext(ctx).
		Model(&domain.WalletAccount{}).
		Select("currency, COALESCE(SUM(balance), 0) AS balance, COALESCE(SUM(hold_balance), 0) AS hold_balance, COUNT(*) AS accounts").
		Group("currency").
		Order("currency").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum wallet balances: %w", err)
	}
	out := make([]CurrencyTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, CurrencyTotal{
			Currency:    r.Currency,
			Balance:     formatMoney(r.Balance, r.Currency),
			HoldBalance: formatMoney(r.HoldBalance, r.Currency),
			Accounts:    r.Accounts,
		})
	}
	return out, nil
}

func (s *Service) accountCounts(ctx context.Context) (AccountCounts, error) {
	var counts AccountCounts
	err := s.db.WithContext(ctx).
		Model(&domain.WalletAccount{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS suspended,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS closed`,
			domain.StatusActive, domain.StatusSuspended, domain.StatusClosed).
		Scan(&counts).Error
	if err != nil {
		return AccountCounts{}, fmt.Errorf("count wallet accounts: %w", err)
	}
	return counts, nil
}
