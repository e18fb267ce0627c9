package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"wallet_ledger/internal/domain"
)

const payoutQueueLimit = 12

// PayoutTotal is the amount and number of payout requests still owed to a provider.
type PayoutTotal struct {
	Total decimal.Decimal
	Count int64
}

// PendingPayoutTotals sums queued payout requests of the provider-owned
// accounts, keyed by owner id. Owners without queued payouts are absent.
func (s *Service) PendingPayoutTotals(ctx context.Context, accounts []domain.WalletAccount) (map[string]PayoutTotal, error) {
	out := map[string]PayoutTotal{}
	seen := map[string]struct{}{}
	var providerIDs []string
	for _, a := range accounts {
		if !a.Owner().IsProvider() {
			continue
		}
		if _, dup := seen[a.OwnerID]; dup {
			continue
		}
		seen[a.OwnerID] = struct{}{}
		providerIDs = append(providerIDs, a.OwnerID)
	}
	if len(providerIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ProviderID string
		Total      decimal.Decimal
		Count      int64
	}
	err := s.db.WithContext(ctx).
		Model(&domain.PayoutRequest{}).
		Select("provider_id, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("provider_id IN ?", providerIDs).
		Where("status IN ?", domain.QueuedPayoutStatuses).
		Group("provider_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate pending payouts: %w", err)
	}
	for _, r := range rows {
		out[r.ProviderID] = PayoutTotal{Total: r.Total, Count: r.Count}
	}
	return out, nil
}

// PayoutQueue returns up to limit queued payout requests, earliest scheduled first.
func (s *Service) PayoutQueue(ctx context.Context, limit int) ([]PayoutView, error) {
	if limit <= 0 {
		limit = payoutQueueLimit
	}
	var rows []domain.PayoutRequest
	err := s.db.WithContext(ctx).
		Where("status IN ?", domain.QueuedPayoutStatuses).
		Order("scheduled_for ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load payout queue: %w", err)
	}
	out := make([]PayoutView, 0, len(rows))
	for _, p := range rows {
		out = append(out, formatPayout(p))
	}
	return out, nil
}

func zeroPendingPayout(currency string) *PendingPayoutView {
	return &PendingPayoutView{Total: formatMoney(decimal.Zero, currency), Count: 0}
}

func pendingPayoutFor(account domain.WalletAccount, totals map[string]PayoutTotal) *PendingPayoutView {
	if !account.Owner().IsProvider() {
		return zeroPendingPayout(account.Currency)
	}
	t, ok := totals[account.OwnerID]
	if !ok {
		return zeroPendingPayout(account.Currency)
	}
	return &PendingPayoutView{Total: formatMoney(t.Total, account.Currency), Count: t.Count}
}
