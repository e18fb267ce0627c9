package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet_ledger/internal/domain"
)

// AccountView is the caller-facing shape of a wallet account. Money is a
// fixed-scale decimal string in the account currency.
type AccountView struct {
	ID                string             `json:"id"`
	DisplayName       string             `json:"displayName"`
	OwnerType         domain.OwnerType   `json:"ownerType"`
	OwnerID           string             `json:"ownerId"`
	Currency          string             `json:"currency"`
	Balance           string             `json:"balance"`
	HoldBalance       string             `json:"holdBalance"`
	Status            string             `json:"status"`
	Metadata          domain.Metadata    `json:"metadata"`
	LastReconciledAt  *string            `json:"lastReconciledAt"`
	CreatedAt         string             `json:"createdAt"`
	UpdatedAt         string             `json:"updatedAt"`
	PendingPayout     *PendingPayoutView `json:"pendingPayout,omitempty"`
	RecentTransaction *TransactionView   `json:"recentTransaction,omitempty"`
}

type PendingPayoutView struct {
	Total string `json:"total"`
	Count int64  `json:"count"`
}

type TransactionView struct {
	ID                 string          `json:"id"`
	WalletAccountID    string          `json:"walletAccountId"`
	Type               string          `json:"type"`
	Amount             string          `json:"amount"`
	Currency           string          `json:"currency"`
	ReferenceType      string          `json:"referenceType,omitempty"`
	ReferenceID        string          `json:"referenceId,omitempty"`
	Description        string          `json:"description,omitempty"`
	ActorID            string          `json:"actorId,omitempty"`
	OccurredAt         string          `json:"occurredAt"`
	RunningBalance     string          `json:"runningBalance"`
	RunningHoldBalance string          `json:"runningHoldBalance"`
	Metadata           domain.Metadata `json:"metadata"`
}

type PayoutView struct {
	ID           string  `json:"id"`
	ProviderID   string  `json:"providerId"`
	Amount       string  `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
	ScheduledFor *string `json:"scheduledFor"`
	CreatedAt    string  `json:"createdAt"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func formatMoney(d decimal.Decimal, currency string) string {
	return domain.FormatMoney(d, currency)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatAccount(a domain.WalletAccount) AccountView {
	return AccountView{
		ID:               a.ID,
		DisplayName:      a.DisplayName,
		OwnerType:        a.OwnerType,
		OwnerID:          a.OwnerID,
		Currency:         a.Currency,
		Balance:          formatMoney(a.Balance, a.Currency),
		HoldBalance:      formatMoney(a.HoldBalance, a.Currency),
		Status:           string(a.Status),
		Metadata:         a.Metadata.Clone(),
		LastReconciledAt: formatTimePtr(a.LastReconciledAt),
		CreatedAt:        formatTime(a.CreatedAt),
		UpdatedAt:        formatTime(a.UpdatedAt),
	}
}

func formatTransaction(t domain.WalletTransaction) TransactionView {
	return TransactionView{
		ID:                 t.ID,
		WalletAccountID:    t.WalletAccountID,
		Type:               string(t.Type),
		Amount:             formatMoney(t.Amount, t.Currency),
		Currency:           t.Currency,
		ReferenceType:      t.ReferenceType,
		ReferenceID:        t.ReferenceID,
		Description:        t.Description,
		ActorID:            t.ActorID,
		OccurredAt:         formatTime(t.OccurredAt),
		RunningBalance:     formatMoney(t.RunningBalance, t.Currency),
		RunningHoldBalance: formatMoney(t.RunningHoldBalance, t.Currency),
		Metadata:           t.Metadata.Clone(),
	}
}

func formatTransactions(list []domain.WalletTransaction) []TransactionView {
	out := make([]TransactionView, 0, len(list))
	for _, t := range list {
		out = append(out, formatTransaction(t))
	}
	return out
}

func formatPayout(p domain.PayoutRequest) PayoutView {
	return PayoutView{
		ID:           p.ID,
		ProviderID:   p.ProviderID,
		Amount:       formatMoney(p.Amount, p.Currency),
		Currency:     p.Currency,
		Status:       p.Status,
		ScheduledFor: formatTimePtr(p.ScheduledFor),
		CreatedAt:    formatTime(p.CreatedAt),
	}
}
