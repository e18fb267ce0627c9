package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of posting applied to one account.
type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionHold       TransactionType = "hold"
	TransactionRelease    TransactionType = "release"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionRefund     TransactionType = "refund"
)

var TransactionTypes = []TransactionType{
	TransactionCredit,
	TransactionDebit,
	TransactionHold,
	TransactionRelease,
	TransactionAdjustment,
	TransactionRefund,
}

// WalletTransaction Model. Rows are append-only.
type WalletTransaction struct {
	ID                 string          `gorm:"primaryKey;type:varchar(26)"`                                                     // ULID, time ordered
	WalletAccountID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_wallet_transactions_account_seq,priority:1"` // Owning account
	Sequence           int64           `gorm:"not null;uniqueIndex:idx_wallet_transactions_account_seq,priority:2"`                // Position in the account ledger, from 1
	Type               TransactionType `gorm:"type:varchar(16);not null"`                                                    // Posting type
	Amount             decimal.Decimal `gorm:"type:decimal(24,4);not null"`                                                  // Magnitude as recorded
	Currency           string          `gorm:"type:varchar(3);not null"`                                                     // Equals the account currency
	ReferenceType      string          `gorm:"type:varchar(64)"`                                                             // Originating domain event kind
	ReferenceID        string          `gorm:"type:varchar(128);index"`                                                      // Originating domain event id
	Description        string          `gorm:"type:varchar(255)"`
	ActorID            string          `gorm:"type:varchar(64)"`                                                                   // Who caused the posting
	OccurredAt         time.Time       `gorm:"not null;index"`                                                                     // Commit time
	RunningBalance     decimal.Decimal `gorm:"type:decimal(24,4);not null"`                                                        // Balance right after this posting
	RunningHoldBalance decimal.Decimal `gorm:"type:decimal(24,4);not null;default:0"`                                              // Hold right after this posting
	Metadata           Metadata        `gorm:"type:text"`
	CreatedAt          time.Time
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// BalanceState is the (balance, hold) pair of an account.
type BalanceState struct {
	Balance decimal.Decimal
	Hold    decimal.Decimal
}

// ApplyPosting computes the state after posting amount of type t onto s.
// The hold never drops below zero; the balance sign is left to the caller.
func ApplyPosting(s BalanceState, t TransactionType, amount decimal.Decimal) (BalanceState, error) {
	next := s
	switch t {
	case TransactionCredit, TransactionAdjustment:
		next.Balance = s.Balance.Add(amount)
	case TransactionDebit, TransactionRefund:
		next.Balance = s.Balance.Sub(amount)
	case TransactionHold:
		next.Balance = s.Balance.Sub(amount)
		next.Hold = s.Hold.Add(amount)
	case TransactionRelease:
		next.Balance = s.Balance.Add(amount)
		next.Hold = decimal.Max(s.Hold.Sub(amount), decimal.Zero)
	default:
		return s, NewUnsupportedError(fmt.Sprintf("no balance rule for transaction type %q", t))
	}

	return next, nil
}

// Replay folds an account's ordered ledger from a zero state.
func Replay(entries []WalletTransaction) (BalanceState, error) {
	state := BalanceState{Balance: decimal.Zero, Hold: decimal.Zero}
	for _, entry := range entries {
		next, err := ApplyPosting(state, entry.Type, entry.Amount)
		if err != nil {
			return state, fmt.Errorf("replay %s: %w", entry.ID, err)
		}
		state = next
	}

	return state, nil
}
