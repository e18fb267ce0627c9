package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/events"
)

// PostingInput is a request to apply one typed posting to one account.
type PostingInput struct {
	AccountID      string
	Type           string
	Amount         decimal.Decimal
	Currency       string // Defaults to the account currency
	ReferenceType  string
	ReferenceID    string
	Description    string
	ActorID        string
	Metadata       domain.Metadata
	AllowNegative  bool
	IdempotencyKey string // Only consulted when an IdempotencyHook is configured
}

type PostingResult struct {
	Account     AccountView     `json:"account"`
	Transaction TransactionView `json:"transaction"`
	Replayed    bool            `json:"replayed"`
}

type postingOutcome struct {
	account  domain.WalletAccount
	record   domain.WalletTransaction
	replayed bool
}

// RecordTransaction applies a posting atomically: the account row is locked,
// the new balance and hold are derived from the delta table and persisted
// together with an immutable ledger row. Nothing is written on error.
func (s *Service) RecordTransaction(ctx context.Context, in PostingInput) (*PostingResult, error) {
	var outcome postingOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = s.post(ctx, tx, in)
		return err
	})
	if err != nil {
		fields := logrus.Fields{
			"account_id": in.AccountID,
			"type":       in.Type,
			"amount":     in.Amount.String(),
			"actor_id":   in.ActorID,
			"error":      err.Error(),
		}
		if _, ok := domain.KindOf(err); ok {
			logrus.WithFields(fields).Warn("Posting rejected")
		} else {
			logrus.WithFields(fields).Error("Posting failed")
		}
		return nil, err
	}

	if !outcome.replayed {
		logrus.WithFields(logrus.Fields{
			"account_id":      outcome.account.ID,
			"transaction_id":  outcome.record.ID,
			"type":            outcome.record.Type,
			"amount":          outcome.record.Amount.String(),
			"running_balance": outcome.record.RunningBalance.String(),
			"actor_id":        outcome.record.ActorID,
		}).Info("Posting recorded")
		s.afterPosting(ctx, outcome.account, outcome.record)
	}

	return &PostingResult{
		Account:     formatAccount(outcome.account),
		Transaction: formatTransaction(outcome.record),
		Replayed:    outcome.replayed,
	}, nil
}

// post runs inside tx. It is shared with CreateAccount for the audit marker.
func (s *Service) post(ctx context.Context, tx *gorm.DB, in PostingInput) (postingOutcome, error) {
	account, err := lockAccount(tx, in.AccountID)
	if err != nil {
		return postingOutcome{}, err
	}

	txType, err := domain.NormalizeTransactionType(in.Type)
	if err != nil {
		return postingOutcome{}, err
	}
	amount := in.Amount
	if err := domain.ValidateAmount(txType, amount); err != nil {
		return postingOutcome{}, err
	}
	currency := account.Currency
	if strings.TrimSpace(in.Currency) != "" {
		currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	}
	if currency != account.Currency {
		return postingOutcome{}, domain.NewValidationError(domain.CodeCurrencyMismatch, "currency",
			fmt.Sprintf("posting currency %s does not match account currency %s", currency, account.Currency))
	}
	if err := domain.ValidatePrecision(amount, account.Currency); err != nil {
		return postingOutcome{}, err
	}
	if account.Status == domain.StatusClosed {
		return postingOutcome{}, domain.NewConflictError(domain.CodeAccountClosed,
			fmt.Sprintf("wallet account %q is closed", account.ID))
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		existing, err := s.idempotency(ctx, tx, account.ID, in.IdempotencyKey)
		if err != nil {
			return postingOutcome{}, fmt.Errorf("idempotency hook: %w", err)
		}
		if existing != nil {
			return postingOutcome{account: account, record: *existing, replayed: true}, nil
		}
	}

	next, err := domain.ApplyPosting(account.State(), txType, amount)
	if err != nil {
		return postingOutcome{}, err
	}
	if next.Balance.IsNegative() && !in.AllowNegative {
		return postingOutcome{}, domain.NewConflictError(domain.CodeInsufficientBalance,
			fmt.Sprintf("%s of %s %s would leave a balance of %s", txType, formatMoney(amount, currency), currency, formatMoney(next.Balance, currency)))
	}

	// The row lock makes the sequence gap-free per account.
	now := s.now()
	seq := account.LedgerSequence + 1
	err = tx.Model(&domain.WalletAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"balance":            next.Balance,
			"hold_balance":       next.Hold,
			"ledger_sequence":    seq,
			"last_reconciled_at": now,
			"updated_at":         now,
		}).Error
	if err != nil {
		return postingOutcome{}, fmt.Errorf("update wallet balance: %w", err)
	}
	account.Balance = next.Balance
	account.HoldBalance = next.Hold
	account.LedgerSequence = seq
	account.LastReconciledAt = &now
	account.UpdatedAt = now

	record := domain.WalletTransaction{
		ID:                 s.ids.next(now),
		WalletAccountID:    account.ID,
		Sequence:           seq,
		Type:               txType,
		Amount:             amount,
		Currency:           currency,
		ReferenceType:      strings.TrimSpace(in.ReferenceType),
		ReferenceID:        strings.TrimSpace(in.ReferenceID),
		Description:        strings.TrimSpace(in.Description),
		ActorID:            in.ActorID,
		OccurredAt:         now,
		RunningBalance:     next.Balance,
		RunningHoldBalance: next.Hold,
		Metadata:           in.Metadata.Clone(),
	}
	if err := tx.Create(&record).Error; err != nil {
		return postingOutcome{}, fmt.Errorf("insert wallet transaction: %w", err)
	}

	return postingOutcome{account: account, record: record}, nil
}

// lockedAccountQuery selects one account row with SELECT ... FOR UPDATE.
func lockedAccountQuery(tx *gorm.DB, id string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
}

// lockAccount loads an account under a row lock held until tx ends.
func lockAccount(tx *gorm.DB, id string) (domain.WalletAccount, error) {
	var account domain.WalletAccount
	err := lockedAccountQuery(tx, id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return account, domain.ErrAccountNotFound(id)
	}
	if err != nil {
		return account, fmt.Errorf("lock wallet account: %w", err)
	}
	return account, nil
}

// afterPosting runs once the posting committed; failures are only logged.
func (s *Service) afterPosting(ctx context.Context, account domain.WalletAccount, record domain.WalletTransaction) {
	s.cacheDelete(ctx, transactionsCacheKey(account.ID))

	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishPosting(ctx, events.PostingEvent{
		EventType:          events.EventTransactionPosted,
		AccountID:          account.ID,
		OwnerType:          string(account.OwnerType),
		OwnerID:            account.OwnerID,
		TransactionID:      record.ID,
		TransactionType:    string(record.Type),
		Amount:             formatMoney(record.Amount, record.Currency),
		Currency:           record.Currency,
		RunningBalance:     formatMoney(record.RunningBalance, record.Currency),
		RunningHoldBalance: formatMoney(record.RunningHoldBalance, record.Currency),
		ReferenceType:      record.ReferenceType,
		ReferenceID:        record.ReferenceID,
		ActorID:            record.ActorID,
		OccurredAt:         record.OccurredAt,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id":     account.ID,
			"transaction_id": record.ID,
			"error":          err.Error(),
		}).Error("Posting event publish failed")
	}
}
