package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wallet_ledger/internal/domain"
)

const (
	defaultPageSize         = 20
	maxPageSize             = 50
	defaultTransactionLimit = 25
	maxTransactionLimit     = 100

	walletCreatedDescription = "Wallet created"
)

type CreateAccountInput struct {
	DisplayName string
	OwnerType   string
	OwnerID     string
	Currency    string
	Status      string
	Metadata    domain.Metadata
	ActorID     string // When set, a zero adjustment is posted as an audit marker
}

// UpdateAccountInput is a partial update; nil fields are left untouched.
type UpdateAccountInput struct {
	DisplayName      *string
	Status           *string
	Metadata         domain.Metadata
	LastReconciledAt *time.Time
}

type ListAccountsInput struct {
	Search        string
	Status        string
	Page          int
	PageSize      int
	IncludeRecent bool
}

type AccountPage struct {
	Items      []AccountView `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (*AccountView, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, domain.NewValidationError(domain.CodeMissingDisplayName, "displayName", "display name is required")
	}
	owner, err := domain.NewOwner(in.OwnerType, in.OwnerID)
	if err != nil {
		return nil, err
	}
	currency, err := domain.NormalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	status, err := domain.NormalizeStatus(in.Status, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	if status == domain.StatusClosed {
		return nil, domain.NewValidationError(domain.CodeInvalidStatus, "status", "accounts cannot be created closed")
	}

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Settings.AllowsOwnerType(owner.Type) {
		return nil, domain.NewValidationError(domain.CodeOwnerTypeNotAllowed, "ownerType",
			fmt.Sprintf("owner type %q is not enabled for wallets", owner.Type))
	}

	now := s.now()
	account := domain.WalletAccount{
		ID:          uuid.NewString(),
		DisplayName: name,
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		Currency:    currency,
		Balance:     decimal.Zero,
		HoldBalance: decimal.Zero,
		Status:      status,
		Metadata:    in.Metadata.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var marker *domain.WalletTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("insert wallet account: %w", err)
		}
		if in.ActorID == "" {
			return nil
		}
		outcome, err := s.post(ctx, tx, PostingInput{
			AccountID:   account.ID,
			Type:        string(domain.TransactionAdjustment),
			Amount:      decimal.Zero,
			Description: walletCreatedDescription,
			ActorID:     in.ActorID,
			Metadata:    domain.Metadata{"event": "wallet_created"},
		})
		if err != nil {
			return err
		}
		account = outcome.account
		marker = &outcome.record
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"owner_type": owner.Type,
			"owner_id":   owner.ID,
			"error":      err.Error(),
		}).Error("Failed to create wallet account")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"owner_type": account.OwnerType,
		"owner_id":   account.OwnerID,
		"currency":   account.Currency,
		"actor_id":   in.ActorID,
	}).Info("Wallet account created")
	if marker != nil {
		s.afterPosting(ctx, account, *marker)
	}

	view := formatAccount(account)
	view.PendingPayout = zeroPendingPayout(account.Currency)
	return &view, nil
}

func (s *Service) UpdateAccount(ctx context.Context, id string, in UpdateAccountInput) (*AccountView, error) {
	var account domain.WalletAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if account, err = lockAccount(tx, id); err != nil {
			return err
		}

		updates := map[string]any{}
		if in.DisplayName != nil {
			name := strings.TrimSpace(*in.DisplayName)
			if name == "" {
				return domain.NewValidationError(domain.CodeMissingDisplayName, "displayName", "display name is required")
			}
			updates["display_name"] = name
			account.DisplayName = name
		}
		if in.Status != nil {
			next, err := domain.NormalizeStatus(*in.Status, "")
			if err != nil {
				return err
			}
			if !account.Status.CanTransitionTo(next) {
				return domain.NewConflictError(domain.CodeInvalidStatusTransition,
					fmt.Sprintf("cannot move wallet account from %s to %s", account.Status, next))
			}
			updates["status"] = next
			account.Status = next
		}
		if in.Metadata != nil {
			account.Metadata = account.Metadata.Merge(in.Metadata)
			updates["metadata"] = account.Metadata
		}
		if in.LastReconciledAt != nil {
			at := in.LastReconciledAt.UTC()
			updates["last_reconciled_at"] = at
			account.LastReconciledAt = &at
		}
		if len(updates) == 0 {
			return nil
		}
		now := s.now()
		updates["updated_at"] = now
		account.UpdatedAt = now

		if err := tx.Model(&domain.WalletAccount{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update wallet account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"status":     account.Status,
	}).Info("Wallet account updated")

	return s.decorate(ctx, account)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*AccountView, error) {
	account, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, *account)
}

func (s *Service) findAccount(ctx context.Context, id string) (*domain.WalletAccount, error) {
	var account domain.WalletAccount
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find wallet account: %w", err)
	}
	return &account, nil
}

// decorate attaches the pending payout total to a single account.
func (s *Service) decorate(ctx context.Context, account domain.WalletAccount) (*AccountView, error) {
	totals, err := s.PendingPayoutTotals(ctx, []domain.WalletAccount{account})
	if err != nil {
		return nil, err
	}
	view := formatAccount(account)
	view.PendingPayout = pendingPayoutFor(account, totals)
	return &view, nil
}

// likeEscaper escapes LIKE wildcards so a search term matches literally.
// The escape character is '!' because backslash escaping differs between SQL dialects.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// hexIdentifier matches opaque ids such as hex object ids or hashes.
var hexIdentifier = regexp.MustCompile(`^[0-9a-fA-F]{16,64}$`)

func looksLikeIdentifier(term string) bool {
	if _, err := uuid.Parse(term); err == nil {
		return true
	}
	return hexIdentifier.MatchString(term)
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func (s *Service) ListAccounts(ctx context.Context, in ListAccountsInput) (*AccountPage, error) {
	page := clampPage(in.Page)
	pageSize := clampPageSize(in.PageSize)

	var status domain.AccountStatus
	if strings.TrimSpace(in.Status) != "" {
		var err error
		if status, err = domain.NormalizeStatus(in.Status, ""); err != nil {
			return nil, err
		}
	}
	term := strings.TrimSpace(in.Search)

	// Count and Find each get a fresh statement.
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.WalletAccount{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		if term != "" {
			like := containsPattern(term)
			cond := s.db.Where("LOWER(display_name) LIKE ? ESCAPE '!'", like).
				Or("LOWER(owner_type) LIKE ? ESCAPE '!'", like)
			if looksLikeIdentifier(term) {
				cond = cond.Or("owner_id = ?", term)
			}
			q = q.Where(cond)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count wallet accounts: %w", err)
	}
	var accounts []domain.WalletAccount
	err := filtered().
		Order("updated_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list wallet accounts: %w", err)
	}

	var recent map[string]domain.WalletTransaction
	if in.IncludeRecent {
		if recent, err = s.latestTransactions(ctx, accounts); err != nil {
			return nil, err
		}
	}
	totals, err := s.PendingPayoutTotals(ctx, accounts)
	if err != nil {
		return nil, err
	}

	items := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		view := formatAccount(account)
		view.PendingPayout = pendingPayoutFor(account, totals)
		if t, ok := recent[account.ID]; ok {
			tv := formatTransaction(t)
			view.RecentTransaction = &tv
		}
		items = append(items, view)
	}

	return &AccountPage{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}, nil
}

// latestTransactions fetches the newest posting of every account in one query.
func (s *Service) latestTransactions(ctx context.Context, accounts []domain.WalletAccount) (map[string]domain.WalletTransaction, error) {
	out := make(map[string]domain.WalletTransaction, len(accounts))
	if len(accounts) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	var rows []domain.WalletTransaction
	err := s.db.WithContext(ctx).
		Where("wallet_account_id IN ?", ids).
		Where(`id = (SELECT t2.id FROM wallet_transactions t2
			WHERE t2.wallet_account_id = wallet_transactions.wallet_account_id
			ORDER BY t2.sequence DESC LIMIT 1)`).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load recent wallet transactions: %w", err)
	}
	for _, r := range rows {
		out[r.WalletAccountID] = r
	}
	return out, nil
}

// ListTransactions returns an account's ledger, newest first. Cached pages
// are keyed by the account's ledger sequence, so a page read before a posting
// can never be served after it.
func (s *Service) ListTransactions(ctx context.Context, accountID string, limit int) ([]TransactionView, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	cacheKey := transactionsCacheKey(accountID)
	field := fmt.Sprintf("seq:%d:limit:%d", account.LedgerSequence, limit)
	var cached []TransactionView
	if s.cacheGetField(ctx, cacheKey, field, &cached) {
		return cached, nil
	}

	var rows []domain.WalletTransaction
	err = s.db.WithContext(ctx).
		Where("wallet_account_id = ?", accountID).
		Where("sequence <= ?", account.LedgerSequence).
		Order("sequence DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}

	views := formatTransactions(rows)
	s.cacheSetField(ctx, cacheKey, field, views)
	return views, nil
}

// ledgerRows returns an account's postings in sequence order.
func ledgerRows(tx *gorm.DB, accountID string) ([]domain.WalletTransaction, error) {
	var rows []domain.WalletTransaction
	err := tx.Where("wallet_account_id = ?", accountID).
		Order("sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load wallet ledger: %w", err)
	}
	return rows, nil
}

// verifyLocked locks the account and replays its ledger against the stored
// balance and hold.
func verifyLocked(tx *gorm.DB, accountID string) (domain.WalletAccount, error) {
	account, err := lockAccount(tx, accountID)
	if err != nil {
		return account, err
	}
	rows, err := ledgerRows(tx, accountID)
	if err != nil {
		return account, err
	}
	state, err := domain.Replay(rows)
	if err != nil {
		return account, err
	}
	if !state.Balance.Equal(account.Balance) || !state.Hold.Equal(account.HoldBalance) {
		return account, domain.NewConflictError(domain.CodeLedgerMismatch, fmt.Sprintf(
			"ledger replays to %s/%s but account holds %s/%s",
			formatMoney(state.Balance, account.Currency), formatMoney(state.Hold, account.Currency),
			formatMoney(account.Balance, account.Currency), formatMoney(account.HoldBalance, account.Currency)))
	}
	return account, nil
}

// VerifyLedger replays an account's ledger and compares it with the stored
// balance and hold. A mismatch is reported as a conflict.
func (s *Service) VerifyLedger(ctx context.Context, accountID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := verifyLocked(tx, accountID)
		return err
	})
}

// ReconcileAccount checks the ledger against the stored balances and, when
// they agree, stamps the account as reconciled. Both happen under the row
// lock, so no posting can land in between.
func (s *Service) ReconcileAccount(ctx context.Context, accountID string) (*AccountView, error) {
	var account domain.WalletAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if account, err = verifyLocked(tx, accountID); err != nil {
			return err
		}
		now := s.now()
		err = tx.Model(&domain.WalletAccount{}).
			Where("id = ?", accountID).
			Updates(map[string]any{"last_reconciled_at": now, "updated_at": now}).Error
		if err != nil {
			return fmt.Errorf("stamp wallet reconciliation: %w", err)
		}
		account.LastReconciledAt = &now
		account.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ID,
		"balance":    account.Balance.String(),
	}).Info("Wallet account reconciled")

	return s.decorate(ctx, account)
}
