package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

func TestGetOverview(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	gbp := createAccount(t, svc, "Acme", domain.ProviderOwner("prov-1"), "GBP")
	gbp2 := createAccount(t, svc, "Beta", domain.CompanyOwner("co-1"), "GBP")
	eur := createAccount(t, svc, "Gamma", domain.CustomerOwner("cust-1"), "EUR")
	closedAcc := createAccount(t, svc, "Delta", domain.AffiliateOwner("aff-1"), "EUR")

	mustPost(t, svc, gbp.ID, domain.TransactionCredit, "100")
	mustPost(t, svc, gbp.ID, domain.TransactionHold, "30")
	mustPost(t, svc, gbp2.ID, domain.TransactionCredit, "20.25")
	for i := 0; i < 10; i++ {
		mustPost(t, svc, eur.ID, domain.TransactionCredit, "1")
	}
	last := mustPost(t, svc, eur.ID, domain.TransactionDebit, "0.5")

	suspended, closed := "suspended", "closed"
	_, err := svc.UpdateAccount(ctx, gbp2.ID, UpdateAccountInput{Status: &suspended})
	require.NoError(t, err)
	_, err = svc.UpdateAccount(ctx, closedAcc.ID, UpdateAccountInput{Status: &closed})
	require.NoError(t, err)

	insertPayout(t, gdb, "prov-1", "12", domain.PayoutPending, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	overview, err := svc.GetOverview(ctx, OverviewInput{PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultWalletSettings(), overview.Settings)
	assert.Equal(t, []CurrencyTotal{
		{Currency: "EUR", Balance: "9.50", HoldBalance: "0.00", Accounts: 2},
		{Currency: "GBP", Balance: "90.25", HoldBalance: "30.00", Accounts: 2},
	}, overview.Totals)
	assert.Equal(t, AccountCounts{Total: 4, Active: 2, Suspended: 1, Closed: 1}, overview.Counts)

	require.NotNil(t, overview.LastTransactionAt)
	assert.Equal(t, last.Transaction.OccurredAt, *overview.LastTransactionAt)
	require.Len(t, overview.RecentTransactions, recentTransactionLimit)
	assert.Equal(t, last.Transaction.ID, overview.RecentTransactions[0].ID)

	require.Len(t, overview.PayoutQueue, 1)
	assert.Equal(t, "12.00", overview.PayoutQueue[0].Amount)

	assert.Len(t, overview.Accounts.Items, 2)
	assert.Equal(t, int64(4), overview.Accounts.Pagination.Total)
	for _, item := range overview.Accounts.Items {
		if item.ID == eur.ID {
			require.NotNil(t, item.RecentTransaction)
			assert.Equal(t, last.Transaction.ID, item.RecentTransaction.ID)
		}
	}

	codes := []string{}
	for _, n := range overview.ComplianceNotices {
		codes = append(codes, n.Code)
	}
	assert.Equal(t, []string{"terms_missing", "escalation_contacts_missing"}, codes)
}

func TestGetOverview_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	overview, err := svc.GetOverview(context.Background(), OverviewInput{})
	require.NoError(t, err)
	assert.Empty(t, overview.Totals)
	assert.Equal(t, AccountCounts{}, overview.Counts)
	assert.Nil(t, overview.LastTransactionAt)
	assert.Empty(t, overview.RecentTransactions)
	assert.Empty(t, overview.PayoutQueue)
	assert.Empty(t, overview.Accounts.Items)
	assert.Equal(t, 0, overview.Accounts.Pagination.TotalPages)
}

func TestGetOverview_FiltersAccountPage(t *testing.T) {
	svc, _ := newTestService(t)
	createAccount(t, svc, "Acme", domain.CompanyOwner("a"), "GBP")
	createAccount(t, svc, "Beta", domain.CompanyOwner("b"), "GBP")

	overview, err := svc.GetOverview(context.Background(), OverviewInput{Search: "acm"})
	require.NoError(t, err)
	require.Len(t, overview.Accounts.Items, 1)
	assert.Equal(t, "Acme", overview.Accounts.Items[0].DisplayName)
	assert.Equal(t, int64(2), overview.Counts.Total, "counts ignore the page filter")
}

func TestGetOverview_FailsWhenAnyReadFails(t *testing.T) {
	svc, gdb := newTestService(t)
	createAccount(t, svc, "Acme", domain.CompanyOwner("a"), "GBP")
	require.NoError(t, gdb.Migrator().DropTable(&domain.PayoutRequest{}))

	overview, err := svc.GetOverview(context.Background(), OverviewInput{})
	require.Error(t, err)
	assert.Nil(t, overview)
	assert.Contains(t, err.Error(), "compose wallet overview")
}
