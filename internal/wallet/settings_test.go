package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_ledger/internal/domain"
)

func TestGetSettings_DefaultsBeforeFirstSave(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWalletSettings(), view.Settings)
	assert.Empty(t, view.UpdatedBy)
	assert.Nil(t, view.UpdatedAt)
}

func TestSaveSettings_NormalizesAndPersists(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveSettings(ctx, " ", map[string]any{
		"payoutCadence": "DAILY",
		"compliance":    map[string]any{"holdDays": 120, "termsUrl": "https://example.test/terms"},
	})
	require.NoError(t, err)
	assert.Equal(t, "system", saved.UpdatedBy)
	require.NotNil(t, saved.UpdatedAt)
	assert.Equal(t, domain.CadenceDaily, saved.Settings.PayoutCadence)
	assert.Equal(t, 90, saved.Settings.Compliance.HoldDays)

	loaded, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "system", loaded.UpdatedBy)
	assert.Equal(t, 90, loaded.Settings.Compliance.HoldDays)
	assert.Equal(t, "https://example.test/terms", loaded.Settings.Compliance.TermsURL)
	assert.True(t, loaded.Settings.Notifications.LowBalanceThreshold.Equal(domain.DefaultWalletSettings().Notifications.LowBalanceThreshold))

	// A second save replaces the stored object rather than merging onto it.
	_, err = svc.SaveSettings(ctx, "7", map[string]any{"enabled": false})
	require.NoError(t, err)
	loaded, err = svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.Settings.Enabled)
	assert.Equal(t, domain.CadenceWeekly, loaded.Settings.PayoutCadence)
	assert.Equal(t, "7", loaded.UpdatedBy)

	var rows int64
	require.NoError(t, gdb.Model(&domain.WalletConfiguration{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestSettings_CacheInvalidatedOnSave(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc, _ := newTestService(t, WithCache(rdb, 0))
	ctx := context.Background()

	_, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(settingsCacheKey()))

	_, err = svc.SaveSettings(ctx, "1", map[string]any{"minimumBalanceWarning": "75.5"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(settingsCacheKey()))

	view, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "75.50", view.Settings.MinimumBalanceWarning.StringFixed(2))
	assert.True(t, mr.Exists(settingsCacheKey()))

	// Served from cache from here on.
	cached, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", cached.UpdatedBy)
	assert.True(t, cached.Settings.MinimumBalanceWarning.Equal(view.Settings.MinimumBalanceWarning))
}

func TestSettings_CacheFailureFallsBackToDatabase(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc, _ := newTestService(t, WithCache(rdb, 0))
	mr.Close()

	view, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWalletSettings(), view.Settings)
}
