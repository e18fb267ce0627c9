package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wallet_ledger/internal/domain"
)

const systemActor = "system"

// SettingsView is the normalized configuration plus its audit fields.
type SettingsView struct {
	Settings  domain.WalletSettings `json:"settings"`
	UpdatedBy string                `json:"updatedBy,omitempty"`
	UpdatedAt *string               `json:"updatedAt"`
}

// GetSettings returns the stored configuration merged onto the defaults.
// Before the first save the defaults alone are returned.
func (s *Service) GetSettings(ctx context.Context) (*SettingsView, error) {
	var cached SettingsView
	if s.cacheGet(ctx, settingsCacheKey(), &cached) {
		return &cached, nil
	}

	var row domain.WalletConfiguration
	err := s.db.WithContext(ctx).Where("name = ?", domain.SettingsKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		view := &SettingsView{Settings: domain.DefaultWalletSettings()}
		s.cacheSet(ctx, settingsCacheKey(), view)
		return view, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet settings: %w", err)
	}

	view := settingsView(row)
	s.cacheSet(ctx, settingsCacheKey(), view)
	return view, nil
}

// SaveSettings normalizes partial and writes it to the single configuration
// row, creating the row on first use.
func (s *Service) SaveSettings(ctx context.Context, actorID string, partial map[string]any) (*SettingsView, error) {
	settings := domain.EnsureSettingsStructure(partial)
	payload, err := settings.ToMap()
	if err != nil {
		return nil, fmt.Errorf("encode wallet settings: %w", err)
	}
	actor := strings.TrimSpace(actorID)
	if actor == "" {
		actor = systemActor
	}

	var row domain.WalletConfiguration
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", domain.SettingsKey).
			First(&row).Error
		now := s.now()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = domain.WalletConfiguration{
				Name:      domain.SettingsKey,
				Settings:  payload,
				UpdatedBy: actor,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		row.Settings = payload
		row.UpdatedBy = actor
		row.UpdatedAt = now
		return tx.Model(&domain.WalletConfiguration{}).
			Where("name = ?", domain.SettingsKey).
			Updates(map[string]any{"settings": payload, "updated_by": actor, "updated_at": now}).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"actor_id": actor, "error": err.Error()}).Error("Failed to save wallet settings")
		return nil, fmt.Errorf("save wallet settings: %w", err)
	}

	s.cacheDelete(ctx, settingsCacheKey())
	logrus.WithFields(logrus.Fields{
		"actor_id":       actor,
		"enabled":        settings.Enabled,
		"payout_cadence": settings.PayoutCadence,
	}).Info("Wallet settings saved")

	return settingsView(row), nil
}

func settingsView(row domain.WalletConfiguration) *SettingsView {
	view := &SettingsView{
		Settings:  domain.EnsureSettingsStructure(row.Settings),
		UpdatedBy: row.UpdatedBy,
	}
	if !row.UpdatedAt.IsZero() {
		view.UpdatedAt = formatTimePtr(&row.UpdatedAt)
	}
	return view
}
