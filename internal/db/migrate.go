package db

import (
	"errors"                        // Record-not-found checks
	"fmt"                           // Error wrapping
	"strings"                       // Username normalization
	"wallet_ledger/internal/domain" // Importing domain models
	"wallet_ledger/internal/utils"  // Password hashing

	"github.com/sirupsen/logrus"
	"gorm.io/gorm" // GORM ORM library
)

// Migrate creates or updates the ledger tables. payout_requests is owned by
// the payout service and is only read here.
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := gdb.AutoMigrate(
		&domain.Operator{},
		&domain.WalletAccount{},
		&domain.WalletTransaction{},
		&domain.WalletConfiguration{},
	)
	if err != nil {
		return fmt.Errorf("migrate wallet schema: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}

// SeedOperator creates an admin operator when username is not taken yet
func SeedOperator(gdb *gorm.DB, username, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil
	}
	var existing domain.Operator
	err := gdb.Where("username = ?", username).First(&existing).Error
	if err == nil {
		logrus.WithField("username", username).Debug("Admin operator already present")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up operator: %w", err)
	}
	if password == "" {
		return errors.New("admin password is required to seed an operator")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	op := domain.Operator{Username: username, Password: hash, Role: domain.RoleAdmin}
	if err := gdb.Create(&op).Error; err != nil {
		return fmt.Errorf("create admin operator: %w", err)
	}
	logrus.WithFields(logrus.Fields{"operator_id": op.ID, "username": username}).Info("Admin operator seeded")
	return nil
}
