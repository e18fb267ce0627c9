package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutRequest Model. The table belongs to the payout workflow; the
// ledger only reads it.
type PayoutRequest struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)"`
	ProviderID   string          `gorm:"type:varchar(64);not null;index"` // Matches WalletAccount.OwnerID of provider accounts
	Amount       decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	Status       string          `gorm:"type:varchar(16);not null;index"`
	ScheduledFor *time.Time      // Planned payout date
	CreatedAt    time.Time
}

func (PayoutRequest) TableName() string {
	return "payout_requests"
}

const (
	PayoutPending    = "pending"
	PayoutApproved   = "approved"
	PayoutProcessing = "processing"
)

// QueuedPayoutStatuses are the statuses counted as money still owed to a provider.
var QueuedPayoutStatuses = []string{PayoutPending, PayoutApproved, PayoutProcessing}
