package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OwnerType discriminates the domain entity that holds a wallet account.
type OwnerType string

const (
	OwnerProvider   OwnerType = "provider"
	OwnerCompany    OwnerType = "company"
	OwnerCustomer   OwnerType = "customer"
	OwnerAffiliate  OwnerType = "affiliate"
	OwnerOperations OwnerType = "operations"
)

// OwnerTypes is the fixed allow-list of owner types, in display order.
var OwnerTypes = []OwnerType{OwnerProvider, OwnerCompany, OwnerCustomer, OwnerAffiliate, OwnerOperations}

// Owner identifies the holder of an account. The id is opaque to the ledger.
type Owner struct {
	Type OwnerType
	ID   string
}

func ProviderOwner(id string) Owner   { return Owner{Type: OwnerProvider, ID: id} }
func CompanyOwner(id string) Owner    { return Owner{Type: OwnerCompany, ID: id} }
func CustomerOwner(id string) Owner   { return Owner{Type: OwnerCustomer, ID: id} }
func AffiliateOwner(id string) Owner  { return Owner{Type: OwnerAffiliate, ID: id} }
func OperationsOwner(id string) Owner { return Owner{Type: OwnerOperations, ID: id} }

// NewOwner validates a raw owner type/id pair coming from a caller.
func NewOwner(ownerType, ownerID string) (Owner, error) {
	t, err := NormalizeOwnerType(ownerType)
	if err != nil {
		return Owner{}, err
	}
	id := strings.TrimSpace(ownerID)
	if id == "" {
		return Owner{}, NewValidationError(CodeMissingOwnerID, "ownerId", "owner id is required")
	}

	return Owner{Type: t, ID: id}, nil
}

func (o Owner) IsProvider() bool { return o.Type == OwnerProvider }

// AccountStatus is the lifecycle state of a wallet account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusClosed    AccountStatus = "closed"
)

var AccountStatuses = []AccountStatus{StatusActive, StatusSuspended, StatusClosed}

// CanTransitionTo reports whether an account may move from s to next.
// Closed is terminal.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusActive:
		return next == StatusSuspended || next == StatusClosed
	case StatusSuspended:
		return next == StatusActive || next == StatusClosed
	default:
		return false
	}
}

// Metadata is an opaque key/value bag stored as a JSON column.
type Metadata map[string]any

// Merge returns a copy of m with patch applied on top (shallow).
func (m Metadata) Merge(patch Metadata) Metadata {
	out := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}

	return out
}

// Clone returns a shallow copy; a nil bag becomes an empty one.
func (m Metadata) Clone() Metadata {
	return Metadata{}.Merge(m)
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return string(b), nil
}

func (m *Metadata) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}
	*m = out

	return nil
}

// WalletAccount Model
type WalletAccount struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)"`                                // UUID, immutable
	DisplayName      string          `gorm:"type:varchar(160);not null"`                                 // Human label
	OwnerType        OwnerType       `gorm:"type:varchar(20);not null;index:idx_wallet_accounts_owner"` // Owner discriminator
	OwnerID          string          `gorm:"type:varchar(64);not null;index:idx_wallet_accounts_owner"` // Reference into the owning domain
	Currency         string          `gorm:"type:varchar(3);not null;index"`                             // ISO-4217, fixed at creation
	Balance          decimal.Decimal `gorm:"type:decimal(24,4);not null;default:0"`                      // Available funds
	HoldBalance      decimal.Decimal `gorm:"type:decimal(24,4);not null;default:0"`                      // Reserved funds
	Status           AccountStatus   `gorm:"type:varchar(16);not null;default:active;index"`             // active, suspended, closed
	Metadata         Metadata        `gorm:"type:text"`                                                  // Shallow-merged on update
	LedgerSequence   int64           `gorm:"not null;default:0"`                                         // Sequence of the latest posting
	LastReconciledAt *time.Time      // Last balance-affecting event or manual reconciliation
	CreatedAt        time.Time
	UpdatedAt        time.Time `gorm:"index"`
}

func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

func (a WalletAccount) Owner() Owner {
	return Owner{Type: a.OwnerType, ID: a.OwnerID}
}

// State returns the balance pair the posting rules operate on.
func (a WalletAccount) State() BalanceState {
	return BalanceState{Balance: a.Balance, Hold: a.HoldBalance}
}
