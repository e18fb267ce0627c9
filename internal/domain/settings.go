package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SettingsKey is the fixed primary key of the configuration row.
const SettingsKey = "wallet"

// Payout cadences accepted by the settings.
const (
	CadenceDaily    = "daily"
	CadenceWeekly   = "weekly"
	CadenceBiweekly = "biweekly"
	CadenceMonthly  = "monthly"
)

var payoutCadences = []string{CadenceDaily, CadenceWeekly, CadenceBiweekly, CadenceMonthly}

// WalletConfiguration Model, a single row keyed by SettingsKey.
type WalletConfiguration struct {
	Name      string   `gorm:"primaryKey;type:varchar(32)"` // Always SettingsKey
	Settings  Metadata `gorm:"type:text"`                   // Normalized WalletSettings as JSON
	UpdatedBy string   `gorm:"type:varchar(64)"`            // Actor of the last save
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WalletConfiguration) TableName() string {
	return "wallet_configurations"
}

type FundingRail struct {
	Enabled        bool `json:"enabled"`
	SettlementDays int  `json:"settlementDays"`
}

type FundingRails struct {
	StripeConnect FundingRail `json:"stripeConnect"`
	BankTransfer  FundingRail `json:"bankTransfer"`
	Manual        FundingRail `json:"manual"`
}

type ComplianceSettings struct {
	TermsURL           string   `json:"termsUrl"`
	RequireKYC         bool     `json:"requireKyc"`
	HoldDays           int      `json:"holdDays"`
	EscalationContacts []string `json:"escalationContacts"`
}

type NotificationSettings struct {
	LowBalanceThreshold       decimal.Decimal `json:"lowBalanceThreshold"`
	LargeTransactionThreshold decimal.Decimal `json:"largeTransactionThreshold"`
	Recipients                []string        `json:"recipients"`
	DailyDigest               bool            `json:"dailyDigest"`
}

// WalletSettings is the global wallet configuration.
type WalletSettings struct {
	Enabled               bool                 `json:"enabled"`
	AllowedOwnerTypes     []OwnerType          `json:"allowedOwnerTypes"`
	MinimumBalanceWarning decimal.Decimal      `json:"minimumBalanceWarning"`
	PayoutCadence         string               `json:"payoutCadence"`
	FundingRails          FundingRails         `json:"fundingRails"`
	Compliance            ComplianceSettings   `json:"compliance"`
	Notifications         NotificationSettings `json:"notifications"`
}

// AllowsOwnerType reports whether accounts may be opened for t.
func (s WalletSettings) AllowsOwnerType(t OwnerType) bool {
	for _, allowed := range s.AllowedOwnerTypes {
		if allowed == t {
			return true
		}
	}

	return false
}

// ToMap converts the settings into the JSON object stored in the database.
func (s WalletSettings) ToMap() (Metadata, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := Metadata{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func DefaultWalletSettings() WalletSettings {
	return WalletSettings{
		Enabled:               true,
		AllowedOwnerTypes:     append([]OwnerType(nil), OwnerTypes...),
		MinimumBalanceWarning: decimal.NewFromInt(50),
		PayoutCadence:         CadenceWeekly,
		FundingRails: FundingRails{
			StripeConnect: FundingRail{Enabled: true, SettlementDays: 2},
			BankTransfer:  FundingRail{Enabled: true, SettlementDays: 3},
			Manual:        FundingRail{Enabled: false, SettlementDays: 0},
		},
		Compliance: ComplianceSettings{
			TermsURL:           "",
			RequireKYC:         true,
			HoldDays:           3,
			EscalationContacts: []string{},
		},
		Notifications: NotificationSettings{
			LowBalanceThreshold:       decimal.NewFromInt(100),
			LargeTransactionThreshold: decimal.NewFromInt(10000),
			Recipients:                []string{},
			DailyDigest:               true,
		},
	}
}

var (
	maxWarning   = decimal.NewFromInt(1_000_000)
	maxThreshold = decimal.NewFromInt(10_000_000)
)

// EnsureSettingsStructure merges a partial settings object onto the
// defaults. Every nested section comes back populated, numbers are
// clamped and rounded, and lists are trimmed and deduplicated.
func EnsureSettingsStructure(partial map[string]any) WalletSettings {
	def := DefaultWalletSettings()
	out := def

	out.Enabled = coerceBool(partial["enabled"], def.Enabled)
	out.AllowedOwnerTypes = coerceOwnerTypes(partial["allowedOwnerTypes"], def.AllowedOwnerTypes)
	out.MinimumBalanceWarning = coerceDecimal(partial["minimumBalanceWarning"], def.MinimumBalanceWarning, decimal.Zero, maxWarning)
	out.PayoutCadence = coerceChoice(partial["payoutCadence"], def.PayoutCadence, payoutCadences)

	rails := section(partial, "fundingRails")
	out.FundingRails.StripeConnect = coerceRail(section(rails, "stripeConnect"), def.FundingRails.StripeConnect)
	out.FundingRails.BankTransfer = coerceRail(section(rails, "bankTransfer"), def.FundingRails.BankTransfer)
	out.FundingRails.Manual = coerceRail(section(rails, "manual"), def.FundingRails.Manual)

	compliance := section(partial, "compliance")
	out.Compliance.TermsURL = coerceString(compliance["termsUrl"], def.Compliance.TermsURL)
	out.Compliance.RequireKYC = coerceBool(compliance["requireKyc"], def.Compliance.RequireKYC)
	out.Compliance.HoldDays = coerceInt(compliance["holdDays"], def.Compliance.HoldDays, 0, 90)
	out.Compliance.EscalationContacts = coerceStringList(compliance["escalationContacts"], def.Compliance.EscalationContacts)

	notifications := section(partial, "notifications")
	out.Notifications.LowBalanceThreshold = coerceDecimal(notifications["lowBalanceThreshold"], def.Notifications.LowBalanceThreshold, decimal.Zero, maxThreshold)
	out.Notifications.LargeTransactionThreshold = coerceDecimal(notifications["largeTransactionThreshold"], def.Notifications.LargeTransactionThreshold, decimal.Zero, maxThreshold)
	out.Notifications.Recipients = coerceStringList(notifications["recipients"], def.Notifications.Recipients)
	out.Notifications.DailyDigest = coerceBool(notifications["dailyDigest"], def.Notifications.DailyDigest)

	return out
}

func section(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case map[string]any:
		return v
	case Metadata:
		return v
	default:
		return nil
	}
}

func coerceRail(m map[string]any, fallback FundingRail) FundingRail {
	return FundingRail{
		Enabled:        coerceBool(m["enabled"], fallback.Enabled),
		SettlementDays: coerceInt(m["settlementDays"], fallback.SettlementDays, 0, 30),
	}
}

func coerceBool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return fallback
		}
		return parsed
	case float64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		if err != nil {
			return fallback
		}
		return f != 0
	default:
		return fallback
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case decimal.Decimal:
		return n.InexactFloat64(), true
	default:
		return 0, false
	}
}

func coerceInt(v any, fallback, lo, hi int) int {
	f, ok := toFloat(v)
	if !ok {
		return fallback
	}
	// Clamp before converting: out-of-range floats have no int value.
	f = math.Round(f)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}

	return int(f)
}

func coerceDecimal(v any, fallback, lo, hi decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return fallback
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return fallback
		}
		d = parsed
	default:
		f, ok := toFloat(v)
		if !ok {
			return fallback
		}
		d = decimal.NewFromFloat(f)
	}
	d = RoundMoney(d)
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}

	return d
}

func coerceString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}

	return strings.TrimSpace(s)
}

func coerceChoice(v any, fallback string, choices []string) string {
	s := strings.ToLower(coerceString(v, fallback))
	for _, c := range choices {
		if s == c {
			return c
		}
	}

	return fallback
}

// coerceStringList returns fallback when v is absent or not a list.
func coerceStringList(v any, fallback []string) []string {
	var raw []string
	switch list := v.(type) {
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return append([]string{}, fallback...)
	}

	out := []string{}
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func coerceOwnerTypes(v any, fallback []OwnerType) []OwnerType {
	var out []OwnerType
	seen := map[OwnerType]struct{}{}
	for _, s := range coerceStringList(v, nil) {
		t, err := NormalizeOwnerType(s)
		if err != nil {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return append([]OwnerType(nil), fallback...)
	}

	return out
}
