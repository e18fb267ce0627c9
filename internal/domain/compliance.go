package domain

import "fmt"

type NoticeSeverity string

const (
	SeverityHigh   NoticeSeverity = "high"
	SeverityMedium NoticeSeverity = "medium"
	SeverityLow    NoticeSeverity = "low"
)

// ComplianceNotice is a dashboard warning derived from the current settings.
type ComplianceNotice struct {
	Code     string         `json:"code"`
	Severity NoticeSeverity `json:"severity"`
	Message  string         `json:"message"`
}

// ComplianceNotices evaluates the settings against the compliance rules.
// The result depends on nothing but s.
func ComplianceNotices(s WalletSettings) []ComplianceNotice {
	notices := []ComplianceNotice{}

	if s.Compliance.TermsURL == "" {
		notices = append(notices, ComplianceNotice{
			Code:     "terms_missing",
			Severity: SeverityHigh,
			Message:  "Wallet terms URL is not configured.",
		})
	}
	rails := s.FundingRails
	if !rails.StripeConnect.Enabled && !rails.BankTransfer.Enabled && !rails.Manual.Enabled {
		notices = append(notices, ComplianceNotice{
			Code:     "no_funding_rails",
			Severity: SeverityHigh,
			Message:  "No funding rail is enabled; wallets cannot be funded or paid out.",
		})
	}
	if s.Compliance.HoldDays > 7 {
		notices = append(notices, ComplianceNotice{
			Code:     "extended_hold",
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Funds are held for %d days, above the 7 day guideline.", s.Compliance.HoldDays),
		})
	}
	if !s.Compliance.RequireKYC {
		notices = append(notices, ComplianceNotice{
			Code:     "kyc_disabled",
			Severity: SeverityMedium,
			Message:  "KYC is not required before payouts.",
		})
	}
	if s.Notifications.LargeTransactionThreshold.IsZero() {
		notices = append(notices, ComplianceNotice{
			Code:     "large_transaction_threshold_disabled",
			Severity: SeverityLow,
			Message:  "Large transaction alerts are disabled.",
		})
	}
	if len(s.Compliance.EscalationContacts) == 0 {
		notices = append(notices, ComplianceNotice{
			Code:     "escalation_contacts_missing",
			Severity: SeverityLow,
			Message:  "No compliance escalation contacts are configured.",
		})
	}

	return notices
}
