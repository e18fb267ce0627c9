package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func noticeCodes(notices []ComplianceNotice) []string {
	codes := make([]string, 0, len(notices))
	for _, n := range notices {
		codes = append(codes, n.Code)
	}
	return codes
}

func TestComplianceNotices_Defaults(t *testing.T) {
	notices := ComplianceNotices(DefaultWalletSettings())
	assert.Equal(t, []string{"terms_missing", "escalation_contacts_missing"}, noticeCodes(notices))
	assert.Equal(t, SeverityHigh, notices[0].Severity)
	assert.Equal(t, SeverityLow, notices[1].Severity)
}

func TestComplianceNotices_AllRules(t *testing.T) {
	s := DefaultWalletSettings()
	s.FundingRails.StripeConnect.Enabled = false
	s.FundingRails.BankTransfer.Enabled = false
	s.Compliance.HoldDays = 14
	s.Compliance.RequireKYC = false
	s.Notifications.LargeTransactionThreshold = decimal.Zero

	assert.Equal(t, []string{
		"terms_missing",
		"no_funding_rails",
		"extended_hold",
		"kyc_disabled",
		"large_transaction_threshold_disabled",
		"escalation_contacts_missing",
	}, noticeCodes(ComplianceNotices(s)))
}

func TestComplianceNotices_Clean(t *testing.T) {
	s := DefaultWalletSettings()
	s.Compliance.TermsURL = "https://example.test/terms"
	s.Compliance.EscalationContacts = []string{"risk@example.test"}

	notices := ComplianceNotices(s)
	assert.NotNil(t, notices)
	assert.Empty(t, notices)
}
