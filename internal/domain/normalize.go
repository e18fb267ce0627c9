package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyScale is the number of fraction digits kept for settings amounts and
// used for currencies without a known minor unit.
const MoneyScale = 2

// LedgerScale is the number of fraction digits the money columns store. It
// covers every ISO-4217 minor unit.
const LedgerScale = 4

func NormalizeOwnerType(value string) (OwnerType, error) {
	v := OwnerType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range OwnerTypes {
		if v == t {
			return t, nil
		}
	}

	return "", NewValidationError(CodeInvalidOwnerType, "ownerType", fmt.Sprintf("unsupported owner type %q", value))
}

// NormalizeStatus parses an account status; an empty value yields fallback.
func NormalizeStatus(value string, fallback AccountStatus) (AccountStatus, error) {
	v := AccountStatus(strings.ToLower(strings.TrimSpace(value)))
	if v == "" && fallback != "" {
		return fallback, nil
	}
	for _, s := range AccountStatuses {
		if v == s {
			return s, nil
		}
	}

	return "", NewValidationError(CodeInvalidStatus, "status", fmt.Sprintf("unsupported account status %q", value))
}

// NormalizeCurrency upper-cases and validates an ISO-4217 code.
func NormalizeCurrency(value string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if len(code) != 3 {
		return "", NewValidationError(CodeInvalidCurrency, "currency", fmt.Sprintf("invalid currency code %q", value))
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", NewValidationError(CodeInvalidCurrency, "currency", fmt.Sprintf("unknown currency code %q", value))
	}

	return unit.String(), nil
}

func NormalizeTransactionType(value string) (TransactionType, error) {
	v := TransactionType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range TransactionTypes {
		if v == t {
			return t, nil
		}
	}

	return "", NewValidationError(CodeInvalidTransactionType, "type", fmt.Sprintf("unsupported transaction type %q", value))
}

// ParseAmount reads a decimal amount from its textual form. Non-numeric
// input (including NaN and infinities) is rejected. The value is kept exactly
// as written; precision is checked against the account currency later.
func ParseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, NewValidationError(CodeInvalidAmount, "amount", fmt.Sprintf("amount %q is not a finite number", value))
	}

	return d, nil
}

// CurrencyScale is the number of minor digits of an ISO-4217 code: 2 for GBP,
// 0 for JPY, 3 for KWD.
func CurrencyScale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return MoneyScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	if scale > LedgerScale {
		return LedgerScale
	}

	return int32(scale)
}

// ValidatePrecision rejects an amount with more fraction digits than the
// currency allows. Amounts are never rounded on the way in.
func ValidatePrecision(amount decimal.Decimal, code string) error {
	scale := CurrencyScale(code)
	if amount.Equal(amount.Truncate(scale)) {
		return nil
	}

	return NewValidationError(CodeInvalidAmount, "amount",
		fmt.Sprintf("amount %s has more than %d decimal places for %s", amount.String(), scale, code))
}

// FormatMoney renders d with the minor digits of its currency.
func FormatMoney(d decimal.Decimal, code string) string {
	return d.StringFixed(CurrencyScale(code))
}

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ValidateAmount enforces the sign rule: adjustments are unconstrained,
// every other type needs a strictly positive amount.
func ValidateAmount(t TransactionType, amount decimal.Decimal) error {
	if t == TransactionAdjustment || amount.IsPositive() {
		return nil
	}

	return NewValidationError(CodeInvalidAmount, "amount", fmt.Sprintf("%s amount must be greater than zero", t))
}
