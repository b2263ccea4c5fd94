// Package schema defines universal data structures shared across the FraudGuard platform.
package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CaseStatus is the review status of a fraud case.
type CaseStatus string

const (
	// StatusPendingReview is the initial status of every new fraud alert.
	StatusPendingReview CaseStatus = "pending_review"
	// StatusConfirmedSafe means the customer confirmed the transaction as legitimate.
	StatusConfirmedSafe CaseStatus = "confirmed_safe"
	// StatusConfirmedFraud means the customer denied making the transaction.
	StatusConfirmedFraud CaseStatus = "confirmed_fraud"
	// StatusVerificationFailed means the caller could not pass the security check.
	StatusVerificationFailed CaseStatus = "verification_failed"
)

// FraudCase is one fraud-alert record: customer identity, the suspicious
// transaction, and the single security question/answer pair permitted for
// identity verification. It is a plain value type; all workflow rules live
// in the verification engine.
type FraudCase struct {
	Username           string     `json:"username" validate:"required"`
	SecurityIdentifier string     `json:"securityIdentifier" validate:"required"`
	CardEnding         string     `json:"cardEnding" validate:"required"`
	Amount             string     `json:"amount" validate:"required"`
	Merchant           string     `json:"merchant" validate:"required"`
	Location           string     `json:"location" validate:"required"`
	Timestamp          string     `json:"timestamp" validate:"required"`
	SecurityQuestion   string     `json:"securityQuestion" validate:"required"`
	SecurityAnswer     string     `json:"securityAnswer" validate:"required"`
	Status             CaseStatus `json:"status"`
	OutcomeNote        string     `json:"outcomeNote"`
}

var validate = validator.New()

// NormalizeName canonicalizes a customer name for identity comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate reports whether the case carries every required field.
func (c FraudCase) Validate() error {
	return validate.Struct(c)
}

// ApplyDefaults fills in the zero-value fields a stored entry may omit.
func (c *FraudCase) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusPendingReview
	}
}

// MatchesName reports whether the case belongs to the given customer name,
// compared case-insensitively with surrounding whitespace ignored.
func (c FraudCase) MatchesName(name string) bool {
	return NormalizeName(c.Username) == NormalizeName(name)
}

// AnswerMatches compares a caller's answer against the stored security answer,
// trimmed and case-insensitive.
func (c FraudCase) AnswerMatches(given string) bool {
	return NormalizeName(given) == NormalizeName(c.SecurityAnswer)
}

// TransactionSummary renders the suspicious transaction for the dialogue layer.
// Only non-sensitive fields appear here; the full card number is never stored.
func (c FraudCase) TransactionSummary() string {
	return fmt.Sprintf(
		"The suspicious transaction is for %s at merchant '%s', located in %s, on %s, using the card ending with %s.",
		c.Amount, c.Merchant, c.Location, c.Timestamp, c.CardEnding,
	)
}
