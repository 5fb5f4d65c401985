// Package validate checks extracted transactions against the field
// rules the pipeline requires before a record may enter a record set.
package validate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/models"
)

// Severity classifies a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation describes one failed check on a transaction field.
type Violation struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result collects every violation found on one transaction. All checks
// run to completion so a single pass reports everything that is wrong.
type Result struct {
	Violations []Violation
}

// Fatal reports whether the result contains at least one error-level
// violation. Warning-only results still admit the transaction.
func (r Result) Fatal() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// amountCeiling marks the point where an amount is suspicious but not
// necessarily wrong. Such records pass with a warning.
var amountCeiling = decimal.NewFromInt(1_000_000)

// Validator applies the transaction field rules.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs every check against the transaction and returns the
// collected violations.
func (v *Validator) Validate(tx models.Transaction) Result {
	var result Result

	result.add(checkDate(tx.Date))
	result.add(checkDescription(tx.Description))
	result.add(checkAmount(tx.Amount)...)
	result.add(checkCurrency(tx.Currency))

	return result
}

func (r *Result) add(violations ...*Violation) {
	for _, v := range violations {
		if v != nil {
			r.Violations = append(r.Violations, *v)
		}
	}
}

func checkDate(date string) *Violation {
	if date == "" {
		return &Violation{
			Field:    "date",
			Message:  "date is required",
			Severity: SeverityError,
		}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &Violation{
			Field:    "date",
			Message:  fmt.Sprintf("date '%s' is not a valid YYYY-MM-DD calendar date", date),
			Severity: SeverityError,
		}
	}
	return nil
}

func checkDescription(description string) *Violation {
	if description == "" {
		return &Violation{
			Field:    "description",
			Message:  "description is required",
			Severity: SeverityError,
		}
	}
	return nil
}

func checkAmount(amount decimal.Decimal) []*Violation {
	if amount.LessThanOrEqual(decimal.Zero) {
		return []*Violation{{
			Field:    "amount",
			Message:  fmt.Sprintf("amount %s must be positive", amount.StringFixed(2)),
			Severity: SeverityError,
		}}
	}
	if amount.GreaterThan(amountCeiling) {
		return []*Violation{{
			Field:    "amount",
			Message:  fmt.Sprintf("amount %s exceeds 1,000,000 and looks suspicious", amount.StringFixed(2)),
			Severity: SeverityWarning,
		}}
	}
	return nil
}

func checkCurrency(currency models.Currency) *Violation {
	if currency == "" {
		return &Violation{
			Field:    "currency",
			Message:  "currency is required",
			Severity: SeverityError,
		}
	}
	if !currency.IsValid() {
		return &Violation{
			Field:    "currency",
			Message:  fmt.Sprintf("currency '%s' is not supported", currency),
			Severity: SeverityError,
		}
	}
	return nil
}
