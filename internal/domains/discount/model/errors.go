package model

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var (
	ErrRuleNotFound     = errors.New("discount rule not found")
	ErrStoreUnavailable = errors.New("discount rule store unavailable")
	ErrRuleReferenced   = errors.New("discount rule is referenced by applied discount records")
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VAL_INVALID_INPUT"      // 400
	ErrCodeRuleNotFound     ErrorCode = "DISCOUNT_NOT_FOUND"     // 404
	ErrCodeRuleReferenced   ErrorCode = "DISCOUNT_IN_USE"        // 409
	ErrCodeStaleDiscount    ErrorCode = "PRICING_STALE_DISCOUNT" // 409
	ErrCodeUnavailable      ErrorCode = "PRICING_UNAVAILABLE"    // 503
	ErrCodeInternalError    ErrorCode = "SYS_INTERNAL_ERROR"     // 500
)

// ValidationError carries per-field messages. Returned before any store write.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// NewValidationError converts ozzo field errors into a ValidationError.
// Internal validator failures are returned unchanged.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	fields := make(map[string]string)
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
	} else {
		fields["request"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}

// StaleDiscountError is raised at checkout when the savings the customer saw
// no longer match what the current rules produce.
type StaleDiscountError struct {
	Displayed decimal.Decimal `json:"displayed_savings"`
	Current   decimal.Decimal `json:"current_savings"`
}

func (e *StaleDiscountError) Error() string {
	return fmt.Sprintf("discount changed since display: displayed savings %s, current savings %s",
		e.Displayed.StringFixed(2), e.Current.StringFixed(2))
}
