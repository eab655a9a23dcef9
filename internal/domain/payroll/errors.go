package payroll

import (
	"errors"
	"fmt"

	"sitelabor/internal/domain/shift"
)

var (
	ErrNotFound       = errors.New("payroll settings not found")
	ErrMissingRate    = errors.New("missing rate")
	ErrNegativeAmount = errors.New("rates and deductions cannot be negative")
	ErrRangeRequired  = errors.New("start date and end date are required")

	ErrSettingsConflict = errors.New("active payroll settings changed concurrently, retry")
)

// MissingRateError reports a shift kind with attendance but no rate.
type MissingRateError struct {
	Kind shift.Kind
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no rate configured for shift kind %q", string(e.Kind))
}

func (e *MissingRateError) Unwrap() error {
	return ErrMissingRate
}
