package domain

import (
	"errors"
	"fmt"
)

// Error kinds understood by every module in the engine. Callers are expected
// to classify failures with errors.Is rather than string matching.
var (
	// ErrInvalidParameter marks a request that fails validation before any
	// computation (out-of-range confidence/horizon/days, empty symbol, bad
	// quantity or price). Always propagated to the caller.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoData marks a required computation with no viable fallback, such as
	// risk metrics over an empty holding set.
	ErrNoData = errors.New("no data")

	// ErrDivisionHazard marks a zero variance/volatility/value encountered
	// mid-calculation where no documented neutral default applies.
	ErrDivisionHazard = errors.New("division hazard")
)

// InvalidParameterf wraps ErrInvalidParameter with a formatted detail message.
func InvalidParameterf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidParameter}, args...)...)
}

// NoDataf wraps ErrNoData with a formatted detail message.
func NoDataf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNoData}, args...)...)
}
