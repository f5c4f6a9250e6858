// Package simerr holds the error types shared by the grid, ledger and strategy.
//
// Callers match on the sentinels with errors.Is, or pull the details out with
// errors.As:
//
//	var me *simerr.MarginExceededError
//	if errors.As(err, &me) { ... }
package simerr

import (
	"errors"
	"fmt"
)

var (
	ErrConfig         = errors.New("invalid configuration")
	ErrSequence       = errors.New("tick sequence violation")
	ErrMarginExceeded = errors.New("margin exceeded")
)

// ConfigError reports an invalid construction parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// Configf builds a ConfigError.
func Configf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SequenceError is fatal to a run: the timelines would be misaligned if the
// tick were skipped.
type SequenceError struct {
	Tick     int
	Expected int
	Price    float64
	Reason   string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence: tick %d (expected %d, price %g): %s",
		e.Tick, e.Expected, e.Price, e.Reason)
}

func (e *SequenceError) Is(target error) bool { return target == ErrSequence }

// MarginExceededError is returned for a single rejected order. The ledger
// is left untouched.
type MarginExceededError struct {
	Side        string
	Amount      float64
	Price       float64
	Leverage    float64
	MaxLeverage float64
}

func (e *MarginExceededError) Error() string {
	return fmt.Sprintf("margin: %s %.6f @ %.6f would put leverage at %.4f (max %.4f)",
		e.Side, e.Amount, e.Price, e.Leverage, e.MaxLeverage)
}

func (e *MarginExceededError) Is(target error) bool { return target == ErrMarginExceeded }
