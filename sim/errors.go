package sim

import (
	"fmt"
)

// ErrorCode categorizes configuration and simulation errors.
type ErrorCode string

const (
	// Configuration errors, detected before any round executes.
	ErrCodeNoHandlers          ErrorCode = "NO_HANDLERS"
	ErrCodeNonContiguousID     ErrorCode = "NON_CONTIGUOUS_ID"
	ErrCodeDanglingRoute       ErrorCode = "DANGLING_ROUTE"
	ErrCodeZeroDivisor         ErrorCode = "ZERO_DIVISOR"
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"
	ErrCodeUnsupportedOperand  ErrorCode = "UNSUPPORTED_OPERAND"
	ErrCodeSelfLoop            ErrorCode = "SELF_LOOP"
	ErrCodeModulusOverflow     ErrorCode = "MODULUS_OVERFLOW"
	ErrCodeReliefWithResidue   ErrorCode = "RELIEF_WITH_RESIDUE"
	ErrCodeInvalidRunConfig    ErrorCode = "INVALID_RUN_CONFIG"

	// Invariant violations, detected while a round is in progress.
	ErrCodeMissingTarget    ErrorCode = "MISSING_TARGET"
	ErrCodeDrainLimit       ErrorCode = "DRAIN_LIMIT_EXCEEDED"
	ErrCodeUnknownDivisor   ErrorCode = "UNKNOWN_DIVISOR"
	ErrCodeReportOutOfRange ErrorCode = "REPORT_OUT_OF_RANGE"
	ErrCodeReportOverflow   ErrorCode = "REPORT_OVERFLOW"
)

// noHandler marks an error that is not attributable to a single handler.
const noHandler = -1

// ConfigError is returned by NewEngine when the handler definitions or the
// run configuration cannot be simulated. No round has executed when a
// ConfigError is returned.
type ConfigError struct {
	Code      ErrorCode
	HandlerID int // noHandler (-1) when the error concerns the run config as a whole
	Message   string
}

func (e *ConfigError) Error() string {
	if e.HandlerID == noHandler {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (handler=%d)", e.Code, e.Message, e.HandlerID)
}

func configErrorf(code ErrorCode, handlerID int, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, HandlerID: handlerID, Message: fmt.Sprintf(format, args...)}
}

// InvariantError reports a violation detected during simulation.
// Round is 1-based; HandlerID is the handler being drained when the
// violation was found.
type InvariantError struct {
	Code      ErrorCode
	Round     int
	HandlerID int
	Message   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (round=%d, handler=%d)", e.Code, e.Message, e.Round, e.HandlerID)
}
