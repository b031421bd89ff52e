package core

// rta_errors.go – JSON-RPC 2.0 error envelope for the RTA protocol. Every
// fallible RTA operation returns an *RtaError built from this fixed code
// table.

import (
	"fmt"

	"synnergy-network/pkg/utils"
)

// RtaError is a JSON-RPC error with an optional wrapped cause. The cause is
// kept for logging but never rendered onto the wire.
type RtaError struct {
	Code    int
	Message string
	Cause   error
}

func (e *RtaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RtaError) Unwrap() error { return e.Cause }

func newRtaError(code int, message string, cause error) *RtaError {
	return &RtaError{Code: code, Message: message, Cause: utils.Wrap(cause, message)}
}

// Error codes. Negative JSON-RPC codes, including -32052/-32053 for
// duplicate vote and already-processed tx.
const (
	ErrCodeInvalidAmount      = -32050
	ErrCodeInvalidPaymentId   = -32051
	ErrCodeDuplicateVote      = -32052
	ErrCodeAlreadyProcessed   = -32053
	ErrCodeSignatureFailed    = -32080
	ErrCodeInvalidTransaction = -32090
	ErrCodeInvalidParams      = -32602
	ErrCodeInternalError      = -32603
)

func ErrInvalidAmount(cause error) *RtaError {
	return newRtaError(ErrCodeInvalidAmount, "invalid amount", cause)
}

func ErrInvalidPaymentId(cause error) *RtaError {
	return newRtaError(ErrCodeInvalidPaymentId, "invalid payment id", cause)
}

func ErrDuplicateVote(cause error) *RtaError {
	return newRtaError(ErrCodeDuplicateVote, "duplicate vote", cause)
}

func ErrAlreadyProcessed(cause error) *RtaError {
	return newRtaError(ErrCodeAlreadyProcessed, "already processed", cause)
}

func ErrSignatureFailed(cause error) *RtaError {
	return newRtaError(ErrCodeSignatureFailed, "signature failed", cause)
}

func ErrInvalidTransaction(cause error) *RtaError {
	return newRtaError(ErrCodeInvalidTransaction, "invalid transaction", cause)
}

func ErrInvalidParams(cause error) *RtaError {
	return newRtaError(ErrCodeInvalidParams, "invalid params", cause)
}

func ErrInternal(cause error) *RtaError {
	return newRtaError(ErrCodeInternalError, "internal error", cause)
}
