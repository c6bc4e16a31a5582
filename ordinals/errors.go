package ordinals

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidAddress     ErrorCode = "INVALID_ADDRESS"
	CodeNetworkMismatch    ErrorCode = "NETWORK_MISMATCH"
	CodeInvalidPrivateKey  ErrorCode = "INVALID_PRIVATE_KEY"
	CodeInvalidDataURL     ErrorCode = "INVALID_DATA_URL"
	CodeContentTypeTooLong ErrorCode = "CONTENT_TYPE_TOO_LONG"
	CodeInvalidFeeRate     ErrorCode = "INVALID_FEE_RATE"
	CodeInvalidParameters  ErrorCode = "INVALID_PARAMETERS"
	CodeNoUtxos            ErrorCode = "NO_UTXOS"
	CodeInsufficientFunds  ErrorCode = "INSUFFICIENT_FUNDS"
	CodeNodeUnavailable    ErrorCode = "NODE_UNAVAILABLE"
	CodeRPCError           ErrorCode = "RPC_ERROR"
	CodeBroadcastRejected  ErrorCode = "BROADCAST_REJECTED"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Error is what the service returns for every failed request.
// Message is safe to show to the caller.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation tells client mistakes from resource and node failures.
func (c ErrorCode) IsValidation() bool {
	switch c {
	case CodeInvalidAddress, CodeNetworkMismatch, CodeInvalidPrivateKey,
		CodeInvalidDataURL, CodeContentTypeTooLong, CodeInvalidFeeRate, CodeInvalidParameters:
		return true
	}
	return false
}

// CodeOf returns the code carried by err, INTERNAL_ERROR if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}
