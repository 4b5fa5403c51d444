package lark

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Codes used for failures that happen before or around the remote call.
// Envelope failures carry the code sent by Lark.
const (
	CodeBadRequest     uint64 = http.StatusBadRequest
	CodeInternal       uint64 = http.StatusInternalServerError
	CodeBadGateway     uint64 = http.StatusBadGateway
	MessageMissingData        = "response data is null"
)

// LarkError is the single error type returned by the execution pipeline
type LarkError struct {
	Code    uint64 `json:"code"`
	Message string `json:"msg"`
	LogID   string `json:"log_id,omitempty"` // X-Tt-Logid of the response, when one was received
	cause   error
}

// Error implements the error interface
func (e *LarkError) Error() string {
	return fmt.Sprintf("[%d]: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *LarkError) Unwrap() error {
	return e.cause
}

// NewError creates a LarkError with the given code and message
func NewError(code uint64, message string) *LarkError {
	return &LarkError{Code: code, Message: message}
}

// WrapError creates a LarkError wrapping cause
func WrapError(code uint64, message string, cause error) *LarkError {
	return &LarkError{Code: code, Message: message, cause: cause}
}

// AsLarkError returns the LarkError in err's chain
func AsLarkError(err error) (*LarkError, bool) {
	var larkErr *LarkError
	if errors.As(err, &larkErr) {
		return larkErr, true
	}
	return nil, false
}

// ErrorCode returns the code of err, 0 for nil and 500 for foreign errors
func ErrorCode(err error) uint64 {
	if err == nil {
		return 0
	}
	if larkErr, ok := AsLarkError(err); ok {
		return larkErr.Code
	}
	return CodeInternal
}

func errMissingData() *LarkError {
	return NewError(CodeBadGateway, MessageMissingData)
}

func errURL(address string, cause error) *LarkError {
	return WrapError(CodeBadGateway, fmt.Sprintf("builder error: invalid url %q: %v", address, cause), cause)
}

func errCodec(cause error) *LarkError {
	return WrapError(CodeInternal, fmt.Sprintf("decode error: %v", cause), cause)
}

func errStatus(resp *http.Response) *LarkError {
	return NewError(uint64(resp.StatusCode), fmt.Sprintf("status error: %s", resp.Status))
}

// errTransport classifies a failure of the transport
func errTransport(err error) *LarkError {
	var netErr net.Error
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return WrapError(CodeInternal, fmt.Sprintf("timeout error: %v", err), err)
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return WrapError(CodeInternal, fmt.Sprintf("connect error: %v", err), err)
	case errors.Is(err, context.Canceled):
		return WrapError(CodeInternal, fmt.Sprintf("request canceled: %v", err), err)
	default:
		return WrapError(CodeInternal, fmt.Sprintf("request error: %v", err), err)
	}
}
