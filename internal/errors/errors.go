package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeInit       ErrorType = "INIT_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeFormat     ErrorType = "FORMAT_ERROR"
	ErrorTypeIO         ErrorType = "IO_ERROR"
	ErrorTypeContract   ErrorType = "CONTRACT_VIOLATION"
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// Codes distinguishing failures that share a type.
const (
	CodeNoVideoStream    = "NO_VIDEO_STREAM"
	CodeUnsupportedCodec = "UNSUPPORTED_CODEC"
	CodeScalerInit       = "SCALER_INIT"
	CodeDecodeSend       = "DECODE_SEND"
	CodeDecodeReceive    = "DECODE_RECEIVE"
	CodeScale            = "SCALE"
	CodePixelBuffer      = "PIXEL_BUFFER"
	CodeFrameGeometry    = "FRAME_GEOMETRY"
	CodeRaggedGrid       = "RAGGED_GRID"
)

// AppError represents an application error with additional context.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError with the same type and code, so sentinel
// values such as ErrNoVideoStream work with errors.Is after wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code != "" && e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details. The receiver
// is left unchanged so package-level sentinels stay shared safely.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

// WithCode returns a copy of the error carrying code.
func (e *AppError) WithCode(code string) *AppError {
	c := *e
	c.Code = code
	return &c
}

// HTTPStatus maps the error type to the status used by the debug server.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeFormat:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// ErrNoVideoStream is returned when a container holds no decodable video stream.
var ErrNoVideoStream = NewNotFoundError("video stream").WithCode(CodeNoVideoStream)

// NewInitError creates a decoding library initialization error.
func NewInitError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInit, message)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("no %s found", resource))
}

// NewFormatError creates a format error with a distinguishing code.
func NewFormatError(code, message string) *AppError {
	return New(ErrorTypeFormat, message).WithCode(code)
}

// WrapFormatError wraps err as a format error with a distinguishing code.
func WrapFormatError(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeFormat, message).WithCode(code)
}

// NewIOError wraps an I/O failure.
func NewIOError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeIO, message)
}

// NewContractError creates a contract-violation error.
func NewContractError(code, message string) *AppError {
	return New(ErrorTypeContract, message).WithCode(code)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// WrapInternalError wraps an error as internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message)
}

// IsAppError checks if an error chain contains an AppError.
func IsAppError(err error) bool {
	_, ok := GetAppError(err)
	return ok
}

// GetAppError extracts the first AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Type == errType
}

// ExitCode maps an error to the process exit status of cmd/termvid.
func ExitCode(err error) int {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return 0
	}
	appErr, ok := GetAppError(err)
	if !ok {
		return 1
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return 2
	case ErrorTypeInit:
		return 3
	case ErrorTypeNotFound:
		return 4
	case ErrorTypeFormat:
		return 5
	case ErrorTypeIO:
		return 6
	case ErrorTypeContract:
		return 7
	default:
		return 1
	}
}
