package errors

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation    = "E100"
	CodeNotFound      = "E150"
	CodeDatabase      = "E200"
	CodeExternalAPI   = "E300"
	CodeState         = "E400"
	CodeRateLimit     = "E500"
	CodeAuthorization = "E600"
)

const genericUserMessage = "❌ Xatolik yuz berdi. Iltimos, qaytadan urinib ko'ring."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewValidationError reports malformed step input. msg is shown to the user
// as the re-prompt.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     "validation failed",
		UserMessage: msg,
		Severity:    SeverityLow,
	}
}

// NewNotFoundError reports a referenced entity that does not exist.
func NewNotFoundError(entity, userMsg string) *AppError {
	return &AppError{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("%s not found", entity),
		UserMessage: userMsg,
		Severity:    SeverityLow,
	}
}

// NewDatabaseError wraps a storage failure; the user is asked to retry.
func NewDatabaseError(cause error) *AppError {
	return &AppError{
		Code:        CodeDatabase,
		Message:     "database error",
		UserMessage: "⏳ Vaqtinchalik muammo, birozdan so'ng urinib ko'ring.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("external api error: %s", apiName),
		UserMessage: "⚠️ Telegram xizmati vaqtincha javob bermayapti.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "⚠️ Bu amalni hozirgi holatda bajarib bo'lmaydi.",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("⏳ Juda ko'p so'rov. %d soniyadan so'ng urinib ko'ring.", retryAfter),
		Severity:    SeverityLow,
	}
}

func NewAuthorizationError(action string) *AppError {
	return &AppError{
		Code:        CodeAuthorization,
		Message:     fmt.Sprintf("permission denied: %s", action),
		UserMessage: "❌ Sizda bu amal uchun huquq yo'q.",
		Severity:    SeverityLow,
	}
}

func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code == code
	}

	return false
}

func IsValidation(err error) bool { return HasCode(err, CodeValidation) }

func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

func IsAuthorization(err error) bool { return HasCode(err, CodeAuthorization) }

// UserMessage returns the text that can be shown to a Telegram user for err.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil && appErr.UserMessage != "" {
		return appErr.UserMessage
	}

	return genericUserMessage
}
