package errors

import (
	"context"
	"errors"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// TelegramRetryAfter returns the wait Telegram asked for in a 429 reply.
func TelegramRetryAfter(err error) (time.Duration, bool) {
	var flood telebot.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}

// IsUnreachableRecipient reports errors that repeat for every retry: the
// user blocked the bot, deleted the account, or the chat is gone.
func IsUnreachableRecipient(err error) bool {
	return errors.Is(err, telebot.ErrBlockedByUser) ||
		errors.Is(err, telebot.ErrUserIsDeactivated) ||
		errors.Is(err, telebot.ErrChatNotFound)
}

// IsTransientTelegram reports delivery errors worth retrying.
func IsTransientTelegram(err error) bool {
	if err == nil || IsUnreachableRecipient(err) {
		return false
	}
	if _, ok := TelegramRetryAfter(err); ok {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return true
}
