package notify

import "github.com/12305/devTinder-Frontend/pkg/logger"

// Notifier is the surface controllers use for short-lived, user-facing
// notifications (toasts). Every recoverable failure produces exactly one
// Error call; celebratory events (a mutual match) produce a Success call.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// LogNotifier writes notifications to the application log. It is the default
// when no UI layer is attached.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) {
	logger.Info().Str("toast", "success").Msg(msg)
}

func (LogNotifier) Error(msg string) {
	logger.Warn().Str("toast", "error").Msg(msg)
}

func (LogNotifier) Info(msg string) {
	logger.Info().Str("toast", "info").Msg(msg)
}
