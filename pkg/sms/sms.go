// Package sms delivers verification codes to phones.
package sms

import (
	"context"
	"log/slog"
)

// Sender delivers a login verification code to a phone number.
type Sender interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending them. Used in demo
// deployments and local development where no SMS credentials exist.
type LogSender struct{}

func (LogSender) SendVerificationCode(_ context.Context, phone, code string) error {
	slog.Info("sms delivery skipped (log sender)", "phone", phone, "code", code)
	return nil
}
