package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aitodo/internal/util"
	"aitodo/pkg/auth"
	"aitodo/pkg/domain"
)

const verificationCodeLength = 6

// RequestCode generates a verification code for the phone, stores its hash,
// and hands it to the SMS sender. The code is returned so debug deployments
// can echo it; callers must not expose it otherwise.
func (a *App) RequestCode(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !auth.ValidatePhone(phone) {
		return "", ErrInvalidPhone
	}
	code, err := auth.NewVerificationCode(verificationCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	if err := a.verifications.Put(phone, code); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	if err := a.sms.SendVerificationCode(ctx, phone, code); err != nil {
		return "", fmt.Errorf("send verification code: %w", err)
	}
	return code, nil
}

// VerifyCode checks the code, finds or creates the user, and opens a session.
func (a *App) VerifyCode(phone, code string) (domain.User, string, error) {
	phone = strings.TrimSpace(phone)
	if !auth.ValidatePhone(phone) {
		return domain.User{}, "", ErrInvalidPhone
	}
	ok, err := a.verifications.Consume(phone, strings.TrimSpace(code))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check verification code: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrCodeMismatch
	}
	user, found, err := a.store.GetUserByPhone(phone)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		user = domain.User{
			ID:        util.NewID(),
			Phone:     phone,
			CreatedAt: a.now().UTC(),
		}
		if err := a.store.SaveUser(user); err != nil {
			return domain.User{}, "", fmt.Errorf("create user: %w", err)
		}
		slog.Info("user registered", "user_id", user.ID)
	}
	token, err := a.sessions.NewSession(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a bearer token. Expired sessions read
// as absent.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	sess, ok, err := a.sessions.GetSession(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(sess.UserID)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates the session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}
