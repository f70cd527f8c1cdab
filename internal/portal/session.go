// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
)

// Start loads the persisted session. Without a token the visitor is signed
// out and sees the home view. With a token the profile is fetched; any failure clears the token and
// shows the session-expired notice.
func (c *Controller) Start(ctx context.Context) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	if token == "" {
		c.mu.Lock()
		c.signOutLocked()
		c.state.View = ViewHome
		c.mu.Unlock()
		return nil
	}

	var user *model.User
	if tokenExpired(token, c.clock.Now()) {
		err = ErrSessionExpired
	} else {
		user, err = c.api.Profile(ctx, token)
	}
	if err != nil {
		c.logger.Info("session expired", "category", model.EventCategoryAuth, "error", err)
		c.expire(ctx)
		return ErrSessionExpired
	}

	c.mu.Lock()
	c.state.User = user
	c.state.ProfileCheckedAt = c.clock.Now()
	c.mu.Unlock()

	// A listing failure has its own notice and does not fail the session.
	_ = c.refreshSheets(ctx)
	return nil
}

// Resume continues a restored session. The profile is fetched again when the
// user is missing or was checked longer than maxAge ago. A user without a
// token is dropped to keep the session consistent.
func (c *Controller) Resume(ctx context.Context, maxAge time.Duration) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	c.mu.Lock()
	user, checkedAt := c.state.User, c.state.ProfileCheckedAt
	if token == "" {
		if user != nil {
			c.signOutLocked()
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if user != nil && c.clock.Now().Sub(checkedAt) < maxAge {
		return nil
	}
	return c.Start(ctx)
}

// expire clears the session after an authentication failure.
func (c *Controller) expire(ctx context.Context) {
	if err := c.tokens.ClearToken(ctx); err != nil {
		c.logger.Error("failed to clear token", "error", err)
	}

	c.mu.Lock()
	c.signOutLocked()
	c.state.View = ViewHome
	c.mu.Unlock()

	c.failMessage(c.t("notice.session_expired"))
}

// handleUnauthorized expires the session when err is a 401 from the API.
func (c *Controller) handleUnauthorized(ctx context.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	c.expire(ctx)
	return true
}

// signOutLocked resets everything tied to the signed-in user.
func (c *Controller) signOutLocked() {
	c.state.User = nil
	c.state.ProfileCheckedAt = time.Time{}
	c.state.Sheets = nil
	c.state.SheetsLoaded = false
	c.state.Filter = model.Filter{}
	c.state.VerificationFile = ""
	c.state.Admin = AdminState{Form: model.DefaultSheetForm()}
	c.gen++
}

// token returns the persisted token of a signed-in visitor.
func (c *Controller) token(ctx context.Context) (string, error) {
	if !c.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// requireToken is token with the login-required notice on failure.
func (c *Controller) requireToken(ctx context.Context) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			c.failMessage(c.t("notice.login_required"))
		} else {
			c.failMessage(c.t("notice.unexpected_error"))
		}
		return "", err
	}
	return token, nil
}

// validate runs the form validator and sets the first message as notice.
func (c *Controller) validate(form any) error {
	if c.validator == nil {
		return nil
	}
	if err := c.validator.Struct(c.lang, form); err != nil {
		c.failMessage(err.Error())
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// Login signs in with email and password.
func (c *Controller) Login(ctx context.Context, creds model.Credentials) error {
	if err := c.validate(creds); err != nil {
		return err
	}

	res, err := c.api.Login(ctx, creds)
	if err != nil {
		c.logger.Info("login failed", "category", model.EventCategoryAuth, "email", creds.Email, "error", err)
		c.fail(err, "notice.auth_failed")
		return err
	}

	if err := c.signIn(ctx, res); err != nil {
		return err
	}
	c.logger.Info("user logged in", "user_id", res.User.ID)
	c.success("notice.login_success")
	_ = c.refreshSheets(ctx)
	return nil
}

// Register creates an account and signs in.
func (c *Controller) Register(ctx context.Context, reg model.Registration) error {
	if err := c.validate(reg); err != nil {
		return err
	}

	res, err := c.api.Register(ctx, reg)
	if err != nil {
		c.logger.Info("registration failed", "category", model.EventCategoryAuth, "email", reg.Email, "error", err)
		c.fail(err, "notice.auth_failed")
		return err
	}

	if err := c.signIn(ctx, res); err != nil {
		return err
	}
	c.logger.Info("user registered", "user_id", res.User.ID, "user_type", res.User.UserType)
	c.success("notice.register_success")
	_ = c.refreshSheets(ctx)
	return nil
}

// signIn persists the token first so the session never holds a user
// without a token.
func (c *Controller) signIn(ctx context.Context, res *api.AuthResult) error {
	if res.Token == "" {
		err := errors.New("empty token in auth response")
		c.logger.Error("login response without token", "error", err)
		c.failMessage(c.t("notice.auth_failed"))
		return err
	}
	if err := c.tokens.SetToken(ctx, res.Token); err != nil {
		c.logger.Error("failed to persist token", "error", err)
		c.failMessage(c.t("notice.auth_failed"))
		return fmt.Errorf("persisting token: %w", err)
	}

	user := res.User
	c.mu.Lock()
	c.signOutLocked()
	c.state.User = &user
	c.state.ProfileCheckedAt = c.clock.Now()
	c.state.View = ViewDashboard
	c.mu.Unlock()
	return nil
}

// Logout clears the token and the user. No API call is made.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.tokens.ClearToken(ctx)
	if err != nil {
		c.logger.Error("failed to clear token", "error", err)
	}

	c.mu.Lock()
	c.signOutLocked()
	c.state.View = ViewHome
	c.state.ResetToken = ""
	c.mu.Unlock()

	c.success("notice.logout_success")
	return err
}

// ForgotPassword requests a reset email. The notice is the same whether or
// not the address is registered, and whether or not the call succeeded.
func (c *Controller) ForgotPassword(ctx context.Context, email string) error {
	if err := c.validate(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}

	if err := c.api.ForgotPassword(ctx, email); err != nil {
		c.logger.Warn("forgot password request failed", "category", model.EventCategoryAuth, "error", err)
	}

	c.ShowAuth(AuthLogin)
	c.success("notice.forgot_sent")
	return nil
}

// SetResetToken stores a reset token taken from an emailed link and shows the
// reset-password view.
func (c *Controller) SetResetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ResetToken = token
	c.state.View = ViewResetPassword
}

// ResetToken returns the pending reset token.
func (c *Controller) ResetToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ResetToken
}

// ResetPassword sets a new password with the pending reset token. Passwords
// shorter than model.MinPasswordLength are rejected without an API call.
func (c *Controller) ResetPassword(ctx context.Context, newPassword string) error {
	token := c.ResetToken()
	if token == "" {
		c.failMessage(c.t("notice.reset_missing_token"))
		return fmt.Errorf("%w: missing reset token", ErrValidation)
	}
	if utf8.RuneCountInString(newPassword) < model.MinPasswordLength {
		c.failMessage(c.t("notice.password_too_short", model.MinPasswordLength))
		return fmt.Errorf("%w: password too short", ErrValidation)
	}

	err := c.api.ResetPassword(ctx, model.PasswordReset{Token: token, NewPassword: newPassword})
	if err != nil {
		c.logger.Info("password reset failed", "category", model.EventCategoryAuth, "error", err)
		c.SetView(ViewResetPassword)
		c.fail(err, "notice.reset_failed")
		return err
	}

	c.mu.Lock()
	c.state.ResetToken = ""
	c.state.View = ViewAuth
	c.state.AuthMode = AuthLogin
	c.mu.Unlock()

	c.success("notice.reset_success")
	return nil
}
