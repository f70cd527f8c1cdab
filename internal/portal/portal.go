// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package portal holds the per-visitor session and view controller. It owns
// the bearer token, the signed-in user, the current view, the sheet filter
// and listing, the notice slot and the admin workflow. Every operation calls
// the remote API through the API interface and reports its outcome through
// exactly one notice.
package portal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/model"
)

// View selects the page shown to the visitor.
type View string

// Views.
const (
	ViewHome          View = "home"
	ViewAuth          View = "auth"
	ViewDashboard     View = "dashboard"
	ViewPremium       View = "premium"
	ViewAbout         View = "about"
	ViewContact       View = "contact"
	ViewAdmin         View = "admin"
	ViewResetPassword View = "reset-password"
)

// AuthMode selects the sub-view of the auth page.
type AuthMode string

// Auth modes.
const (
	AuthLogin    AuthMode = "login"
	AuthRegister AuthMode = "register"
	AuthForgot   AuthMode = "forgot"
)

// IsValid reports whether m is a known auth mode.
func (m AuthMode) IsValid() bool {
	return m == AuthLogin || m == AuthRegister || m == AuthForgot
}

// Errors returned by controller operations. The notice has already been set
// when one of these is returned.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAdminRequired    = errors.New("admin access required")
	ErrNotConfirmed     = errors.New("action not confirmed")
	ErrSessionExpired   = errors.New("session expired")
	ErrShortcutDisabled = errors.New("reset shortcut disabled")
)

// API is the subset of the remote API used by the controller.
type API interface {
	Login(ctx context.Context, creds model.Credentials) (*api.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (*api.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in model.PasswordReset) error
	Profile(ctx context.Context, token string) (*model.User, error)
	ListSheets(ctx context.Context, token string, filter model.Filter) ([]model.Sheet, error)
	SimulateSubscription(ctx context.Context, token string) error
	UploadVerification(ctx context.Context, token string, file api.Upload) error
	Download(ctx context.Context, token, fileURL string) (*api.File, error)
	AdminStats(ctx context.Context, token string) (*model.AdminStats, error)
	AdminSheets(ctx context.Context, token string) ([]model.Sheet, error)
	CreateSheet(ctx context.Context, token string, form model.SheetForm, file api.Upload) (*model.Sheet, error)
	DeleteSheet(ctx context.Context, token, id string) error
	ResetUserPassword(ctx context.Context, token string, in model.UserPasswordReset) error
}

// TokenStore persists the bearer token across restarts.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Validator validates form structs, returning translated messages.
type Validator interface {
	Struct(lang string, s any) error
}

// ImageNormalizer rewrites an uploaded image before it is sent.
type ImageNormalizer interface {
	Normalize(r io.Reader, contentType string) ([]byte, error)
}

// AdminState is the admin page state.
type AdminState struct {
	Stats  *model.AdminStats `json:"stats,omitempty"`
	Sheets []model.Sheet     `json:"sheets,omitempty"`
	Form   model.SheetForm   `json:"form"`
}

// State is the serialisable controller state kept between requests.
// The token is not part of it; it lives in the TokenStore.
type State struct {
	User             *model.User   `json:"user,omitempty"`
	ProfileCheckedAt time.Time     `json:"profile_checked_at"`
	View             View          `json:"view"`
	AuthMode         AuthMode      `json:"auth_mode"`
	Filter           model.Filter  `json:"filter"`
	Sheets           []model.Sheet `json:"sheets,omitempty"`
	SheetsLoaded     bool          `json:"sheets_loaded"`
	ResetToken       string        `json:"reset_token,omitempty"`
	VerificationFile string        `json:"verification_file,omitempty"`
	Notice           model.Notice  `json:"notice"`
	NoticeSetAt      time.Time     `json:"notice_set_at"`
	Admin            AdminState    `json:"admin"`
}

func initialState() State {
	return State{
		View:     ViewHome,
		AuthMode: AuthLogin,
		Admin:    AdminState{Form: model.DefaultSheetForm()},
	}
}

// clone returns a deep copy so callers never share slices with the controller.
func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Sheets = slices.Clone(s.Sheets)
	if s.Admin.Stats != nil {
		st := *s.Admin.Stats
		out.Admin.Stats = &st
	}
	out.Admin.Sheets = slices.Clone(s.Admin.Sheets)
	return out
}

// Controller is the session and view controller of one visitor.
// It is safe for concurrent use.
type Controller struct {
	api       API
	tokens    TokenStore
	validator Validator
	images    ImageNormalizer
	clock     Clock
	logger    *slog.Logger
	lang      string
	maxUpload int64
	shortcut  *model.UserPasswordReset

	notices *NoticeSlot

	mu    sync.Mutex
	state State
	gen   uint64 // sheet listing generation
}

// Option configures a Controller.
type Option func(*Controller)

// WithValidator sets the form validator.
func WithValidator(v Validator) Option {
	return func(c *Controller) { c.validator = v }
}

// WithImageNormalizer sets the normalizer applied to JPEG and PNG uploads.
func WithImageNormalizer(n ImageNormalizer) Option {
	return func(c *Controller) { c.images = n }
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithLanguage sets the notice language.
func WithLanguage(lang string) Option {
	return func(c *Controller) { c.lang = lang }
}

// WithMaxUpload sets the verification upload size limit in bytes.
func WithMaxUpload(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxUpload = n
		}
	}
}

// WithNoticeTTL sets how long a notice stays visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(c *Controller) { c.notices.ttl = d }
}

// WithNoticeObserver registers a callback run for every notice set.
func WithNoticeObserver(fn func(model.Severity)) Option {
	return func(c *Controller) { c.notices.observe = fn }
}

// WithResetShortcut enables the one-click admin password reset of a fixed
// account. Disabled unless both values are set.
func WithResetShortcut(email, password string) Option {
	return func(c *Controller) {
		if email != "" && password != "" {
			c.shortcut = &model.UserPasswordReset{Email: email, NewPassword: password}
		}
	}
}

// Default limits.
const (
	DefaultMaxUpload = 5 << 20
	DefaultNoticeTTL = 5 * time.Second
)

// New creates a controller in the signed-out initial state. Call Start or
// Resume to load the persisted session.
func New(a API, tokens TokenStore, opts ...Option) *Controller {
	c := &Controller{
		api:       a,
		tokens:    tokens,
		clock:     systemClock{},
		logger:    slog.Default(),
		lang:      i18n.DefaultLanguage,
		maxUpload: DefaultMaxUpload,
		state:     initialState(),
	}
	c.notices = &NoticeSlot{ttl: DefaultNoticeTTL}
	for _, opt := range opts {
		opt(c)
	}
	c.notices.clock = c.clock
	return c
}

// Restore replaces the controller state with a saved snapshot.
func (c *Controller) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = s.clone()
	if c.state.View == "" {
		c.state.View = ViewHome
	}
	if !c.state.AuthMode.IsValid() {
		c.state.AuthMode = AuthLogin
	}
	if c.state.Admin.Form.Level == "" {
		c.state.Admin.Form = model.DefaultSheetForm()
	}
	c.notices.restore(s.Notice, s.NoticeSetAt)
}

// Snapshot returns a copy of the current state for persistence.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	s := c.state.clone()
	c.mu.Unlock()

	s.Notice, s.NoticeSetAt = c.notices.raw()
	return s
}

// Language returns the notice language.
func (c *Controller) Language() string {
	return c.lang
}

// User returns a copy of the signed-in user, or nil.
func (c *Controller) User() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.User == nil {
		return nil
	}
	u := *c.state.User
	return &u
}

// IsAuthenticated reports whether a user is signed in.
func (c *Controller) IsAuthenticated() bool {
	return c.User() != nil
}

// IsAdmin reports whether the signed-in user is an admin. This is a display
// gate only; the API enforces admin rights.
func (c *Controller) IsAdmin() bool {
	u := c.User()
	return u != nil && u.IsAdmin
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View
}

// SetView switches the current view.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = v
}

// AuthMode returns the auth sub-view.
func (c *Controller) AuthMode() AuthMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AuthMode
}

// ShowAuth switches to the auth view in the given mode.
func (c *Controller) ShowAuth(m AuthMode) {
	if !m.IsValid() {
		m = AuthLogin
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = ViewAuth
	c.state.AuthMode = m
}

// Notices returns the notice slot.
func (c *Controller) Notices() *NoticeSlot {
	return c.notices
}

// VerificationFile returns the name of the last verification file that
// failed to upload, or "".
func (c *Controller) VerificationFile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.VerificationFile
}

func (c *Controller) t(key string, args ...any) string {
	return i18n.T(c.lang, key, args...)
}

func (c *Controller) success(key string, args ...any) {
	c.notices.Set(c.t(key, args...), model.SeveritySuccess)
}

func (c *Controller) info(key string, args ...any) {
	c.notices.Set(c.t(key, args...), model.SeverityInfo)
}

// fail sets an error notice with the server-provided detail of err if any,
// else the generic message for key.
func (c *Controller) fail(err error, key string, args ...any) {
	msg := api.Detail(err)
	if msg == "" {
		msg = c.t(key, args...)
	}
	c.notices.Set(msg, model.SeverityError)
}

func (c *Controller) failMessage(msg string) {
	c.notices.Set(msg, model.SeverityError)
}
