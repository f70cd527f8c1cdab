// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ecole-go/internal/portal"
)

// Session keys.
const (
	TokenKey    = "token"
	StateKey    = "portal"
	LanguageKey = "lang"
)

// TokenStore keeps the bearer token in the session under TokenKey.
// The context must carry a loaded session (scs LoadAndSave).
type TokenStore struct {
	sm *scs.SessionManager
}

// NewTokenStore returns a TokenStore backed by sm.
func NewTokenStore(sm *scs.SessionManager) *TokenStore {
	return &TokenStore{sm: sm}
}

// Token returns the stored token, or "".
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	return s.sm.GetString(ctx, TokenKey), nil
}

// SetToken stores token under a fresh session ID, so a session ID issued
// before sign-in is never authenticated.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}
	s.sm.Put(ctx, TokenKey, token)
	return nil
}

// ClearToken removes the token and rotates the session ID.
func (s *TokenStore) ClearToken(ctx context.Context) error {
	s.sm.Remove(ctx, TokenKey)
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session: %w", err)
	}
	return nil
}

// StateStore keeps the portal controller state in the session as JSON.
type StateStore struct {
	sm *scs.SessionManager
}

// NewStateStore returns a StateStore backed by sm.
func NewStateStore(sm *scs.SessionManager) *StateStore {
	return &StateStore{sm: sm}
}

// Load returns the saved state. ok is false when none was saved.
func (s *StateStore) Load(ctx context.Context) (st portal.State, ok bool, err error) {
	b := s.sm.GetBytes(ctx, StateKey)
	if len(b) == 0 {
		return portal.State{}, false, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return portal.State{}, false, fmt.Errorf("decoding portal state: %w", err)
	}
	return st, true, nil
}

// Save stores st.
func (s *StateStore) Save(ctx context.Context, st portal.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding portal state: %w", err)
	}
	s.sm.Put(ctx, StateKey, b)
	return nil
}

// Clear drops the saved state.
func (s *StateStore) Clear(ctx context.Context) {
	s.sm.Remove(ctx, StateKey)
}

// Language returns the language stored for the visitor, or "".
func Language(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, LanguageKey)
}

// SetLanguage stores the visitor's language.
func SetLanguage(ctx context.Context, sm *scs.SessionManager, lang string) {
	sm.Put(ctx, LanguageKey, lang)
}
