// Package session manages the logged-in identity persisted between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/typemaster/internal/model"
)

// Fixed storage keys.
const (
	KeyUsername = "username"
	KeyToken    = "token"
)

// Validation errors.
var (
	ErrEmptyFields      = errors.New("please fill in all fields")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoUsername       = errors.New("session has no username")
)

// KV is the persistent key-value storage a Manager works over.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Manager loads, begins and ends sessions.
type Manager struct {
	kv KV
}

// NewManager returns a Manager backed by kv.
func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

// Load returns the persisted session, or an empty one when nobody is logged in.
func (m *Manager) Load(ctx context.Context) (model.Session, error) {
	username, _, err := m.kv.Get(ctx, KeyUsername)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	token, _, err := m.kv.Get(ctx, KeyToken)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	return model.Session{Username: username, Token: token}, nil
}

// Begin persists s after a successful login.
func (m *Manager) Begin(ctx context.Context, s model.Session) error {
	if !s.Active() {
		return ErrNoUsername
	}
	pairs := map[string]string{
		KeyUsername: strings.TrimSpace(s.Username),
		KeyToken:    s.Token,
	}
	if err := m.kv.SetMany(ctx, pairs); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// End removes the persisted session.
func (m *Manager) End(ctx context.Context) error {
	if err := m.kv.Delete(ctx, KeyUsername, KeyToken); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ValidateLogin checks that both fields are filled in.
func ValidateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyFields
	}
	return nil
}

// ValidateSignup checks for filled fields and a matching confirmation.
func ValidateSignup(username, password, confirm string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
