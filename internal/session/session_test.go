package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typemaster.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return NewManager(st)
}

func TestLoadWithoutSession(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Active() {
		t.Fatalf("expected inactive session, got %+v", s)
	}
}

func TestBeginLoadEnd(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if err := m.Begin(ctx, model.Session{Username: " alice ", Token: "tok"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Username != "alice" || s.Token != "tok" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if err := m.End(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	s, err = m.Load(ctx)
	if err != nil {
		t.Fatalf("load after end: %v", err)
	}
	if s.Active() || s.Token != "" {
		t.Fatalf("expected cleared session, got %+v", s)
	}
}

func TestBeginRejectsEmptyUsername(t *testing.T) {
	m := newTestManager(t)
	if err := m.Begin(context.Background(), model.Session{Token: "tok"}); !errors.Is(err, ErrNoUsername) {
		t.Fatalf("expected ErrNoUsername, got %v", err)
	}
}

func TestValidateLogin(t *testing.T) {
	if err := ValidateLogin("", "pw"); !errors.Is(err, ErrEmptyFields) {
		t.Fatalf("expected empty fields error, got %v", err)
	}
	if err := ValidateLogin("alice", ""); !errors.Is(err, ErrEmptyFields) {
		t.Fatalf("expected empty fields error, got %v", err)
	}
	if err := ValidateLogin("alice", "pw"); err != nil {
		t.Fatalf("expected valid login, got %v", err)
	}
}

func TestValidateSignup(t *testing.T) {
	if err := ValidateSignup("alice", "one", "two"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := ValidateSignup("  ", "one", "one"); !errors.Is(err, ErrEmptyFields) {
		t.Fatalf("expected empty fields, got %v", err)
	}
	if err := ValidateSignup("alice", "one", "one"); err != nil {
		t.Fatalf("expected valid signup, got %v", err)
	}
}
