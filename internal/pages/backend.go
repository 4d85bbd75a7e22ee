// Package pages holds the screens of the full-screen client and the App that
// switches between them.
package pages

import (
	"context"

	"github.com/verte-zerg/typemaster/internal/model"
)

// Backend is the subset of the API client the screens use.
type Backend interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (model.Session, error)
	Logout(ctx context.Context, s model.Session) error
	ListResults(ctx context.Context, s model.Session) ([]model.TypingResult, error)
	SaveResult(ctx context.Context, s model.Session, sub model.ResultSubmission) error
	ClearResults(ctx context.Context, s model.Session) error
	TypingText(ctx context.Context, difficulty model.Difficulty) (string, error)
	Profile(ctx context.Context, s model.Session) (model.ProfileStats, error)
	UpdateProfile(ctx context.Context, s model.Session, update model.ProfileUpdate) (model.Profile, error)
	AvatarURL(ref string) string
}

// SessionStore persists the logged-in identity.
type SessionStore interface {
	Begin(ctx context.Context, s model.Session) error
	End(ctx context.Context) error
}
