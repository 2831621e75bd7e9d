// Package core orchestrates the download pipeline: it resolves website
// URLs to series metadata, decides which prepub parts are downloadable,
// fetches their content and images, and assembles the book details handed
// to the epub writer.
//
// The package is written against a pinned "now": every availability and
// future-part decision inside one run uses the same instant, so a part
// launching mid-run cannot flip between addressed and skipped.
package core

import (
	"context"
	"log/slog"
	"time"

	"fascicle/internal/api"
	"fascicle/internal/model"
)

// Session is one authenticated run against the publisher API. The zero
// value is not usable; build one with NewSession.
type Session struct {
	API *api.Client

	// Now is the instant all availability decisions are made against.
	Now time.Time

	account  api.Account
	loggedIn bool
}

// NewSession wraps an API client and pins the session clock.
func NewSession(client *api.Client) *Session {
	return &Session{API: client, Now: time.Now().UTC()}
}

// Login authenticates and loads the account profile; membership drives
// part availability for the rest of the run.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.API.Login(ctx, email, password); err != nil {
		return err
	}
	account, err := s.API.Me(ctx)
	if err != nil {
		return err
	}
	s.account = account
	s.loggedIn = true
	slog.Debug("logged in", "email", account.Email, "level", account.Level)
	return nil
}

// Logout invalidates the server-side token. Best effort: a failure only
// means the token expires on its own.
func (s *Session) Logout(ctx context.Context) {
	if !s.loggedIn {
		return
	}
	s.loggedIn = false
	if err := s.API.Logout(ctx); err != nil {
		slog.Debug("logout failed", "error", err)
	}
}

// Member reports whether the logged-in account has an active membership.
func (s *Session) Member() bool { return s.account.Member() }

// Available reports whether the part is downloadable for this session.
func (s *Session) Available(part *model.Part) bool {
	return PartAvailable(s.Now, s.Member(), part)
}
