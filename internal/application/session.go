package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Session applies response outcomes to the credential store and navigator.
// It is the only place the session layer causes side effects.
type Session struct {
	store  driven.CredentialStore
	nav    driven.Navigator
	logger *slog.Logger
}

// NewSession creates a Session.
func NewSession(store driven.CredentialStore, nav driven.Navigator, logger *slog.Logger) *Session {
	return &Session{store: store, nav: nav, logger: logger}
}

// Apply performs the side effects of outcome. On invalidation the redirect is
// attempted even if clearing the store failed; the first error is returned.
func (s *Session) Apply(ctx context.Context, outcome Outcome) error {
	switch outcome.Action {
	case ActionRotate:
		if err := s.store.Write(ctx, outcome.Credential); err != nil {
			return fmt.Errorf("store rotated credential: %w", err)
		}
		s.logger.Info("credential rotated")
		return nil

	case ActionInvalidate:
		var firstErr error
		if err := s.store.Clear(ctx); err != nil {
			firstErr = fmt.Errorf("clear credential: %w", err)
		}
		s.logger.Warn("credential invalidated", "redirect", outcome.RedirectTo)

		if outcome.RedirectTo != "" {
			if err := s.nav.Redirect(ctx, outcome.RedirectTo); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("redirect to %s: %w", outcome.RedirectTo, err)
			}
		}
		return firstErr
	}
	return nil
}
