package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// AdminService orchestrates the console views: login, logout and question
// moderation. Every moderation call first navigates to the console route so
// the guard decides whether the session may proceed.
type AdminService struct {
	api    driven.QAClient
	store  driven.CredentialStore
	router *Router
	ns     model.Namespace
	logger *slog.Logger
}

// NewAdminService creates a new AdminService with all required dependencies.
func NewAdminService(
	api driven.QAClient,
	store driven.CredentialStore,
	router *Router,
	ns model.Namespace,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		api:    api,
		store:  store,
		router: router,
		ns:     ns,
		logger: logger,
	}
}

// Login signs in from the login view. On success the credential is stored
// and the console is opened.
func (s *AdminService) Login(ctx context.Context, username, password string) (model.AdminToken, error) {
	if _, err := s.router.Navigate(ctx, s.ns.LoginRoute()); err != nil {
		return model.AdminToken{}, err
	}

	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		return model.AdminToken{}, fmt.Errorf("login: %w", err)
	}
	if token.AccessToken == "" {
		return model.AdminToken{}, errors.New("login: backend returned an empty token")
	}

	if err := s.store.Write(ctx, token.AccessToken); err != nil {
		return model.AdminToken{}, fmt.Errorf("store credential: %w", err)
	}
	s.logger.Info("console login succeeded", "username", username, "expires_at", token.ExpiresAt)

	if _, err := s.enterConsole(ctx); err != nil {
		return model.AdminToken{}, err
	}
	return token, nil
}

// Logout clears the credential and shows the login view.
func (s *AdminService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	_, err := s.router.Navigate(ctx, s.ns.LoginRoute())
	return err
}

// Verify asks the backend whether the stored credential is still valid and
// adopts a renewed credential returned in the response body.
func (s *AdminService) Verify(ctx context.Context) (model.VerifyResult, error) {
	if _, err := s.enterConsole(ctx); err != nil {
		return model.VerifyResult{}, err
	}

	result, err := s.api.VerifyToken(ctx)
	if err != nil {
		return model.VerifyResult{}, fmt.Errorf("verify: %w", err)
	}
	if result.NewToken != "" {
		if err := s.store.Write(ctx, result.NewToken); err != nil {
			return model.VerifyResult{}, fmt.Errorf("store renewed credential: %w", err)
		}
		s.logger.Info("credential renewed by verify")
	}
	return result, nil
}

// List returns questions for moderation.
func (s *AdminService) List(ctx context.Context, skip, limit int) ([]model.Question, error) {
	if _, err := s.enterConsole(ctx); err != nil {
		return nil, err
	}
	return s.api.ListQuestions(ctx, skip, limit)
}

// Answer answers the question with id.
func (s *AdminService) Answer(ctx context.Context, id string, answer model.Answer) (model.Question, error) {
	if _, err := s.enterConsole(ctx); err != nil {
		return model.Question{}, err
	}
	return s.api.AnswerQuestion(ctx, id, answer)
}

// Update changes visibility or answered status of the question with id.
func (s *AdminService) Update(ctx context.Context, id string, update model.QuestionUpdate) (model.Question, error) {
	if _, err := s.enterConsole(ctx); err != nil {
		return model.Question{}, err
	}
	return s.api.UpdateQuestion(ctx, id, update)
}

// Delete removes the question with id and returns the number of deleted images.
func (s *AdminService) Delete(ctx context.Context, id string) (int, error) {
	if _, err := s.enterConsole(ctx); err != nil {
		return 0, err
	}
	return s.api.DeleteQuestion(ctx, id)
}

// enterConsole navigates to the console and reports ErrLoginRequired when
// the guard sent the navigation elsewhere.
func (s *AdminService) enterConsole(ctx context.Context) (model.Route, error) {
	route, err := s.router.Navigate(ctx, s.ns.RoutePrefix())
	if err != nil {
		return model.Route{}, err
	}
	if route.Name != model.RouteAdmin {
		return route, model.ErrLoginRequired
	}
	return route, nil
}
