package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Guard gates navigation to routes that require a console credential. It only
// checks presence; whether the credential still works is learned from the next
// protected API call.
type Guard struct {
	ns    model.Namespace
	store driven.CredentialStore
}

// NewGuard creates a Guard that redirects to ns's login route.
func NewGuard(ns model.Namespace, store driven.CredentialStore) *Guard {
	return &Guard{ns: ns, store: store}
}

// Check evaluates a single navigation attempt.
func (g *Guard) Check(ctx context.Context, intent model.NavigationIntent) (model.GuardDecision, error) {
	if !intent.RequiresAuth {
		return model.GuardDecision{Verdict: model.GuardAllow}, nil
	}

	token, err := g.store.Read(ctx)
	if err != nil {
		return model.GuardDecision{}, fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		return model.GuardDecision{Verdict: model.GuardRedirect, RedirectTo: g.ns.LoginRoute()}, nil
	}
	return model.GuardDecision{Verdict: model.GuardAllow}, nil
}
