// Package application contains the client session layer and use-case
// orchestration services.
package application

import (
	"fmt"
	"net/http"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// RequestInterceptor attaches the stored console credential to requests that
// target the protected API namespace.
type RequestInterceptor struct {
	ns    model.Namespace
	store driven.CredentialStore
}

// NewRequestInterceptor creates a RequestInterceptor. It never fails.
func NewRequestInterceptor(ns model.Namespace, store driven.CredentialStore) *RequestInterceptor {
	return &RequestInterceptor{ns: ns, store: store}
}

// Intercept returns the request to dispatch. Protected requests get
// "Authorization: Bearer <token>" when a credential is stored; the original
// request is never mutated. Requests outside the namespace, including any
// headers the caller set on them, pass through unchanged. A store failure is
// returned so the caller's error path runs.
func (i *RequestInterceptor) Intercept(req *http.Request) (*http.Request, error) {
	if req.URL == nil || !i.ns.MatchesAPI(req.URL.Path) {
		return req, nil
	}

	token, err := i.store.Read(req.Context())
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		// The server is the authority on rejecting unauthenticated calls.
		return req, nil
	}

	out := req.Clone(req.Context())
	out.Header.Set(model.AuthorizationHeader, model.BearerValue(token))
	return out, nil
}

// ResponseAction is what the session layer does in reaction to a response.
type ResponseAction int

const (
	// ActionPassThrough leaves session state untouched.
	ActionPassThrough ResponseAction = iota
	// ActionRotate replaces the stored credential with Outcome.Credential.
	ActionRotate
	// ActionInvalidate clears the stored credential and, when
	// Outcome.RedirectTo is set, navigates there.
	ActionInvalidate
)

func (a ResponseAction) String() string {
	switch a {
	case ActionRotate:
		return "rotate"
	case ActionInvalidate:
		return "invalidate"
	default:
		return "pass-through"
	}
}

// Outcome is the side effect a response calls for. The response itself is
// always handed to the caller unmodified.
type Outcome struct {
	Action     ResponseAction
	Credential string
	RedirectTo string
}

// ResponseInterceptor decides how a response affects the session. It holds no
// state and performs no I/O; Session.Apply carries out the decision.
type ResponseInterceptor struct {
	ns model.Namespace
}

// NewResponseInterceptor creates a ResponseInterceptor for ns.
func NewResponseInterceptor(ns model.Namespace) *ResponseInterceptor {
	return &ResponseInterceptor{ns: ns}
}

// Decide inspects the response to req. resp is nil when no response was
// received. location is the currently visible route and suppresses the login
// redirect when it already is the login view.
func (i *ResponseInterceptor) Decide(req *http.Request, resp *http.Response, location string) Outcome {
	if resp == nil {
		return Outcome{Action: ActionPassThrough}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if token := resp.Header.Get(model.RotationHeader); token != "" {
			return Outcome{Action: ActionRotate, Credential: token}
		}
		return Outcome{Action: ActionPassThrough}
	}

	if resp.StatusCode != http.StatusUnauthorized || req == nil || req.URL == nil || !i.ns.MatchesAPI(req.URL.Path) {
		return Outcome{Action: ActionPassThrough}
	}

	outcome := Outcome{Action: ActionInvalidate}
	if location != i.ns.LoginRoute() {
		outcome.RedirectTo = i.ns.LoginRoute()
	}
	return outcome
}
