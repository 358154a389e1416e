package application

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ http.RoundTripper = (*AuthTransport)(nil)

// AuthTransport runs the request and response interceptors around a base
// transport. Responses and transport errors reach the caller unmodified; the
// session side effects happen before they do.
type AuthTransport struct {
	base     http.RoundTripper
	request  *RequestInterceptor
	response *ResponseInterceptor
	session  *Session
	nav      driven.Navigator
	logger   *slog.Logger
}

// NewAuthTransport wires the interceptors around base. A nil base uses
// http.DefaultTransport.
func NewAuthTransport(
	base http.RoundTripper,
	request *RequestInterceptor,
	response *ResponseInterceptor,
	session *Session,
	nav driven.Navigator,
	logger *slog.Logger,
) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{
		base:     base,
		request:  request,
		response: response,
		session:  session,
		nav:      nav,
		logger:   logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	outgoing, err := t.request.Intercept(req)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("intercept %s %s: %w", req.Method, req.URL.Path, err)
	}

	resp, err := t.base.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}

	outcome := t.response.Decide(outgoing, resp, t.nav.Location())
	if outcome.Action != ActionPassThrough {
		if applyErr := t.session.Apply(req.Context(), outcome); applyErr != nil {
			t.logger.Error("session update failed",
				"action", outcome.Action.String(),
				"method", req.Method,
				"path", req.URL.Path,
				"error", applyErr,
			)
		}
	}

	return resp, nil
}
