package model

import "errors"

// Errors shared across adapters and use cases. API adapters wrap them so
// callers can branch with errors.Is without knowing HTTP status codes.
var (
	// ErrUnauthorized indicates the backend rejected the request's credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the credentials were accepted but lack permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTooLarge indicates an upload exceeded the backend size limit.
	ErrTooLarge = errors.New("payload too large")

	// ErrServer indicates a backend failure (5xx).
	ErrServer = errors.New("server error")

	// ErrLoginRequired is returned when the route guard sent a console
	// navigation to the login view.
	ErrLoginRequired = errors.New("login required")

	// ErrRouteNotFound is returned when navigating to a path with no route.
	ErrRouteNotFound = errors.New("route not found")
)
