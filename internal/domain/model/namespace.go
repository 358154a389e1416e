package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultAdminRoutePrefix is the console prefix used when none is configured.
// It must match the backend's ADMIN_ROUTE_PREFIX.
const DefaultAdminRoutePrefix = "/console-x7k9m"

// DefaultAPIBase is the path under which the backend mounts its REST API.
const DefaultAPIBase = "/api"

const loginSegment = "/login"

// Namespace is the protected namespace shared by the request interceptors and
// the route table. Both must be derived from the same value so that "is this
// an admin request" and "is this an admin route" never disagree.
type Namespace struct {
	prefix  string
	apiBase string
}

// NewNamespace normalizes and validates the admin route prefix and API base.
// An empty prefix falls back to DefaultAdminRoutePrefix. An empty apiBase means
// the API is mounted at the root.
func NewNamespace(prefix, apiBase string) (Namespace, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultAdminRoutePrefix
	}
	p, err := normalizePrefix(prefix)
	if err != nil {
		return Namespace{}, fmt.Errorf("admin route prefix: %w", err)
	}
	if p == "" {
		return Namespace{}, errors.New("admin route prefix: must not be the root path")
	}

	base := ""
	if strings.TrimSpace(apiBase) != "" {
		base, err = normalizePrefix(apiBase)
		if err != nil {
			return Namespace{}, fmt.Errorf("api base: %w", err)
		}
	}

	return Namespace{prefix: p, apiBase: base}, nil
}

// MustNamespace is NewNamespace for static values known to be valid.
func MustNamespace(prefix, apiBase string) Namespace {
	ns, err := NewNamespace(prefix, apiBase)
	if err != nil {
		panic(err)
	}
	return ns
}

// RoutePrefix returns the console route, e.g. "/console-x7k9m".
func (n Namespace) RoutePrefix() string { return n.prefix }

// LoginRoute returns the console login route, e.g. "/console-x7k9m/login".
func (n Namespace) LoginRoute() string { return n.prefix + loginSegment }

// APIBase returns the normalized API mount point, e.g. "/api".
func (n Namespace) APIBase() string { return n.apiBase }

// APIPrefix returns the protected API prefix, e.g. "/api/console-x7k9m".
func (n Namespace) APIPrefix() string { return n.apiBase + n.prefix }

// MatchesAPI reports whether an outgoing request path targets the protected
// API namespace.
func (n Namespace) MatchesAPI(path string) bool {
	return hasPathPrefix(path, n.APIPrefix())
}

// MatchesRoute reports whether a client route lies under the console prefix.
func (n Namespace) MatchesRoute(path string) bool {
	return hasPathPrefix(path, n.prefix)
}

// IsZero reports whether n was never initialized.
func (n Namespace) IsZero() bool { return n.prefix == "" }

// hasPathPrefix matches whole path segments only: "/a/b" has prefix "/a" but
// "/ab" does not.
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalizePrefix(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if strings.ContainsAny(p, "?#") {
		return "", fmt.Errorf("%q must be a bare path", raw)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	if strings.Contains(p, "//") {
		return "", fmt.Errorf("%q contains an empty path segment", raw)
	}
	return p, nil
}
