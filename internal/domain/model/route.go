package model

// RouteName identifies a client view.
type RouteName string

const (
	// RouteAsk is the public entry view for submitting and browsing questions.
	RouteAsk RouteName = "ask"
	// RouteAdminLogin is the unauthenticated console login view.
	RouteAdminLogin RouteName = "admin-login"
	// RouteAdmin is the authenticated console view.
	RouteAdmin RouteName = "admin"
)

// Route is a static entry in the client route table.
type Route struct {
	Name         RouteName
	Path         string
	RequiresAuth bool
}

// NavigationIntent is a request to change the visible route. RequiresAuth is
// copied from the matched route's metadata.
type NavigationIntent struct {
	Path         string
	RequiresAuth bool
}

// GuardVerdict is the outcome of evaluating a navigation intent.
type GuardVerdict int

const (
	// GuardAllow lets the navigation continue to its target.
	GuardAllow GuardVerdict = iota
	// GuardRedirect replaces the navigation with RedirectTo.
	GuardRedirect
)

// GuardDecision is returned by the route guard for a single navigation attempt.
type GuardDecision struct {
	Verdict    GuardVerdict
	RedirectTo string
}

// Allowed reports whether the navigation may continue unchanged.
func (d GuardDecision) Allowed() bool { return d.Verdict == GuardAllow }
