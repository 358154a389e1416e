package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/qabox/internal/domain/model"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// maxGuardRedirects bounds chained guard redirects.
const maxGuardRedirects = 3

// Compile-time interface satisfaction check.
var _ driven.Navigator = (*Router)(nil)

// Router resolves client routes, runs the guard before every navigation and
// tracks the visible location. The latest completed navigation wins.
type Router struct {
	routes []model.Route
	guard  *Guard
	logger *slog.Logger

	mu       sync.RWMutex
	location string
}

// NewRouter builds the route table from ns so the console routes and the
// interceptors share one namespace value. The initial location is "/".
func NewRouter(ns model.Namespace, guard *Guard, logger *slog.Logger) *Router {
	return &Router{
		routes:   RouteTable(ns),
		guard:    guard,
		logger:   logger,
		location: "/",
	}
}

// RouteTable returns the client routes for ns.
func RouteTable(ns model.Namespace) []model.Route {
	return []model.Route{
		{Name: model.RouteAsk, Path: "/"},
		{Name: model.RouteAdminLogin, Path: ns.LoginRoute()},
		{Name: model.RouteAdmin, Path: ns.RoutePrefix(), RequiresAuth: true},
	}
}

// Location returns the path of the visible view.
func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Navigate moves to path and returns the route actually shown, which is the
// login view when the guard replaced the navigation.
func (r *Router) Navigate(ctx context.Context, path string) (model.Route, error) {
	target := path
	for range maxGuardRedirects {
		route, ok := r.lookup(target)
		if !ok {
			return model.Route{}, fmt.Errorf("navigate to %q: %w", target, model.ErrRouteNotFound)
		}

		decision, err := r.guard.Check(ctx, model.NavigationIntent{Path: route.Path, RequiresAuth: route.RequiresAuth})
		if err != nil {
			return model.Route{}, fmt.Errorf("navigate to %q: %w", target, err)
		}

		if decision.Allowed() {
			r.mu.Lock()
			r.location = route.Path
			r.mu.Unlock()
			return route, nil
		}

		r.logger.Debug("navigation redirected", "from", route.Path, "to", decision.RedirectTo)
		target = decision.RedirectTo
	}
	return model.Route{}, fmt.Errorf("navigate to %q: too many redirects", path)
}

// Redirect performs a full navigation to path. It implements driven.Navigator.
func (r *Router) Redirect(ctx context.Context, path string) error {
	_, err := r.Navigate(ctx, path)
	return err
}

// Route returns the table entry for name.
func (r *Router) Route(name model.RouteName) (model.Route, bool) {
	for _, route := range r.routes {
		if route.Name == name {
			return route, true
		}
	}
	return model.Route{}, false
}

func (r *Router) lookup(path string) (model.Route, bool) {
	for _, route := range r.routes {
		if route.Path == path {
			return route, true
		}
	}
	return model.Route{}, false
}
