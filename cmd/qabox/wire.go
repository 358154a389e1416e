package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/qabox/internal/adapter/driven/memory"
	"github.com/ericfisherdev/qabox/internal/adapter/driven/qaapi"
	sqliteadapter "github.com/ericfisherdev/qabox/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/qabox/internal/application"
	"github.com/ericfisherdev/qabox/internal/config"
	"github.com/ericfisherdev/qabox/internal/domain/port/driven"
)

// app holds the wired services for a single invocation. One invocation is
// one page load: the router starts at "/" and every redirect re-runs the guard.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	router *application.Router
	ask    *application.AskService
	admin  *application.AdminService
	store  driven.CredentialStore

	closers []func() error
}

// newApp is the composition root. base is the network transport; nil uses a
// clone of http.DefaultTransport.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, base http.RoundTripper) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// 1. Session state: SQLite file, or process memory when no path is set.
	// The response cache lives alongside so public pages revalidate across runs.
	var (
		creds    driven.CredentialStore
		receipts driven.ReceiptStore
		cache    httpcache.Cache
	)
	if cfg.Ephemeral() {
		creds = memory.NewCredentialStore("")
		receipts = memory.NewReceiptStore()
		cache = httpcache.NewMemoryCache()
		logger.Debug("using in-memory session state")
	} else {
		db, err := sqliteadapter.NewDB(ctx, cfg.StatePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = a.Close()
			return nil, err
		}
		creds = sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
		receipts = sqliteadapter.NewReceiptRepo(db)
		cache = sqliteadapter.NewHTTPCacheRepo(db, sqliteadapter.DefaultHTTPCacheEntries, logger)
		logger.Debug("session state opened", "path", db.Path(), "encrypted", cfg.HasSecretKey())
	}
	a.store = creds

	// 2. Router and guard share the namespace with the interceptors.
	ns := cfg.Namespace()
	a.router = application.NewRouter(ns, application.NewGuard(ns, creds), logger)

	// 3. Transport stack: session interceptors over the cache split over the network.
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	transport := application.NewAuthTransport(
		qaapi.NewTransport(ns, base, cache),
		application.NewRequestInterceptor(ns, creds),
		application.NewResponseInterceptor(ns),
		application.NewSession(creds, a.router, logger),
		a.router,
		logger,
	)
	httpClient := &http.Client{Transport: transport, Timeout: cfg.RequestTimeout}

	api, err := qaapi.NewClient(httpClient, cfg.BackendURL, ns, creds)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// 4. Use cases.
	a.ask = application.NewAskService(api, receipts, logger)
	a.admin = application.NewAdminService(api, creds, a.router, ns, logger)

	return a, nil
}

// Close releases the session state. Returns all close errors joined.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
