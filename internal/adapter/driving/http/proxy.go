// Package httphandler serves the local development proxy that forwards the
// backend's API and upload paths from a single origin.
package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// requestIDHeader matches the header the API client stamps on every call.
const requestIDHeader = "X-Request-ID"

// uploadsPath is where the backend serves uploaded images.
const uploadsPath = "/uploads"

// NewProxyHandler returns a handler that forwards apiBase and /uploads to
// backendURL with the Host header rewritten to the backend's. Any other path
// is answered with 404 by the proxy itself.
func NewProxyHandler(backendURL, apiBase string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", backendURL)
	}
	if apiBase == "" || apiBase == "/" {
		return nil, errors.New("api base must be a non-root path")
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("proxy upstream failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			writeError(w, http.StatusBadGateway, "backend unavailable")
		},
	}

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", proxy)
	mux.Handle(apiBase, proxy)
	mux.Handle(uploadsPath+"/", proxy)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped, nil
}
