package qaapi

import (
	"net/http"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// NewTransport builds the transport that sits below the session layer.
// Anonymous public GETs are served through an ETag cache; requests to the
// protected namespace and requests that carry a credential always go to the
// network. A nil cache keeps responses in memory for the process lifetime.
func NewTransport(ns model.Namespace, base http.RoundTripper, cache httpcache.Cache) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if cache == nil {
		cache = httpcache.NewMemoryCache()
	}
	cached := httpcache.NewTransport(cache)
	cached.Transport = base
	return &cacheSplitTransport{ns: ns, cached: cached, direct: base}
}

type cacheSplitTransport struct {
	ns     model.Namespace
	cached http.RoundTripper
	direct http.RoundTripper
}

func (t *cacheSplitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.cacheable(req) {
		return t.direct.RoundTrip(req)
	}

	resp, err := t.cached.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	// A replayed rotation header would overwrite a newer credential.
	if resp.Header.Get(httpcache.XFromCache) != "" {
		resp.Header.Del(model.RotationHeader)
	}
	return resp, nil
}

func (t *cacheSplitTransport) cacheable(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if t.ns.MatchesAPI(req.URL.Path) {
		return false
	}
	return req.Header.Get(model.AuthorizationHeader) == ""
}
