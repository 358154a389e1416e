package driven

import "context"

// Navigator is the client-side routing surface the response interceptor's
// boundary adapter consumes to force a redirect.
type Navigator interface {
	// Location returns the path of the currently visible view.
	Location() string

	// Redirect performs a full navigation to path, replacing the current view.
	Redirect(ctx context.Context, path string) error
}
