package model

const (
	// AuthorizationHeader carries the console credential on outgoing requests.
	AuthorizationHeader = "Authorization"

	// RotationHeader is set by the backend on any response that issues a
	// renewed console credential.
	RotationHeader = "X-New-Token"

	bearerPrefix = "Bearer "
)

// BearerValue formats token as an Authorization header value.
func BearerValue(token string) string {
	return bearerPrefix + token
}
