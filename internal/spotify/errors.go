package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized indicates the bearer token was rejected. The token is
	// never refreshed here; the run must abort.
	ErrUnauthorized = errors.New("spotify: unauthorized")

	// ErrNotFound indicates the requested resource does not exist or is not
	// visible to the token's user.
	ErrNotFound = errors.New("spotify: not found")

	// ErrRateLimited indicates the remote service asked us to back off.
	ErrRateLimited = errors.New("spotify: rate limited")
)

func statusError(method, path string, status int, body string) error {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	case http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%w: %s %s returned %d", ErrNotFound, method, path, status)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s %s", ErrRateLimited, method, path)
	}
	if body != "" {
		return fmt.Errorf("spotify: %s %s returned %d: %s", method, path, status, body)
	}
	return fmt.Errorf("spotify: %s %s returned %d", method, path, status)
}
