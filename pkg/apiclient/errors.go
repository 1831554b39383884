package apiclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// ErrSessionExpired matches (via errors.Is) every HTTPError with status 401.
var ErrSessionExpired = errors.New("session expired")

// HTTPError is returned when the server answered with a non-2xx status.
type HTTPError struct {
	Status  int
	Message string
	// Body is the parsed error body, if any.
	Body Body
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports 401 responses as ErrSessionExpired.
func (e *HTTPError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == http.StatusUnauthorized
}

// SessionExpired reports whether the server rejected the session cookie.
func (e *HTTPError) SessionExpired() bool {
	return e.Status == http.StatusUnauthorized
}

// NetworkError is returned when the server could not be reached at all
// (DNS, refused connection, TLS failure, dropped connection). Message is the
// localized connectivity hint; the transport error is available via Unwrap.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// errorMessageFields are consulted in order on JSON error bodies.
var errorMessageFields = []string{"message", "error", "title"}

// httpErrorMessage derives the user-facing message for a failed response.
func httpErrorMessage(status int, body Body, msgs messages) string {
	if status == http.StatusUnauthorized {
		return msgs.sessionExpired
	}
	if body.Kind == BodyJSON {
		for _, field := range errorMessageFields {
			if res := gjson.GetBytes(body.Raw, field); truthy(res) {
				return res.String()
			}
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// truthy reports whether res is a usable scalar message. Empty strings, zero,
// false and null count as absent, and so do objects and arrays.
func truthy(res gjson.Result) bool {
	switch res.Type {
	case gjson.String:
		return res.Str != ""
	case gjson.Number:
		return res.Num != 0
	case gjson.True:
		return true
	default:
		return false
	}
}

// isNetworkFailure reports transport-level failures where no response arrived.
// URL parse failures surface as *url.Error too and are excluded.
func isNetworkFailure(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Op != "parse"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
