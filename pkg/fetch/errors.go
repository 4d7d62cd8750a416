package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("request timed out")

	// ErrHTTPStatus matches every *HTTPStatusError.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("network error")
)

// TimeoutError is returned when the per-request timer fired before a response arrived.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.After)
}

// Timeout reports true, matching the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// HTTPStatusError is returned when a response arrived with a status outside 2xx.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	URL        string
	Header     http.Header
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

func (e *HTTPStatusError) Is(target error) bool { return target == ErrHTTPStatus }

// Response rebuilds a bodiless response carrying the status and headers,
// for code that inspects responses (e.g. Retry-After aware backoff).
func (e *HTTPStatusError) Response() *http.Response {
	return &http.Response{
		StatusCode: e.StatusCode,
		Status:     e.Status,
		Header:     e.Header,
	}
}

// NetworkError wraps a transport failure: DNS, refused connection, TLS, offline device.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsUnreachable reports whether err means the backend could not be reached at all.
func IsUnreachable(err error) bool {
	return IsTimeout(err) || IsNetwork(err)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
