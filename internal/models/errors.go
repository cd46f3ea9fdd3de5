package models

import "errors"

// Boundary failure kinds. Every fetch, file and request failure is wrapped
// with one of these sentinels so callers can decide between "report and
// continue" and "surface as an internal error" with errors.Is instead of
// string matching.
var (
	// ErrNetwork marks fetch/connect failures. Recoverable: retried or
	// reported, never fatal to the running process.
	ErrNetwork = errors.New("network error")

	// ErrStorage marks file read/write/stat failures. The operation is
	// aborted and the previous on-disk state preserved.
	ErrStorage = errors.New("storage error")

	// ErrProtocol marks malformed or unexpected requests. Handling degrades
	// to the default page.
	ErrProtocol = errors.New("protocol error")
)

// ErrorKind returns the taxonomy bucket for err, for log fields.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	default:
		return "other"
	}
}
