package fetch

import "errors"

var (
	// ErrConnectivityUnavailable means the request arrived while offline. A
	// placeholder was delivered and a deferred fetch registered.
	ErrConnectivityUnavailable = errors.New("connectivity unavailable")

	// ErrTransferFailed covers non-200 responses, timeouts and transport
	// errors.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrDecodeFailure means the response body was not a decodable image.
	// It is always reported together with ErrTransferFailed.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrCancelled means the request or its transfer was cancelled.
	ErrCancelled = errors.New("request cancelled")
)
