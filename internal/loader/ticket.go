package loader

import (
	"context"

	"asset-cache/internal/fetch"
	"asset-cache/internal/media"
	"asset-cache/internal/placeholder"
)

// Option customizes a request.
type Option func(*fetch.Request)

// WithCategory sets the category used to pick a placeholder.
func WithCategory(c placeholder.Category) Option {
	return func(r *fetch.Request) { r.Category = &c }
}

// WithTargetSize resizes the delivered image to fill width x height.
func WithTargetSize(width, height int) Option {
	return func(r *fetch.Request) { r.Target = media.Size{Width: width, Height: height} }
}

// WithPriority marks the request as visible to the user.
func WithPriority(high bool) Option {
	return func(r *fetch.Request) { r.HighPriority = high }
}

// WithURL fetches from url while caching under the identifier.
func WithURL(url string) Option {
	return func(r *fetch.Request) { r.URL = url }
}

func newRequest(identifier string, opts []Option) fetch.Request {
	req := fetch.Request{Identifier: identifier}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Ticket tracks a background request.
type Ticket struct {
	Identifier string

	done   chan struct{}
	cancel context.CancelFunc
	result fetch.Result
}

// Done is closed once the result is available.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the result is available.
func (t *Ticket) Wait() fetch.Result {
	<-t.done
	return t.result
}

// Result returns the result if the request has completed.
func (t *Ticket) Result() (fetch.Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return fetch.Result{}, false
	}
}

// Cancel stops waiting. The ticket still completes, with a placeholder if
// nothing was available yet. A transfer shared with other requests keeps
// running for them.
func (t *Ticket) Cancel() {
	t.cancel()
}
