package data

import "context"

// Resolver is an asynchronous producer of dataset bundles. It may emit zero
// or more values over time; only non-empty bundles are observed by the
// session lifecycle, and only the first one is acted on. A resolver that
// never emits (e.g. one waiting for credentials) simply leaves its channel
// open until the context is cancelled.
type Resolver interface {
	// Resolve returns a channel of bundle emissions. The channel is closed
	// when the resolver has nothing further to emit or ctx is cancelled.
	Resolve(ctx context.Context) <-chan *Bundle
}

// StaticResolver emits a single pre-built bundle immediately.
type StaticResolver struct {
	bundle *Bundle
}

// NewStaticResolver wraps an already-loaded bundle.
func NewStaticResolver(bundle *Bundle) *StaticResolver {
	return &StaticResolver{bundle: bundle}
}

// Resolve emits the bundle once and closes the channel.
func (r *StaticResolver) Resolve(ctx context.Context) <-chan *Bundle {
	out := make(chan *Bundle, 1)
	out <- r.bundle
	close(out)
	return out
}

// PendingResolver never emits. It models data sources that stay unresolved
// for the life of the session, such as ones awaiting interactive input.
type PendingResolver struct{}

// Resolve returns a channel that closes only on context cancellation.
func (PendingResolver) Resolve(ctx context.Context) <-chan *Bundle {
	out := make(chan *Bundle)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}
