package domain

import "context"

// AliasStore maps short aliases to full signed tokens. Implementations must
// make the check-then-insert in PutIfAbsent atomic with respect to
// concurrent callers; the codec, not the store, carries the integrity
// contract.
type AliasStore interface {
	// PutIfAbsent stores alias → token and reports whether the alias was
	// free. A false return with a nil error means the alias is already
	// taken and the caller should generate a new one.
	PutIfAbsent(ctx context.Context, alias, token string) (bool, error)
	// Get returns the token for an alias. A miss is ("", false, nil).
	Get(ctx context.Context, alias string) (string, bool, error)
}

// CallbackRelay delivers a submission result to the form creator's endpoint.
type CallbackRelay interface {
	// Deliver performs exactly one delivery attempt and blocks until the
	// endpoint responds or the context expires. A non-success response or
	// an unreachable endpoint yields a *DeliveryError.
	Deliver(ctx context.Context, url string, payload *CallbackPayload) error
}
