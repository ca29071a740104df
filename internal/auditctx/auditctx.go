package auditctx

import "context"

// Actor carries request-scoped details recorded alongside audit entries.
type Actor struct {
	AccountID string
	Email     string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor metadata from the context.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// Merge overlays the non-empty fields of update onto the actor already in ctx.
func Merge(ctx context.Context, update Actor) context.Context {
	current, _ := FromContext(ctx)
	if update.AccountID != "" {
		current.AccountID = update.AccountID
	}
	if update.Email != "" {
		current.Email = update.Email
	}
	if update.IPAddress != "" {
		current.IPAddress = update.IPAddress
	}
	if update.UserAgent != "" {
		current.UserAgent = update.UserAgent
	}
	return WithActor(ctx, current)
}
