// Package actorctx carries the authenticated caller through context.Context.
// Operations that act on "my own" records read the caller from here instead
// of taking a user id argument.
package actorctx

import "context"

type userIDKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey{}).(string)

	return v, ok && v != ""
}
