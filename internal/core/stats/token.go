package stats

import "context"

type userTokenKey struct{}

// WithUserToken stores a caller supplied GitHub token on the context
// the token is request scoped and never persisted or shared
func WithUserToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, userTokenKey{}, token)
}

// UserToken returns the caller's token or "" when none was supplied
func UserToken(ctx context.Context) string {
	v, _ := ctx.Value(userTokenKey{}).(string)
	return v
}
