package actorctx

import "context"

type ctxKey string

const keyUserID ctxKey = "actor_user_id"

// WithUserID stamps the acting user's id on the context so lower layers
// can log who triggered a mutation.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}
