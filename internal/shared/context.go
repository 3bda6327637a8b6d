package shared

import "context"

type sessionKey struct{}

// WithSession attaches the request's session to the context. The session
// middleware is the only writer.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session carried by ctx, or nil outside the
// middleware stack.
func SessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
