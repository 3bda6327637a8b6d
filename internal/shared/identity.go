package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CurrentUserID extracts the authenticated user id from the request session.
func CurrentUserID(ctx context.Context) (uuid.UUID, bool) {
	sess := SessionFrom(ctx)
	if sess == nil {
		return uuid.Nil, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
