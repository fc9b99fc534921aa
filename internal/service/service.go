// Package service holds the feed business rules: actor resolution,
// authentication and ownership checks, and enrichment of stored rows.
package service

import (
	"context"

	"fitstream/internal/auth"
	"fitstream/internal/models"
	"fitstream/internal/observability"

	"github.com/google/uuid"
)

// fanOutLimit bounds concurrent queries issued for a single call.
const fanOutLimit = 8

// requireActor returns the acting session or UNAUTHENTICATED.
func requireActor(ctx context.Context, sessions auth.SessionSource) (*auth.Session, error) {
	if sessions == nil {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	session, err := sessions.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.NewUnauthenticatedError("Authentication required")
	}
	return session, nil
}

// viewerID returns the acting user id, or uuid.Nil when nobody is signed in.
func viewerID(ctx context.Context, sessions auth.SessionSource) uuid.UUID {
	if sessions == nil {
		return uuid.Nil
	}
	session, err := sessions.CurrentSession(ctx)
	if err != nil || session == nil {
		return uuid.Nil
	}
	return session.UserID
}

// finish ends span, records err on it and counts the operation.
func finish(span *observability.Span, operation string, err error) {
	span.SetError(err)
	span.End()
	observability.RecordFeedOperation(operation, err)
}
