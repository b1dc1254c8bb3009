package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/auth"
	"github.com/hackgods/telehealth-social/internal/pagination"
)

var errNotAuthenticated = apperr.New(apperr.Unauthenticated, "authentication required")

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return uuid.Nil, errNotAuthenticated
	}
	return id, nil
}

// viewer returns the authenticated user, or nil for anonymous requests.
func viewer(r *http.Request) *uuid.UUID {
	if id, ok := auth.UserID(r.Context()); ok {
		return &id
	}
	return nil
}

// targetUser reads the user_id query parameter, defaulting to the caller.
func targetUser(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		if id, ok := auth.UserID(r.Context()); ok {
			return id, nil
		}
		return uuid.Nil, apperr.New(apperr.InvalidInput, "user_id is required")
	}
	return parseUUIDParam(raw, "user_id")
}

func pageParams(r *http.Request) pagination.Params {
	return pagination.FromQuery(r.URL.Query())
}

// hasNext reports whether rows remain after the page a service returned.
func hasNext(limit, offset, total int) bool {
	return pagination.Params{Limit: limit, Offset: offset}.HasNext(total)
}
