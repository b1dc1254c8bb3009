package api

import (
	"net/http"

	"go.uber.org/zap"
)

func followHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req FollowRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}
		followee, err := parseUUIDParam(req.FollowingID, "following_id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		c, err := svc.Follow(r.Context(), caller, followee)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, ConnectionResponse{Success: true, Connection: c})
	}
}

func unfollowHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req FollowRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}
		followee, err := parseUUIDParam(req.FollowingID, "following_id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.Unfollow(r.Context(), caller, followee); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "unfollowed"})
	}
}

func listFollowersHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		p := pageParams(r)
		page, err := svc.ListFollowers(r.Context(), userID, p.Limit, p.Offset)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, FollowersResponse{
			Success:   true,
			Followers: page.Entries,
			Total:     page.Total,
			Count:     len(page.Entries),
			Limit:     page.Limit,
			Offset:    page.Offset,
			HasNext:   hasNext(page.Limit, page.Offset, page.Total),
		})
	}
}

func listFollowingHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		p := pageParams(r)
		page, err := svc.ListFollowing(r.Context(), userID, p.Limit, p.Offset)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, FollowingResponse{
			Success:   true,
			Following: page.Entries,
			Total:     page.Total,
			Count:     len(page.Entries),
			Limit:     page.Limit,
			Offset:    page.Offset,
			HasNext:   hasNext(page.Limit, page.Offset, page.Total),
		})
	}
}

func isFollowingHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		target, err := parseUUIDParam(r.URL.Query().Get("user_id"), "user_id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		following, err := svc.IsFollowing(r.Context(), caller, target)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, IsFollowingResponse{Success: true, IsFollowing: following, UserID: target})
	}
}

func countFollowersHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		n, err := svc.FollowerCount(r.Context(), userID)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, FollowerCountResponse{Success: true, UserID: userID, FollowerCount: n})
	}
}

func countFollowingHandler(svc ConnectionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := targetUser(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		n, err := svc.FollowingCount(r.Context(), userID)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, FollowingCountResponse{Success: true, UserID: userID, FollowingCount: n})
	}
}
