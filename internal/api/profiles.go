package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/profile"
)

func registerProfileHandler(svc ProfileService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req RegisterProfileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}

		identity, err := svc.Register(r.Context(), caller, profile.RegisterInput{
			Kind:      profile.Kind(req.Kind),
			Name:      req.Name,
			CPF:       req.CPF,
			Specialty: req.Specialty,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, ProfileResponse{Success: true, Profile: identity})
	}
}

func getProfileHandler(svc ProfileService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		identity, err := svc.Resolve(r.Context(), id)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: identity})
	}
}
