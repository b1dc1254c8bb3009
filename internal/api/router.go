package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/auth"
)

type RouterConfig struct {
	Connections  ConnectionService
	Feed         FeedService
	Availability AvailabilityService
	Appointments AppointmentService
	Profiles     ProfileService
	Media        MediaStore
	Auth         *auth.Authenticator
	Postgres     Pinger
	Redis        Pinger
	Log          *zap.Logger
	Env          string
	Version      string
	CORSOrigins  []string
	RateLimitRPS int
}

// AuthErrorHandler renders authentication failures like any other error.
func AuthErrorHandler(log *zap.Logger) auth.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		handleError(w, r, log, err)
	}
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggingMiddleware(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
	}

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Anonymous callers are allowed; a valid token personalizes the response.
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.OptionalUser)

		r.Get("/connections/followers", listFollowersHandler(cfg.Connections, log))
		r.Get("/connections/following", listFollowingHandler(cfg.Connections, log))
		r.Get("/connections/count-followers", countFollowersHandler(cfg.Connections, log))
		r.Get("/connections/count-following", countFollowingHandler(cfg.Connections, log))

		r.Get("/posts/feed", feedHandler(cfg.Feed, log))
		r.Get("/posts/{postId}/comments", listCommentsHandler(cfg.Feed, log))

		r.Get("/profissionais/{id}/slots", slotsHandler(cfg.Availability, log))
		r.Get("/profiles/{id}", getProfileHandler(cfg.Profiles, log))
	})

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.RequireUser)

		r.Post("/connections/follow", followHandler(cfg.Connections, log))
		r.Delete("/connections/unfollow", unfollowHandler(cfg.Connections, log))
		r.Get("/connections/is-following", isFollowingHandler(cfg.Connections, log))

		r.Post("/posts", createPostHandler(cfg.Feed, log))
		r.Post("/posts/media", uploadMediaHandler(cfg.Media, log))
		r.Delete("/posts/{postId}", deletePostHandler(cfg.Feed, log))
		r.Post("/posts/{postId}/like", likeHandler(cfg.Feed, log))
		r.Delete("/posts/{postId}/like", unlikeHandler(cfg.Feed, log))
		r.Post("/posts/{postId}/comments", addCommentHandler(cfg.Feed, log))

		r.Get("/profissionais/me/disponibilidade", listRulesHandler(cfg.Availability, log))
		r.Post("/profissionais/me/disponibilidade", createRuleHandler(cfg.Availability, log))
		r.Delete("/profissionais/me/disponibilidade/{ruleId}", deleteRuleHandler(cfg.Availability, log))
		r.Get("/profissionais/me/bloqueios", listBlackoutsHandler(cfg.Availability, log))
		r.Post("/profissionais/me/bloqueios", createBlackoutHandler(cfg.Availability, log))
		r.Delete("/profissionais/me/bloqueios/{blackoutId}", deleteBlackoutHandler(cfg.Availability, log))

		r.Post("/consultas", bookAppointmentHandler(cfg.Appointments, log))
		r.Get("/consultas", listAppointmentsHandler(cfg.Appointments, log))
		r.Get("/consultas/{id}", getAppointmentHandler(cfg.Appointments, log))
		r.Post("/consultas/{id}/{action}", transitionAppointmentHandler(cfg.Appointments, log))

		r.Post("/profiles", registerProfileHandler(cfg.Profiles, log))
	})

	return r
}
