package router

import (
	"net/http"

	"tavares-club/internal/handler"
	"tavares-club/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	couponHandler *handler.CouponHandler,
	partnerHandler *handler.PartnerHandler,
	partnerToken string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api/coupons", func(r chi.Router) {
		r.Post("/", couponHandler.Issue)
		r.Get("/user/{userID}", couponHandler.ListForUser)
	})

	// Partner back-office routes carry the operator's session token.
	r.Route("/partner", func(r chi.Router) {
		r.Use(middleware.BearerAuth(partnerToken, logger))
		r.Post("/validate", partnerHandler.Validate)
	})

	return r
}
