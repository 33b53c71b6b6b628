package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tavares-club/internal/model"
	"tavares-club/internal/qr"
	"tavares-club/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CouponHandler handles user-facing coupon HTTP requests.
type CouponHandler struct {
	service    service.CouponService
	baseOrigin string
	logger     zerolog.Logger
}

// NewCouponHandler creates a new coupon handler. baseOrigin is the origin
// embedded in QR payload URLs.
func NewCouponHandler(service service.CouponService, baseOrigin string, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service:    service,
		baseOrigin: baseOrigin,
		logger:     logger.With().Str("handler", "coupon").Logger(),
	}
}

// Issue handles POST /api/coupons requests.
func (h *CouponHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req model.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	coupon, err := h.service.Issue(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrPersistence) {
			writeError(w, http.StatusInternalServerError, "failed to issue coupon", h.logger)
			return
		}
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "nil") {
			writeError(w, http.StatusBadRequest, err.Error(), h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to issue coupon", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.IssueResponse{
		Coupon:    coupon,
		QRPayload: qr.Encode(coupon.Code, h.baseOrigin),
	})
}

// ListForUser handles GET /api/coupons/user/{userID} requests.
func (h *CouponHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required", h.logger)
		return
	}

	views, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list coupons", h.logger)
		return
	}

	if views == nil {
		views = []model.CouponView{}
	}

	writeJSON(w, http.StatusOK, views)
}
