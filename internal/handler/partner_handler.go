package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"tavares-club/internal/model"
	"tavares-club/internal/qr"
	"tavares-club/internal/service"

	"github.com/rs/zerolog"
)

// PartnerHandler handles the partner-side authoritative validation endpoint.
type PartnerHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewPartnerHandler creates a new partner handler.
func NewPartnerHandler(service service.CouponService, logger zerolog.Logger) *PartnerHandler {
	return &PartnerHandler{
		service: service,
		logger:  logger.With().Str("handler", "partner").Logger(),
	}
}

// validateResponse is the success body of POST /partner/validate.
type validateResponse struct {
	Valid  bool          `json:"valid"`
	Coupon *model.Coupon `json:"coupon"`
}

// Validate handles POST /partner/validate requests: the server-side
// validate-then-consume step of the redemption flow. Responses: 200 with the
// coupon on success, 404 when no coupon matches, 409 when the coupon is
// expired, already used, or lost the consume race.
func (h *PartnerHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", h.logger)
		return
	}

	// Operators paste whole payload URLs; normalize the same way a scan is.
	candidate := qr.Decode(req.Code)

	result, err := h.service.Validate(r.Context(), candidate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to validate coupon", h.logger)
		return
	}

	if !result.Valid {
		switch result.Reason {
		case model.ErrCodeNotFound:
			writeError(w, http.StatusNotFound, "coupon not found", h.logger)
		case model.ErrCodeExpired:
			writeError(w, http.StatusConflict, "coupon expired", h.logger)
		case model.ErrCodeAlreadyUsed:
			writeError(w, http.StatusConflict, "coupon already used", h.logger)
		default:
			writeError(w, http.StatusConflict, "coupon invalid", h.logger)
		}
		return
	}

	// Consume immediately: the conditional update is the sole authority for
	// success, a passing validate alone proves nothing under concurrency.
	if err := h.service.Consume(r.Context(), result.Coupon.ID); err != nil {
		if errors.Is(err, model.ErrAlreadyConsumedOrExpired) {
			writeError(w, http.StatusConflict, "coupon already consumed or expired", h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to consume coupon", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Coupon: result.Coupon})
}
