// Package redemption orchestrates the partner-side scan-to-redeem flow:
// candidate code in (scan or manual entry), normalize, validate, consume,
// result out.
package redemption

import (
	"context"
	"errors"
	"sync"

	"tavares-club/internal/model"
	"tavares-club/internal/qr"
	"tavares-club/internal/scanner"
	"tavares-club/internal/service"

	"github.com/rs/zerolog"
)

// State is the flow state visible to the partner operator.
type State string

const (
	StateCollectingInput State = "collecting-input"
	StateVerifying       State = "verifying"
)

// Outcome is the terminal result of one redemption attempt. Every attempt
// ends in exactly one of three visible shapes: a success confirmation, a
// specific rejection reason, or a generic retry prompt.
type Outcome struct {
	Success  bool   `json:"success"`
	Code     string `json:"code,omitempty"`
	Benefit  string `json:"benefit,omitempty"`
	UserName string `json:"userName,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Controller drives the redemption flow for one partner operator surface.
type Controller struct {
	service  service.CouponService
	session  *scanner.Session
	onResult func(Outcome)
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

// NewController creates a redemption flow controller. onResult receives the
// outcome of scan-triggered attempts; manual attempts get theirs from
// Submit's return value as well.
func NewController(
	svc service.CouponService,
	session *scanner.Session,
	onResult func(Outcome),
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		service:  svc,
		session:  session,
		onResult: onResult,
		logger:   logger.With().Str("component", "redemption").Logger(),
		state:    StateCollectingInput,
	}
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one redemption attempt for a candidate string from either the
// scan callback or manual entry. Manually typed input goes through the same
// QR decode step, since an operator might paste a full payload URL. Validate
// and consume are sequenced back to back; the consume is the sole source of
// truth for success.
func (c *Controller) Submit(ctx context.Context, raw string) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{Reason: model.ErrCodeInternalError, Message: "redemption flow is closed"}
	}
	if c.state == StateVerifying {
		c.mu.Unlock()
		return Outcome{Reason: model.ErrCodeInternalError, Message: "a verification is already in progress"}
	}
	c.state = StateVerifying
	c.mu.Unlock()

	outcome := c.verify(ctx, raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// The flow was torn down mid round trip. A consume that reached the
		// store still committed; we just stop reporting.
		c.logger.Debug().Msg("discarding redemption outcome after teardown")
		return Outcome{Reason: model.ErrCodeInternalError, Message: "redemption flow is closed"}
	}
	// Success or failure, the flow returns to input for the next scan.
	c.state = StateCollectingInput
	return outcome
}

// verify performs decode → validate → consume.
func (c *Controller) verify(ctx context.Context, raw string) Outcome {
	candidate := qr.Decode(raw)

	result, err := c.service.Validate(ctx, candidate)
	if err != nil {
		c.logger.Error().Err(err).Msg("validation round trip failed")
		return Outcome{Reason: model.ErrCodePersistence, Message: "Could not verify the coupon; try again"}
	}

	if !result.Valid {
		c.logger.Info().
			Str("candidate", candidate).
			Str("reason", result.Reason).
			Msg("coupon rejected")
		return Outcome{Reason: result.Reason, Message: rejectionMessage(result.Reason)}
	}

	if err := c.service.Consume(ctx, result.Coupon.ID); err != nil {
		if errors.Is(err, model.ErrAlreadyConsumedOrExpired) {
			// Lost the validate/consume race: another operator got there
			// first. Never reported as success.
			c.logger.Info().
				Str("coupon_id", result.Coupon.ID.String()).
				Msg("consume lost the race")
			return Outcome{
				Reason:  model.ErrCodeConsumeRace,
				Message: rejectionMessage(model.ErrCodeConsumeRace),
			}
		}
		c.logger.Error().Err(err).Msg("consume round trip failed")
		return Outcome{Reason: model.ErrCodePersistence, Message: "Could not redeem the coupon; try again"}
	}

	c.logger.Info().
		Str("coupon_id", result.Coupon.ID.String()).
		Str("code", result.Coupon.Code).
		Msg("coupon redeemed")

	return Outcome{
		Success:  true,
		Code:     result.Coupon.Code,
		Benefit:  result.Coupon.Benefit,
		UserName: result.Coupon.UserName,
	}
}

// rejectionMessage maps a validation reason to operator-facing text.
func rejectionMessage(reason string) string {
	switch reason {
	case model.ErrCodeNotFound:
		return model.ErrCouponNotFound.Message
	case model.ErrCodeExpired:
		return model.ErrCouponExpired.Message
	case model.ErrCodeAlreadyUsed:
		return model.ErrAlreadyUsed.Message
	case model.ErrCodeConsumeRace:
		return model.ErrAlreadyConsumedOrExpired.Message
	default:
		return "Coupon could not be verified"
	}
}

// StartScan begins a camera scan session; a decoded payload is submitted
// through the same path as manual entry and the outcome is delivered to the
// onResult handler.
func (c *Controller) StartScan(ctx context.Context, facing scanner.FacingMode) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("redemption flow is closed")
	}
	c.mu.Unlock()

	return c.session.Start(ctx, facing, func(text string) {
		outcome := c.Submit(ctx, text)
		c.mu.Lock()
		handler := c.onResult
		closed := c.closed
		c.mu.Unlock()
		if handler != nil && !closed {
			handler(outcome)
		}
	})
}

// StopScan releases the camera without tearing down the flow.
func (c *Controller) StopScan() {
	c.session.Stop()
}

// SwitchFacing flips the scan camera, as a stop-then-start cycle.
func (c *Controller) SwitchFacing(ctx context.Context) error {
	return c.session.SwitchFacing(ctx)
}

// Close tears down the flow and any in-flight camera session. Late
// validate/consume responses are discarded; a consume that already reached
// the store stays committed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.session.Close()
	c.logger.Debug().Msg("redemption flow closed")
}
