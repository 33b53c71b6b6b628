package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tavares-club/internal/model"

	"github.com/rs/zerolog"
)

// ScanInterval is the fixed decode attempt rate: ten attempts per second.
const ScanInterval = 100 * time.Millisecond

// Session owns one camera capture session bound to a decode callback.
// Lifecycle: idle → requesting-permission → scanning → (idle |
// permission-denied), with a stop→start cycle on SwitchFacing.
type Session struct {
	device   Device
	decoder  Decoder
	logger   zerolog.Logger
	interval time.Duration

	mu       sync.Mutex
	state    State
	facing   FacingMode
	stream   Stream
	cancel   context.CancelFunc
	onDecode func(text string)
	closed   bool
	// generation is a liveness token: bumped on every stop, checked before a
	// scan loop acts on anything asynchronous, so a late camera event from a
	// torn-down session is a no-op.
	generation uint64
}

// NewSession creates a camera scan session over the given device and decoder.
func NewSession(device Device, decoder Decoder, logger zerolog.Logger) *Session {
	return &Session{
		device:   device,
		decoder:  decoder,
		logger:   logger.With().Str("component", "scan-session").Logger(),
		interval: ScanInterval,
		state:    StateIdle,
		facing:   FacingBack,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Facing returns the current facing mode.
func (s *Session) Facing() FacingMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Start requests camera access for the given facing mode and begins
// continuous frame decoding. On a successful decode the session fully stops
// and releases the camera before invoking onDecode: the callback commonly
// unmounts the capturing surface, and stopping first is what prevents a
// leaked camera handle.
func (s *Session) Start(ctx context.Context, facing FacingMode, onDecode func(text string)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scan session is closed")
	}
	if s.state == StateScanning || s.state == StateRequestingPermission {
		s.mu.Unlock()
		return fmt.Errorf("scan session already active")
	}
	s.state = StateRequestingPermission
	s.facing = facing
	gen := s.generation
	s.mu.Unlock()

	s.logger.Debug().Str("facing", string(facing)).Msg("requesting camera access")

	stream, err := s.device.Open(ctx, facing)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		// Torn down while the open was in flight; release the handle and
		// act on nothing.
		if stream != nil {
			stream.Close()
		}
		return nil
	}

	if err != nil {
		return s.failStartLocked(err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.state = StateScanning
	s.stream = stream
	s.cancel = cancel
	s.onDecode = onDecode

	go s.scanLoop(loopCtx, stream, s.generation)

	s.logger.Info().Str("facing", string(facing)).Msg("scanning started")
	return nil
}

// failStartLocked maps a device open failure to its user-facing reason and
// settles the session state. Callers hold s.mu.
func (s *Session) failStartLocked(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		s.state = StatePermissionDenied
		s.logger.Warn().Err(err).Msg("camera permission denied")
		return model.ErrCameraPermissionDenied
	case errors.Is(err, ErrDeviceNotFound):
		s.state = StatePermissionDenied
		s.logger.Warn().Err(err).Msg("no camera device found")
		return model.ErrNoCameraFound
	default:
		s.state = StateIdle
		s.logger.Error().Err(err).Msg("camera failed to start")
		return model.ErrCamera
	}
}

// scanLoop grabs and decodes frames at the fixed attempt rate until the
// session is stopped or a code is found.
func (s *Session) scanLoop(ctx context.Context, stream Stream, gen uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := stream.Grab(ctx)
		if err != nil {
			if ctx.Err() != nil || !s.live(gen) {
				return
			}
			// Transient grab failures are logged and retried on the next tick.
			s.logger.Debug().Err(err).Msg("frame grab failed")
			continue
		}

		text, ok := s.decoder.Decode(frame)
		if !ok {
			// Normal per-frame outcome; nothing decoded yet.
			continue
		}

		callback, live := s.stopForDecode(gen)
		if !live {
			// Session was torn down while this frame was in flight.
			return
		}

		s.logger.Info().Msg("code decoded, camera released")
		if callback != nil {
			callback(text)
		}
		return
	}
}

// live reports whether the given generation is still the active session.
func (s *Session) live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && gen == s.generation
}

// stopForDecode releases the camera on a successful decode and hands back
// the callback to invoke, or live=false if the session was already stopped.
func (s *Session) stopForDecode(gen uint64) (callback func(string), live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		return nil, false
	}

	callback = s.onDecode
	s.stopLocked()
	return callback, true
}

// Stop releases the camera device. Idempotent; safe to call when not
// scanning.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked tears down the active stream and returns the session to idle.
// Callers hold s.mu.
func (s *Session) stopLocked() {
	s.generation++

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close camera stream")
		}
		s.stream = nil
	}
	s.onDecode = nil

	if !s.closed {
		s.state = StateIdle
	}
}

// SwitchFacing stops the current session, flips the facing mode, and
// restarts with the same callback. It is a compound stop-then-start, never
// an in-place reconfiguration: the stop completes before the new open is
// issued.
func (s *Session) SwitchFacing(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scan session is closed")
	}
	callback := s.onDecode
	next := s.facing.Flip()
	s.stopLocked()
	s.facing = next
	s.mu.Unlock()

	s.logger.Debug().Str("facing", string(next)).Msg("switching camera facing")
	return s.Start(ctx, next, callback)
}

// Close stops any in-flight capture and permanently tears the session down.
// A decode callback already in flight is discarded by the liveness check.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.closed = true
	s.logger.Debug().Msg("scan session closed")
}
