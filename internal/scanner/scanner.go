// Package scanner manages a device camera capture session bound to a live
// QR decoding callback: start/stop/teardown, facing-mode switching, and
// mapping of device failures to user-facing reasons.
package scanner

import (
	"context"
	"errors"
)

// FacingMode selects which physical camera a session uses.
type FacingMode string

const (
	// FacingBack is the rear (environment) camera, the default for scanning.
	FacingBack FacingMode = "environment"
	// FacingFront is the user-facing camera.
	FacingFront FacingMode = "user"
)

// Flip returns the opposite facing mode.
func (f FacingMode) Flip() FacingMode {
	if f == FacingBack {
		return FacingFront
	}
	return FacingBack
}

// State is the session lifecycle state.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting-permission"
	StateScanning             State = "scanning"
	StatePermissionDenied     State = "permission-denied"
)

// Frame is one captured camera frame, opaque to the session.
type Frame []byte

// Sentinel errors a Device implementation maps platform failures to, so the
// session can distinguish them for user messaging.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceNotFound   = errors.New("no camera device found")
)

// Device abstracts platform camera access.
type Device interface {
	// Open acquires the camera for the given facing mode and returns a live
	// stream. Permission and missing-device failures must be reported as
	// (or wrap) ErrPermissionDenied / ErrDeviceNotFound.
	Open(ctx context.Context, facing FacingMode) (Stream, error)
}

// Stream is an acquired camera capture stream.
type Stream interface {
	// Grab captures a single frame. It blocks until a frame is available,
	// the context is cancelled, or the stream is closed.
	Grab(ctx context.Context) (Frame, error)

	// Close releases the camera device. Idempotent.
	Close() error
}

// Decoder attempts to read a QR payload out of a single frame. The second
// return is false for the normal "no code in this frame" outcome.
type Decoder interface {
	Decode(frame Frame) (string, bool)
}
