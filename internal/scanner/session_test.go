package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tavares-club/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream serves a fixed frame and records when it is closed.
type fakeStream struct {
	mu     sync.Mutex
	frame  Frame
	closed bool
}

func (f *fakeStream) Grab(ctx context.Context) (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("stream closed")
	}
	if f.frame == nil {
		return Frame("empty"), nil
	}
	return f.frame, nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDevice hands out streams and records the facing modes requested.
type fakeDevice struct {
	mu      sync.Mutex
	err     error
	streams []*fakeStream
	facings []FacingMode
	frame   Frame
}

func (d *fakeDevice) Open(ctx context.Context, facing FacingMode) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facings = append(d.facings, facing)
	if d.err != nil {
		return nil, d.err
	}
	stream := &fakeStream{frame: d.frame}
	d.streams = append(d.streams, stream)
	return stream, nil
}

// fakeDecoder decodes a fixed payload out of any matching frame.
type fakeDecoder struct {
	match   string
	payload string
}

func (d *fakeDecoder) Decode(frame Frame) (string, bool) {
	if string(frame) == d.match {
		return d.payload, true
	}
	return "", false
}

func newTestSession(device Device, decoder Decoder) *Session {
	s := NewSession(device, decoder, zerolog.Nop())
	s.interval = time.Millisecond
	return s
}

func TestSession_StartScansAndStopsBeforeCallback(t *testing.T) {
	device := &fakeDevice{frame: Frame("qr-frame")}
	decoder := &fakeDecoder{match: "qr-frame", payload: "TRV-ABC123456789"}
	session := newTestSession(device, decoder)
	defer session.Close()

	decoded := make(chan string, 1)
	var streamClosedAtCallback, idleAtCallback bool

	err := session.Start(context.Background(), FacingBack, func(text string) {
		// The camera must already be released when the callback runs.
		streamClosedAtCallback = device.streams[0].isClosed()
		idleAtCallback = session.State() == StateIdle
		decoded <- text
	})
	require.NoError(t, err)

	select {
	case text := <-decoded:
		assert.Equal(t, "TRV-ABC123456789", text)
	case <-time.After(2 * time.Second):
		t.Fatal("decode callback never fired")
	}

	assert.True(t, streamClosedAtCallback, "stream must be closed before the callback runs")
	assert.True(t, idleAtCallback, "session must be idle before the callback runs")
}

func TestSession_NoDecodeKeepsScanning(t *testing.T) {
	device := &fakeDevice{frame: Frame("blank")}
	decoder := &fakeDecoder{match: "never", payload: ""}
	session := newTestSession(device, decoder)
	defer session.Close()

	err := session.Start(context.Background(), FacingBack, func(string) {
		t.Error("callback must not fire without a decode")
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateScanning, session.State())
}

func TestSession_StartErrors(t *testing.T) {
	tests := []struct {
		name          string
		openErr       error
		expectedErr   error
		expectedState State
	}{
		{
			name:          "Permission denied",
			openErr:       fmt.Errorf("getUserMedia: %w", ErrPermissionDenied),
			expectedErr:   model.ErrCameraPermissionDenied,
			expectedState: StatePermissionDenied,
		},
		{
			name:          "No camera device",
			openErr:       ErrDeviceNotFound,
			expectedErr:   model.ErrNoCameraFound,
			expectedState: StatePermissionDenied,
		},
		{
			name:          "Generic camera failure",
			openErr:       errors.New("device busy"),
			expectedErr:   model.ErrCamera,
			expectedState: StateIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &fakeDevice{err: tt.openErr}
			session := newTestSession(device, &fakeDecoder{})
			defer session.Close()

			err := session.Start(context.Background(), FacingBack, func(string) {})

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr))
			assert.Equal(t, tt.expectedState, session.State())
		})
	}
}

func TestSession_DoubleStartRejected(t *testing.T) {
	device := &fakeDevice{frame: Frame("blank")}
	session := newTestSession(device, &fakeDecoder{match: "never"})
	defer session.Close()

	require.NoError(t, session.Start(context.Background(), FacingBack, func(string) {}))

	err := session.Start(context.Background(), FacingBack, func(string) {})
	assert.Error(t, err)
}

func TestSession_StopIsIdempotent(t *testing.T) {
	device := &fakeDevice{frame: Frame("blank")}
	session := newTestSession(device, &fakeDecoder{match: "never"})

	// Safe before any start.
	session.Stop()
	assert.Equal(t, StateIdle, session.State())

	require.NoError(t, session.Start(context.Background(), FacingBack, func(string) {}))
	session.Stop()
	session.Stop()

	assert.Equal(t, StateIdle, session.State())
	assert.True(t, device.streams[0].isClosed())
}

func TestSession_SwitchFacing(t *testing.T) {
	device := &fakeDevice{frame: Frame("blank")}
	session := newTestSession(device, &fakeDecoder{match: "never"})
	defer session.Close()

	require.NoError(t, session.Start(context.Background(), FacingBack, func(string) {}))
	require.NoError(t, session.SwitchFacing(context.Background()))

	assert.Equal(t, FacingFront, session.Facing())
	assert.Equal(t, StateScanning, session.State())
	// Stop-then-start: the first stream was released before the second open.
	require.Len(t, device.streams, 2)
	assert.True(t, device.streams[0].isClosed())
	assert.False(t, device.streams[1].isClosed())
	assert.Equal(t, []FacingMode{FacingBack, FacingFront}, device.facings)
}

func TestSession_CloseDiscardsLateDecode(t *testing.T) {
	device := &fakeDevice{frame: Frame("qr-frame")}
	decoder := &fakeDecoder{match: "qr-frame", payload: "TRV-LATE12345678"}
	session := NewSession(device, decoder, zerolog.Nop())
	// Long interval: the first tick lands well after Close below.
	session.interval = 50 * time.Millisecond

	fired := make(chan struct{}, 1)
	require.NoError(t, session.Start(context.Background(), FacingBack, func(string) {
		fired <- struct{}{}
	}))

	session.Close()

	select {
	case <-fired:
		t.Fatal("decode callback fired after teardown")
	case <-time.After(150 * time.Millisecond):
	}

	assert.True(t, device.streams[0].isClosed())
}

func TestSession_StartAfterCloseRejected(t *testing.T) {
	session := newTestSession(&fakeDevice{}, &fakeDecoder{})
	session.Close()

	err := session.Start(context.Background(), FacingBack, func(string) {})
	assert.Error(t, err)
}

func TestFacingMode_Flip(t *testing.T) {
	assert.Equal(t, FacingFront, FacingBack.Flip())
	assert.Equal(t, FacingBack, FacingFront.Flip())
}
