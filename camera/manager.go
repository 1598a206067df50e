package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
)

// DefaultJPEGQuality matches the browser canvas default for image/jpeg.
const DefaultJPEGQuality = 92

// Session is the observable state of a Manager.
type Session struct {
	Active bool
	Facing FacingMode
	Target Target
}

// Manager owns the single live stream for one wizard.
type Manager struct {
	source  Source
	quality int

	mu      sync.Mutex
	stream  Stream
	state   Session
	closed  bool
	onOpen  func(Session)
	onError func(*Error)
}

// NewManager returns a Manager over source. quality <= 0 selects DefaultJPEGQuality.
func NewManager(source Source, quality int) *Manager {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Manager{source: source, quality: quality}
}

// SetHooks installs optional observers for successful opens and classified failures.
func (m *Manager) SetHooks(onOpen func(Session), onError func(*Error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOpen = onOpen
	m.onError = onError
}

// Open releases any active stream, then requests a new one for target with the
// preferred facing mode. If the constrained request fails, an unconstrained
// request is tried. The error of the last attempt is returned as *Error and the
// Manager stays inactive.
func (m *Manager) Open(ctx context.Context, target Target, facing FacingMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.source == nil {
		return m.fail(&Error{Reason: ReasonNotFound})
	}
	m.releaseLocked()

	stream, err := m.source.Open(ctx, Constraints{Facing: facing})
	if err != nil && facing != FacingAny {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return m.fail(MapError(ctxErr))
		}
		stream, err = m.source.Open(ctx, Constraints{})
	}
	if err != nil {
		return m.fail(MapError(err))
	}

	m.stream = stream
	m.state = Session{Active: true, Facing: facing, Target: target}
	if m.onOpen != nil {
		m.onOpen(m.state)
	}
	return nil
}

// Capture grabs the current frame, encodes it as JPEG and releases the stream.
// The stream is released even when the frame or encode step fails.
func (m *Manager) Capture(ctx context.Context) ([]byte, Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, TargetNone, ErrNoActiveStream
	}
	target := m.state.Target
	defer m.releaseLocked()

	frame, err := m.stream.Frame(ctx)
	if err != nil {
		return nil, target, m.fail(MapError(err))
	}
	data, err := EncodeJPEG(frame, m.quality)
	if err != nil {
		return nil, target, err
	}
	return data, target, nil
}

// Release stops the active stream, if any. Safe to call repeatedly.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

// State returns the current camera session.
func (m *Manager) State() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the stream and rejects later Opens.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
	m.closed = true
}

func (m *Manager) releaseLocked() {
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
	m.state = Session{}
}

func (m *Manager) fail(e *Error) error {
	if m.onError != nil {
		m.onError(e)
	}
	return e
}

// EncodeJPEG encodes img at quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("camera: nil frame")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
