package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
)

// ImageSource is a Source fed by frames pushed from elsewhere, typically a
// browser that owns the physical camera and uploads the frame it captured.
// A device-side failure reported by the client is replayed on the next Open.
type ImageSource struct {
	mu      sync.Mutex
	frame   image.Image
	pending string
	live    int
}

// NewImageSource returns an empty source.
func NewImageSource() *ImageSource {
	return &ImageSource{}
}

// Push sets the frame returned by open streams.
func (s *ImageSource) Push(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = img
}

// PushEncoded decodes a JPEG or PNG upload and pushes it.
func (s *ImageSource) PushEncoded(data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("camera: decode frame: %w", err)
	}
	s.Push(img)
	return nil
}

// Fail makes the next Open fail with the platform error name (for example
// "NotAllowedError"). The constrained and the fallback attempt both see it.
func (s *ImageSource) Fail(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = name
}

// Clear drops a failure set by Fail that no Open has consumed.
func (s *ImageSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
}

// Live reports how many streams are currently open.
func (s *ImageSource) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *ImageSource) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != "" {
		name := s.pending
		if c.Unconstrained() {
			s.pending = ""
		}
		return nil, NewError(name)
	}
	s.live++
	return &imageStream{source: s}, nil
}

type imageStream struct {
	source *ImageSource
	once   sync.Once
	closed bool
}

var errNoFrame = errors.New("camera: no frame available")

func (st *imageStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.source.mu.Lock()
	defer st.source.mu.Unlock()
	if st.closed {
		return nil, ErrNoActiveStream
	}
	if st.source.frame == nil {
		return nil, errNoFrame
	}
	return st.source.frame, nil
}

func (st *imageStream) Close() error {
	st.once.Do(func() {
		st.source.mu.Lock()
		defer st.source.mu.Unlock()
		st.closed = true
		st.source.live--
	})
	return nil
}
