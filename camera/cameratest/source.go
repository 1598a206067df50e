// Package cameratest provides a scriptable fake camera device for tests.
package cameratest

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/MrEthical07/goOnboard/camera"
)

// Source is a fake device. Set ConstrainedErr / FallbackErr to platform error
// names to make the corresponding attempt fail.
type Source struct {
	ConstrainedErr string
	FallbackErr    string
	FrameErr       error
	Image          image.Image

	mu       sync.Mutex
	opens    []camera.Constraints
	live     int
	maxLive  int
	closures int
}

// New returns a Source producing a small solid frame.
func New() *Source {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return &Source{Image: img}
}

func (s *Source) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opens = append(s.opens, c)
	if !c.Unconstrained() && s.ConstrainedErr != "" {
		return nil, camera.NewError(s.ConstrainedErr)
	}
	if c.Unconstrained() && s.FallbackErr != "" {
		return nil, camera.NewError(s.FallbackErr)
	}

	s.live++
	if s.live > s.maxLive {
		s.maxLive = s.live
	}
	return &stream{source: s}, nil
}

// Live is the number of open streams.
func (s *Source) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// MaxLive is the highest number of simultaneously open streams observed.
func (s *Source) MaxLive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxLive
}

// Opens returns the constraints of every Open call, in order.
func (s *Source) Opens() []camera.Constraints {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]camera.Constraints, len(s.opens))
	copy(out, s.opens)
	return out
}

// Closures is the number of streams closed.
func (s *Source) Closures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closures
}

type stream struct {
	source *Source
	once   sync.Once
}

func (st *stream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.source.mu.Lock()
	defer st.source.mu.Unlock()
	if st.source.FrameErr != nil {
		return nil, st.source.FrameErr
	}
	return st.source.Image, nil
}

func (st *stream) Close() error {
	st.once.Do(func() {
		st.source.mu.Lock()
		defer st.source.mu.Unlock()
		st.source.live--
		st.source.closures++
	})
	return nil
}
