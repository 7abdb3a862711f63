// Package frames provides the live video feed handle sampled by the capture
// scheduler and the ordered buffer pairing each captured frame with its label.
//
// A Feed is read-only from the scheduler's side: Grab returns the most recent
// frame without waiting. Frames are immutable once handed out; Data must not
// be modified by any reader.
package frames

import (
	"context"
	"errors"
	"time"
)

// ErrNoFrame is returned by Grab when the feed has nothing to offer yet,
// e.g. the camera is not ready. It is a capture miss, never fatal.
var ErrNoFrame = errors.New("feed yielded no frame")

// Frame is one sampled video frame, PNG encoded.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
	// Seq increases monotonically per feed.
	Seq uint64
}

// Feed is the live video source.
type Feed interface {
	// Grab returns the current frame or ErrNoFrame. It must not block.
	Grab(ctx context.Context) (*Frame, error)
}

// FeedFunc adapts a function to Feed.
type FeedFunc func(ctx context.Context) (*Frame, error)

// Grab calls f.
func (f FeedFunc) Grab(ctx context.Context) (*Frame, error) { return f(ctx) }
