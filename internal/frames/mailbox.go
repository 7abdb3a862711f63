package frames

import (
	"context"
	"sync"
	"time"
)

// Mailbox is a single-slot feed: every Publish overwrites the previous frame
// and Grab samples whatever is current, like a screenshot of a live video
// element. Nothing is queued.
//
// The host page publishes webcam snapshots; the scheduler grabs at capture ticks.
type Mailbox struct {
	mu      sync.Mutex
	current *Frame
	sampled bool
	seq     uint64
	maxAge  time.Duration
	now     func() time.Time

	published uint64
	drops     uint64
}

// MailboxStats is a snapshot of mailbox counters.
type MailboxStats struct {
	Published uint64 `json:"published"`
	// Drops counts frames overwritten before any Grab sampled them.
	Drops uint64 `json:"drops"`
	Ready bool   `json:"ready"`
}

// NewMailbox creates an empty mailbox. A frame older than maxAge is treated
// as missing (the feed has stalled); maxAge of zero never expires frames.
func NewMailbox(maxAge time.Duration) *Mailbox {
	return &Mailbox{maxAge: maxAge, now: time.Now}
}

// Publish replaces the current frame. frame.Data must not be modified afterwards.
func (m *Mailbox) Publish(frame *Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.sampled {
		m.drops++
	}
	m.seq++
	frame.Seq = m.seq
	if frame.Timestamp.IsZero() {
		frame.Timestamp = m.now()
	}
	m.current = frame
	m.sampled = false
	m.published++
}

// Grab returns the current frame or ErrNoFrame when none is available.
func (m *Mailbox) Grab(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNoFrame
	}
	if m.maxAge > 0 && m.now().Sub(m.current.Timestamp) > m.maxAge {
		return nil, ErrNoFrame
	}
	m.sampled = true
	return m.current, nil
}

// Clear forgets the current frame, e.g. when the camera is switched off.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MailboxStats{
		Published: m.published,
		Drops:     m.drops,
		Ready:     m.current != nil,
	}
}
