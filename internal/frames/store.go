package frames

import (
	"sync"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
)

// CapturedFrame pairs a frame payload with the label active when it was taken.
type CapturedFrame struct {
	ImageData []byte
	Label     catalog.Symbol
	// Ordinal is the zero-based arrival position within the run.
	Ordinal int
}

// Store is the append-only buffer of a run. Frame and label are appended
// together, so the number of frames always equals the number of labels.
type Store struct {
	mu     sync.Mutex
	frames []CapturedFrame
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append records one frame with its label and returns its ordinal.
func (s *Store) Append(data []byte, label catalog.Symbol) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordinal := len(s.frames)
	s.frames = append(s.frames, CapturedFrame{ImageData: data, Label: label, Ordinal: ordinal})
	return ordinal
}

// Len returns the number of buffered frames.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Labels returns the buffered labels in arrival order without draining.
func (s *Store) Labels() []catalog.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]catalog.Symbol, len(s.frames))
	for i, f := range s.frames {
		labels[i] = f.Label
	}
	return labels
}

// Drain returns every buffered frame in arrival order and empties the store.
// A second Drain without an intervening Append returns an empty slice.
func (s *Store) Drain() []CapturedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.frames
	s.frames = nil
	if out == nil {
		return []CapturedFrame{}
	}
	return out
}

// Reset discards the buffer.
func (s *Store) Reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}

// Split separates drained frames into parallel label and payload slices.
func Split(captured []CapturedFrame) ([]catalog.Symbol, [][]byte) {
	labels := make([]catalog.Symbol, len(captured))
	payloads := make([][]byte, len(captured))
	for i, f := range captured {
		labels[i] = f.Label
		payloads[i] = f.ImageData
	}
	return labels, payloads
}
