package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// supportedExtensions lists the still image formats a DirFeed replays.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DirFeed replays the images of a directory in name order, looping at the
// end. Frames are decoded and normalized lazily on Grab.
type DirFeed struct {
	mu           sync.Mutex
	paths        []string
	next         int
	seq          uint64
	maxDimension int
}

// NewDirFeed scans dir (non-recursive) for PNG and JPEG files.
func NewDirFeed(dir string, maxDimension int) (*DirFeed, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no PNG or JPEG frames found in %s", dir)
	}
	slices.Sort(paths)

	log.Debug().Str("dir", dir).Int("frames", len(paths)).Msg("Directory feed ready")
	return &DirFeed{paths: paths, maxDimension: maxDimension}, nil
}

// Len returns the number of distinct frames in the loop.
func (f *DirFeed) Len() int { return len(f.paths) }

// Grab returns the next frame of the loop. A file that can no longer be read
// or decoded yields ErrNoFrame so the tick counts as a miss.
func (f *DirFeed) Grab(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	path := f.paths[f.next]
	f.next = (f.next + 1) % len(f.paths)
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read frame file")
		return nil, ErrNoFrame
	}
	frame, err := Normalize(data, f.maxDimension)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to decode frame file")
		return nil, ErrNoFrame
	}
	frame.Seq = seq
	frame.Timestamp = time.Now()
	return frame, nil
}
