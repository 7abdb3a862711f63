package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestStoreAppendAndDrain(t *testing.T) {
	s := NewStore()
	labels := []catalog.Symbol{"peace", "peace", "like"}
	for i, l := range labels {
		if got := s.Append([]byte{byte(i)}, l); got != i {
			t.Errorf("expected ordinal %d, got %d", i, got)
		}
		if s.Len() != i+1 || len(s.Labels()) != i+1 {
			t.Fatalf("frames and labels diverged after append %d", i)
		}
	}

	drained := s.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(drained))
	}
	for i, f := range drained {
		if f.Label != labels[i] || f.Ordinal != i || f.ImageData[0] != byte(i) {
			t.Errorf("frame %d out of order: %+v", i, f)
		}
	}

	if again := s.Drain(); len(again) != 0 {
		t.Errorf("second drain returned %d frames", len(again))
	}
	if s.Len() != 0 {
		t.Errorf("store not empty after drain")
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	s.Append([]byte("a"), "ok")
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("expected empty store after reset, got %d", s.Len())
	}
}

func TestSplit(t *testing.T) {
	labels, payloads := Split([]CapturedFrame{
		{ImageData: []byte("a"), Label: "ok"},
		{ImageData: []byte("b"), Label: "rock"},
	})
	if !slices.Equal(labels, []catalog.Symbol{"ok", "rock"}) {
		t.Errorf("unexpected labels %v", labels)
	}
	if string(payloads[0]) != "a" || string(payloads[1]) != "b" {
		t.Errorf("unexpected payloads %q", payloads)
	}
}

func TestMailbox(t *testing.T) {
	m := NewMailbox(0)
	ctx := context.Background()

	if _, err := m.Grab(ctx); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame from empty mailbox, got %v", err)
	}

	m.Publish(&Frame{Data: []byte("one")})
	m.Publish(&Frame{Data: []byte("two")})

	f, err := m.Grab(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(f.Data) != "two" || f.Seq != 2 {
		t.Errorf("expected latest frame seq 2, got %q seq %d", f.Data, f.Seq)
	}

	// Grab samples without consuming.
	if again, _ := m.Grab(ctx); again != f {
		t.Error("expected the same frame on repeated grab")
	}

	stats := m.Stats()
	if stats.Published != 2 || stats.Drops != 1 || !stats.Ready {
		t.Errorf("unexpected stats %+v", stats)
	}

	m.Clear()
	if _, err := m.Grab(ctx); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame after clear, got %v", err)
	}
}

func TestMailboxStaleFrame(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMailbox(2 * time.Second)
	m.now = func() time.Time { return now }

	m.Publish(&Frame{Data: []byte("x")})
	if _, err := m.Grab(context.Background()); err != nil {
		t.Fatalf("unexpected error for fresh frame: %v", err)
	}

	now = now.Add(3 * time.Second)
	if _, err := m.Grab(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame for stale frame, got %v", err)
	}
}

func TestMailboxCancelledContext(t *testing.T) {
	m := NewMailbox(0)
	m.Publish(&Frame{Data: []byte("x")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Grab(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name            string
		data            []byte
		maxDim          int
		wantW, wantH    int
		wantPassThrough bool
	}{
		{"small png passes through", encodeTestPNG(t, 40, 30), 640, 40, 30, true},
		{"large png scaled landscape", encodeTestPNG(t, 1280, 720), 640, 640, 360, false},
		{"portrait scaled", encodeTestPNG(t, 300, 600), 200, 100, 200, false},
		{"jpeg converted", encodeTestJPEG(t, 64, 48), 640, 64, 48, false},
		{"scaling disabled", encodeTestPNG(t, 1280, 720), 0, 1280, 720, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Normalize(tt.data, tt.maxDim)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Width != tt.wantW || f.Height != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", f.Width, f.Height, tt.wantW, tt.wantH)
			}
			if tt.wantPassThrough && !bytes.Equal(f.Data, tt.data) {
				t.Error("expected payload to pass through unchanged")
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Data))
			if err != nil {
				t.Fatalf("output is not decodable: %v", err)
			}
			if format != "png" || cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("output is %s %dx%d", format, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("not an image"), 640); err == nil {
		t.Error("expected decode error")
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw := encodeTestPNG(t, 4, 4)
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeDataURL([]byte(url))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("decoded payload differs from original")
	}

	passthrough, err := DecodeDataURL(raw)
	if err != nil || !bytes.Equal(passthrough, raw) {
		t.Errorf("raw bytes should pass through, err=%v", err)
	}

	if _, err := DecodeDataURL([]byte("data:image/png,abc")); err == nil {
		t.Error("expected error for non-base64 data URL")
	}
}

func TestDirFeed(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string][]byte{
		"b.png":      encodeTestPNG(t, 10, 10),
		"a.jpg":      encodeTestJPEG(t, 20, 10),
		"notes.txt":  []byte("ignored"),
		"broken.png": []byte("corrupt"),
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	feed, err := NewDirFeed(dir, 640)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", feed.Len())
	}

	ctx := context.Background()
	// Name order: a.jpg, b.png, broken.png, then loops.
	first, err := feed.Grab(ctx)
	if err != nil || first.Width != 20 {
		t.Fatalf("expected a.jpg first, got %+v err=%v", first, err)
	}
	second, err := feed.Grab(ctx)
	if err != nil || second.Width != 10 {
		t.Fatalf("expected b.png second, got %+v err=%v", second, err)
	}
	if _, err := feed.Grab(ctx); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame for corrupt file, got %v", err)
	}
	looped, err := feed.Grab(ctx)
	if err != nil || looped.Width != 20 || looped.Seq != 4 {
		t.Errorf("expected loop back to a.jpg with seq 4, got %+v err=%v", looped, err)
	}
}

func TestDirFeedEmpty(t *testing.T) {
	if _, err := NewDirFeed(t.TempDir(), 640); err == nil {
		t.Error("expected error for directory without frames")
	}
}
