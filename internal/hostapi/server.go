// Package hostapi exposes a capture session to the assessment page: start
// and reset runs, push webcam frames, and stream run snapshots.
//
//	GET    /api/catalog/{kind}   symbols and asset references
//	POST   /api/runs             start a run
//	GET    /api/runs/{current|id} latest snapshot
//	DELETE /api/runs/{current|id} cancel and reset to idle
//	POST   /api/frames           push one frame into the live feed
//	DELETE /api/frames           forget the current frame (camera off)
//	GET    /api/stream           websocket: snapshots out, frames in
package hostapi

import (
	"net/http"

	"github.com/aS4meone/qutty-ai-public/internal/capture"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/klauspost/compress/gzhttp"
)

// maxFrameBytes bounds one uploaded frame.
const maxFrameBytes = 10 << 20

// Server routes host requests to one capture session and its frame mailbox.
type Server struct {
	session      *capture.Session
	mailbox      *frames.Mailbox
	maxDimension int
	configFor    func(testNumber int) (capture.Config, error)
}

// NewServer creates a server. Frames pushed by the page are normalized to
// PNG with the longer side at most maxDimension (0 keeps the original size).
func NewServer(session *capture.Session, mailbox *frames.Mailbox, maxDimension int) *Server {
	return &Server{
		session:      session,
		mailbox:      mailbox,
		maxDimension: maxDimension,
		configFor:    capture.ConfigFor,
	}
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON routes are gzip-compressed; the stream is not.
	mux.Handle("/api/catalog/", gzhttp.GzipHandler(http.HandlerFunc(s.handleCatalog)))
	mux.Handle("/api/runs", gzhttp.GzipHandler(http.HandlerFunc(s.handleRunsCollection)))
	mux.Handle("/api/runs/", gzhttp.GzipHandler(http.HandlerFunc(s.handleRunRoutes)))
	mux.HandleFunc("/api/frames", s.handleFrames)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"phase":     s.session.Latest().Phase,
			"feedReady": s.mailbox.Stats().Ready,
		})
	})

	return withLogging(withCORS(mux))
}
