package hostapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aS4meone/qutty-ai-public/internal/capture"
	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/aS4meone/qutty-ai-public/internal/runid"
	"github.com/aS4meone/qutty-ai-public/internal/sequence"
	"github.com/rs/zerolog/log"
)

// --- Catalog ---

type catalogEntry struct {
	Symbol catalog.Symbol `json:"symbol"`
	Asset  string         `json:"asset"`
}

type catalogResponse struct {
	Kind    catalog.Kind   `json:"kind"`
	Symbols []catalogEntry `json:"symbols"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	kind := catalog.Kind(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/catalog/"), "/"))
	c, err := catalog.For(kind)
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := catalogResponse{Kind: c.Kind()}
	for _, sym := range c.Symbols() {
		asset, _ := c.Asset(sym)
		resp.Symbols = append(resp.Symbols, catalogEntry{Symbol: sym, Asset: asset})
	}
	respondJSON(w, http.StatusOK, resp)
}

// --- Runs ---

type startRequest struct {
	TestNumber int    `json:"test_number"`
	RunID      string `json:"run_id"`
	// Optional pinned stimuli for tests 2 and 3.
	Targets   []catalog.Symbol `json:"targets,omitempty"`
	Responses []catalog.Symbol `json:"responses,omitempty"`
}

type startResponse struct {
	RunID      string `json:"runId"`
	TestNumber int    `json:"testNumber"`
	Steps      int    `json:"steps"`
	MaxTicks   int    `json:"maxTicks"`
	GroupSize  int    `json:"groupSize"`
}

func (s *Server) handleRunsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req startRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := runid.OrNew(req.RunID)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := s.configFor(req.TestNumber)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.Targets = req.Targets
	cfg.Responses = req.Responses

	plan, err := s.session.Start(id, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		var genErr *sequence.GenerationError
		var symErr *catalog.UnknownSymbolError
		switch {
		case errors.Is(err, capture.ErrRunActive):
			status = http.StatusConflict
		case errors.As(err, &genErr), errors.As(err, &symErr):
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("runId", id).Msg("Failed to start run")
		}
		httpError(w, status, err.Error())
		return
	}

	log.Info().Str("runId", id).Int("testNumber", cfg.TestNumber).Msg("Run accepted")
	respondJSON(w, http.StatusCreated, startResponse{
		RunID:      id,
		TestNumber: cfg.TestNumber,
		Steps:      len(plan.Steps),
		MaxTicks:   cfg.MaxCaptureTicks(plan),
		GroupSize:  cfg.GroupSize,
	})
}

func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	ref, action, ok := runid.ParseRoute(r.URL.Path, "/api/runs/")
	if !ok || action != "" {
		httpError(w, http.StatusNotFound, "not found")
		return
	}

	latest := s.session.Latest()
	if ref != runid.Current && ref != latest.RunID {
		httpError(w, http.StatusNotFound, "run not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, latest)
	case http.MethodDelete:
		s.session.Reset()
		log.Info().Str("runId", latest.RunID).Msg("Run reset")
		respondJSON(w, http.StatusOK, s.session.Latest())
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// --- Frames ---

type frameResponse struct {
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodDelete:
		// Captures after this count as misses until the camera pushes again.
		s.mailbox.Clear()
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		httpError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}
	frame, err := s.ingest(body)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, frameResponse{Seq: frame.Seq, Width: frame.Width, Height: frame.Height})
}

// ingest decodes a pushed frame (raw image bytes or a data URL) and
// publishes it to the mailbox.
func (s *Server) ingest(body []byte) (*frames.Frame, error) {
	if len(body) == 0 {
		return nil, errors.New("empty frame")
	}
	raw, err := frames.DecodeDataURL(body)
	if err != nil {
		return nil, err
	}
	frame, err := frames.Normalize(raw, s.maxDimension)
	if err != nil {
		return nil, fmt.Errorf("unsupported frame: %w", err)
	}
	s.mailbox.Publish(frame)
	return frame, nil
}
