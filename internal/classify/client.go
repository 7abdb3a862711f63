// Package classify submits captured frames and their gesture labels to the
// classification endpoint of the assessment backend.
//
// One run produces one multipart request:
//
//	POST {backend}/classify-gestures/{runId}
//	  test_number   "1".."4"
//	  gesture_names comma-joined labels, one per image, same order
//	  strict        "1"
//	  group_size    "3" (tests 1-3) or "5" (test 4)
//	  images        image0.png .. imageN.png
//
// The response is handed back verbatim once it is known to be JSON; the
// client does not interpret it.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout covers the backend's model inference, which can take ~30s.
	DefaultTimeout = 60 * time.Second

	// classifyPath is the endpoint prefix; the run id is appended.
	classifyPath = "/classify-gestures/"

	// maxErrorBody bounds how much of a failed response is kept for diagnostics.
	maxErrorBody = 512
)

// Submission is one run's payload.
type Submission struct {
	RunID      string
	TestNumber int
	Labels     []catalog.Symbol
	Frames     [][]byte
	GroupSize  int
	Strict     bool
}

// Client posts submissions to the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the backend at baseURL (e.g. "http://localhost:8000").
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Submit sends the submission and returns the raw JSON response.
//
// Network failures and non-2xx statuses are returned as *TransportError.
// No retry is attempted.
func (c *Client) Submit(ctx context.Context, s Submission) (Result, error) {
	if len(s.Labels) != len(s.Frames) {
		return nil, fmt.Errorf("submission has %d labels for %d frames", len(s.Labels), len(s.Frames))
	}
	if s.RunID == "" {
		return nil, fmt.Errorf("submission has no run id")
	}

	body, contentType, err := encodeSubmission(s)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	endpoint := c.baseURL + classifyPath + url.PathEscape(s.RunID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("path", req.URL.Path).
		Int("testNumber", s.TestNumber).
		Int("images", len(s.Frames)).
		Int("bytes", body.Len()).
		Msg("Classification request")

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		log.Debug().Int("statusCode", 0).Dur("duration", duration).Err(err).Msg("Classification response")
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	log.Debug().Int("statusCode", httpResp.StatusCode).Dur("duration", duration).Msg("Classification response")

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		log.Error().
			Int("statusCode", httpResp.StatusCode).
			Str("body", truncate(string(raw), maxErrorBody)).
			Msg("Classification request rejected")
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Body: truncate(string(raw), maxErrorBody)}
	}

	if !json.Valid(raw) {
		log.Error().
			Int("statusCode", httpResp.StatusCode).
			Str("body", truncate(string(raw), maxErrorBody)).
			Msg("Classification response is not JSON")
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Body: truncate(string(raw), maxErrorBody), Err: ErrMalformedResponse}
	}

	return Result(raw), nil
}

// encodeSubmission builds the multipart body in the field order the
// backend form declares: test_number, gesture_names, strict, group_size, images.
func encodeSubmission(s Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	labels := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		labels[i] = string(l)
	}
	strict := "0"
	if s.Strict {
		strict = "1"
	}

	fields := [][2]string{
		{"test_number", strconv.Itoa(s.TestNumber)},
		{"gesture_names", strings.Join(labels, ",")},
		{"strict", strict},
		{"group_size", strconv.Itoa(s.GroupSize)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for i, frame := range s.Frames {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="image%d.png"`, i))
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(frame); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
