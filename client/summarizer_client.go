package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/transcript-uploader/common"
	"github.com/rs/zerolog/log"
)

const transcriptsPath = "/api/transcripts"

// APIError is a non-2xx response from the summarization server
type APIError struct {
	StatusCode int
	Message    string // server's "error" field, or the raw body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// UploadResponse is the server's answer to a transcript upload
type UploadResponse struct {
	MeetingID any    `json:"meeting_id"` // integer or string depending on the server version
	VideoID   string `json:"video_id"`
	Message   string `json:"message"`
}

// MissingResponse lists videos the server has no transcript for
type MissingResponse struct {
	VideoIDs []string `json:"video_ids"`
	Count    int      `json:"count"`
	Message  string   `json:"message"`
}

type uploadRequest struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
}

// SummarizerClient talks to the summarization server's transcript API
type SummarizerClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewSummarizerClient creates a client for the server at baseURL
func NewSummarizerClient(baseURL, apiKey string, timeout time.Duration) *SummarizerClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SummarizerClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// UploadTranscript posts a transcript for a video. It is not retried.
func (c *SummarizerClient) UploadTranscript(ctx context.Context, videoID, transcript string) (*UploadResponse, error) {
	body, err := json.Marshal(uploadRequest{VideoID: videoID, Transcript: transcript})
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("error uploading transcript: %w", err)
	}

	log.Debug().
		Str("video_id", videoID).
		Interface("meeting_id", out.MeetingID).
		Msg("Transcript uploaded")
	return &out, nil
}

// MissingVideoIDs asks the server which videos still need a transcript
func (c *SummarizerClient) MissingVideoIDs(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var out MissingResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("error fetching missing transcripts: %w", err)
	}
	if out.VideoIDs == nil {
		out.VideoIDs = []string{}
	}

	log.Debug().Int("count", len(out.VideoIDs)).Msg("Fetched missing transcript list")
	return out.VideoIDs, nil
}

func (c *SummarizerClient) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+transcriptsPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", common.UserAgent)
	return req, nil
}

func (c *SummarizerClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
