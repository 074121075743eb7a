package client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

var (
	innertubeAPIKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	consentValuePattern    = regexp.MustCompile(`name="v" value="(.*?)"`)
)

const (
	consentFormMarker = `action="https://consent.youtube.com/s"`
	recaptchaMarker   = `class="g-recaptcha"`

	// Responses larger than this are not a watch page or caption track
	maxBodySize = 8 * 1024 * 1024
)

// TranscriptClientConfig contains configuration for the transcript provider client
type TranscriptClientConfig struct {
	Proxy   *WebshareProxy // nil = direct connections
	Timeout time.Duration  // Default: 30s
	BaseURL string         // Default: https://www.youtube.com
}

// TranscriptClient lists and downloads caption tracks through YouTube's
// InnerTube player endpoint. It holds a cookie jar, so create one per video.
type TranscriptClient struct {
	httpClient         *http.Client
	baseURL            string
	retriesWhenBlocked int
}

// NewTranscriptClient creates a new transcript provider client
func NewTranscriptClient(cfg TranscriptClientConfig) *TranscriptClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ytBaseURL
	}

	retries := 0
	if cfg.Proxy != nil {
		retries = cfg.Proxy.RetriesWhenBlocked
	}

	return &TranscriptClient{
		httpClient:         newProviderHTTPClient(cfg.Proxy, cfg.Timeout),
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		retriesWhenBlocked: retries,
	}
}

// ListTranscripts returns every caption track of a video
func (c *TranscriptClient) ListTranscripts(ctx context.Context, videoID string) (*youtube.TranscriptList, error) {
	if err := validateVideoID(videoID); err != nil {
		return nil, fmt.Errorf("invalid video ID: %w", err)
	}

	return retryWhenBlocked(c.retriesWhenBlocked, videoID, func() (*youtube.TranscriptList, error) {
		return c.listTranscripts(ctx, videoID)
	})
}

// FetchTrack downloads a caption track and parses it into segments
func (c *TranscriptClient) FetchTrack(ctx context.Context, track youtube.CaptionTrack) ([]youtube.TranscriptSegment, error) {
	trackURL := strings.Replace(track.BaseURL, "&fmt=srv3", "", 1)
	if strings.Contains(trackURL, "&exp=xpe") {
		return nil, youtube.ErrPoTokenRequired
	}

	return retryWhenBlocked(c.retriesWhenBlocked, track.LanguageCode, func() ([]youtube.TranscriptSegment, error) {
		body, err := c.get(ctx, trackURL)
		if err != nil {
			return nil, fmt.Errorf("fetch timedtext: %w", err)
		}
		return parseTimedText(body)
	})
}

// Fetch is the best-effort path: list the tracks, take the best match for
// the languages and download it.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string, languages []string) (*youtube.Transcript, error) {
	list, err := c.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track, err := list.Find(languages)
	if err != nil {
		return nil, err
	}

	segments, err := c.FetchTrack(ctx, track)
	if err != nil {
		return nil, err
	}

	return &youtube.Transcript{
		VideoID:      videoID,
		LanguageCode: track.LanguageCode,
		IsGenerated:  track.IsGenerated(),
		Segments:     segments,
	}, nil
}

func (c *TranscriptClient) listTranscripts(ctx context.Context, videoID string) (*youtube.TranscriptList, error) {
	page, err := c.fetchVideoHTML(ctx, videoID)
	if err != nil {
		return nil, err
	}

	apiKey, err := extractInnertubeAPIKey(page)
	if err != nil {
		return nil, err
	}

	player, err := c.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	if err := checkPlayability(player); err != nil {
		return nil, err
	}

	if player.Captions == nil || player.Captions.PlayerCaptionsTracklistRenderer == nil ||
		len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, youtube.ErrTranscriptsDisabled
	}

	raw := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	list := &youtube.TranscriptList{VideoID: videoID, Tracks: make([]youtube.CaptionTrack, 0, len(raw))}
	for _, t := range raw {
		list.Tracks = append(list.Tracks, youtube.CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Name:         t.Name.String(),
			Kind:         t.Kind,
		})
	}

	log.Debug().
		Str("video_id", videoID).
		Strs("languages", list.LanguageCodes()).
		Msg("Listed caption tracks")

	return list, nil
}

// fetchVideoHTML loads the watch page, accepting the cookie consent form once if shown
func (c *TranscriptClient) fetchVideoHTML(ctx context.Context, videoID string) (string, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := c.get(ctx, watchURL)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}
	page := string(body)
	if !strings.Contains(page, consentFormMarker) {
		return page, nil
	}

	m := consentValuePattern.FindStringSubmatch(page)
	if len(m) < 2 {
		return "", errors.New("failed to create consent cookie")
	}
	base, _ := url.Parse(c.baseURL)
	c.httpClient.Jar.SetCookies(base, []*http.Cookie{{Name: "CONSENT", Value: "YES+" + m[1], Path: "/"}})

	body, err = c.get(ctx, watchURL)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}
	page = string(body)
	if strings.Contains(page, consentFormMarker) {
		return "", errors.New("failed to automatically give consent to saving cookies")
	}
	return page, nil
}

func extractInnertubeAPIKey(page string) (string, error) {
	if m := innertubeAPIKeyPattern.FindStringSubmatch(page); len(m) == 2 {
		return m[1], nil
	}
	if strings.Contains(page, recaptchaMarker) {
		return "", youtube.ErrIPBlocked
	}
	return "", errors.New("youtube data unparsable: INNERTUBE_API_KEY not found in watch page")
}

func (c *TranscriptClient) fetchPlayer(ctx context.Context, videoID, apiKey string) (*innertubePlayerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{ClientName: "ANDROID", ClientVersion: ytAndroidVersion},
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + ytPlayerPath + "?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}

	var player innertubePlayerResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &player, nil
}

// checkPlayability maps a non-OK playability status onto the error taxonomy
func checkPlayability(player *innertubePlayerResp) error {
	ps := player.PlayabilityStatus
	if ps == nil || ps.Status == "OK" || ps.Status == "" {
		return nil
	}

	reason := strings.ReplaceAll(ps.Reason, "’", "'")
	switch ps.Status {
	case "LOGIN_REQUIRED":
		if strings.Contains(reason, "not a bot") {
			return youtube.ErrIPBlocked
		}
		if strings.Contains(reason, "inappropriate for some users") {
			return fmt.Errorf("%w: age restricted", youtube.ErrVideoUnplayable)
		}
	case "ERROR":
		if strings.Contains(strings.ToLower(reason), "unavailable") {
			return youtube.ErrVideoUnavailable
		}
	}
	if reason == "" {
		return fmt.Errorf("%w: status %s", youtube.ErrVideoUnplayable, ps.Status)
	}
	return fmt.Errorf("%w: %s", youtube.ErrVideoUnplayable, reason)
}

func (c *TranscriptClient) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return youtube.ErrIPBlocked
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// parseTimedText parses a timedtext XML caption document into segments
func parseTimedText(body []byte) ([]youtube.TranscriptSegment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]youtube.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := cleanCaptionText(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, youtube.TranscriptSegment{
			Start:    line.Start,
			Duration: line.Dur,
			Text:     text,
		})
	}
	return segments, nil
}

// cleanCaptionText drops formatting markup and resolves the HTML entities
// caption text is escaped with on top of the XML encoding.
func cleanCaptionText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// retryWhenBlocked re-issues fn immediately while the provider reports an IP
// block, up to retries extra attempts. Each attempt leaves through a new
// rotating proxy connection; there is no delay between attempts.
func retryWhenBlocked[T any](retries int, key string, fn func() (T, error)) (T, error) {
	result, err := fn()
	for attempt := 1; attempt <= retries && errors.Is(err, youtube.ErrIPBlocked); attempt++ {
		log.Warn().Str("key", key).Int("attempt", attempt).Msg("Request blocked, retrying through a new proxy IP")
		result, err = fn()
	}
	return result, err
}
