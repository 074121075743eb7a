package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserAgent identifies the uploader on requests it makes to its own server
const UserAgent = "Mozilla/5.0 Transcript-Uploader/1.0"

// GenerateRunID returns a unique identifier used to correlate the log lines of one run
func GenerateRunID() string {
	return uuid.NewString()
}

// IsRemoteList reports whether a video ID list argument points at an http(s) URL
func IsRemoteList(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// DownloadURLFile downloads a file from a URL and saves it to a temporary location.
// Returns the path to the downloaded file and any error encountered. The caller
// owns the file and should remove it.
func DownloadURLFile(ctx context.Context, url string) (string, error) {
	log.Info().Str("url", url).Msg("Downloading video ID list")

	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	out, err := os.CreateTemp("", "video_ids_*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err = io.Copy(out, resp.Body); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write to file: %w", err)
	}

	log.Info().Str("file", out.Name()).Msg("Video ID list downloaded successfully")
	return out.Name(), nil
}

// ReadVideoIDsFromFile reads video IDs (or video URLs) from a file, one per line.
// It ignores empty lines and lines starting with a '#' character (comments).
func ReadVideoIDsFromFile(filename string) ([]string, error) {
	log.Debug().Str("filename", filename).Msg("Reading video IDs from file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			ids = append(ids, line)
		}
	}

	log.Debug().Int("id_count", len(ids)).Msg("Video IDs read from file")
	return ids, nil
}

// LoadVideoIDs reads a video ID list from a local path or, for http(s)
// sources, downloads it first. The downloaded copy is always removed.
func LoadVideoIDs(ctx context.Context, source string) ([]string, error) {
	if !IsRemoteList(source) {
		if _, err := os.Stat(source); err != nil {
			return nil, fmt.Errorf("file not found: %s", source)
		}
		return ReadVideoIDsFromFile(source)
	}

	path, err := DownloadURLFile(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to remove downloaded list")
		}
	}()
	return ReadVideoIDsFromFile(path)
}
