package client

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
)

// YouTube video IDs are 11 characters
const videoIDLength = 11

// ErrInvalidVideoID is returned when no video ID can be extracted from the input
var ErrInvalidVideoID = errors.New("could not extract video ID")

// Regular expressions for the known video URL shapes, tried in order
var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID normalizes a bare video ID or a watch, youtu.be or embed URL
// into the 11 character video ID.
func ExtractVideoID(urlOrID string) (string, error) {
	if youtube.VideoIDPattern.MatchString(urlOrID) {
		return urlOrID, nil
	}

	for _, pattern := range videoURLPatterns {
		if m := pattern.FindStringSubmatch(urlOrID); len(m) == 2 {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("%w from: %s", ErrInvalidVideoID, urlOrID)
}

// validateVideoID validates a YouTube video ID format
// Video IDs are 11 alphanumeric characters with underscore and dash allowed
func validateVideoID(videoID string) error {
	if videoID == "" {
		return fmt.Errorf("video ID cannot be empty")
	}

	if len(videoID) != videoIDLength {
		return fmt.Errorf("video ID must be %d characters, got %d: %s",
			videoIDLength, len(videoID), videoID)
	}

	if !youtube.VideoIDPattern.MatchString(videoID) {
		return fmt.Errorf("invalid video ID format (must be 11 alphanumeric/underscore/dash chars): %s",
			videoID)
	}

	return nil
}
