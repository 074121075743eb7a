package client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// YouTubeDataClient implements the youtube.VideoProber interface on top of the YouTube Data API
type YouTubeDataClient struct {
	service *ytapi.Service
	apiKey  string
	opts    []option.ClientOption
}

// NewYouTubeDataClient creates a new YouTube data client. Extra options are
// passed to the service constructor, e.g. option.WithEndpoint in tests.
func NewYouTubeDataClient(apiKey string, opts ...option.ClientOption) (*YouTubeDataClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	return &YouTubeDataClient{
		apiKey: apiKey,
		opts:   opts,
	}, nil
}

// Connect establishes a connection to the YouTube API
func (c *YouTubeDataClient) Connect(ctx context.Context) error {
	log.Debug().Msg("Connecting to YouTube API")

	// option.WithHTTPClient would make the service ignore the API key
	opts := append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.opts...)
	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	c.service = service
	return nil
}

// VideoExists looks the video up by ID. Private, deleted and never existing
// videos all come back as an empty result.
func (c *YouTubeDataClient) VideoExists(ctx context.Context, videoID string) (bool, error) {
	if c.service == nil {
		return false, fmt.Errorf("YouTube client not connected")
	}

	if err := validateVideoID(videoID); err != nil {
		return false, fmt.Errorf("invalid video ID: %w", err)
	}

	response, err := c.service.Videos.List([]string{"id"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to look up video on YouTube API")
		return false, fmt.Errorf("failed to get video from YouTube API: %w", err)
	}

	exists := len(response.Items) > 0
	log.Debug().Str("video_id", videoID).Bool("exists", exists).Msg("Probed video availability")
	return exists, nil
}
