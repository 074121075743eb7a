package client

import (
	"context"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
)

// TranscriptProvider lists and downloads the caption tracks of a video
type TranscriptProvider interface {
	// ListTranscripts returns every caption track available for the video
	ListTranscripts(ctx context.Context, videoID string) (*youtube.TranscriptList, error)

	// FetchTrack downloads a single caption track
	FetchTrack(ctx context.Context, track youtube.CaptionTrack) ([]youtube.TranscriptSegment, error)

	// Fetch picks the best track for the languages and downloads it
	Fetch(ctx context.Context, videoID string, languages []string) (*youtube.Transcript, error)
}

// Uploader stores a transcript on the summarization server
type Uploader interface {
	UploadTranscript(ctx context.Context, videoID, transcript string) (*UploadResponse, error)
}

// MissingLister reports which videos the server still needs a transcript for
type MissingLister interface {
	MissingVideoIDs(ctx context.Context) ([]string, error)
}

var (
	_ TranscriptProvider  = (*TranscriptClient)(nil)
	_ Uploader            = (*SummarizerClient)(nil)
	_ MissingLister       = (*SummarizerClient)(nil)
	_ youtube.VideoProber = (*YouTubeDataClient)(nil)
)
