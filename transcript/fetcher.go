// Package transcript turns a video ID into plain transcript text, either in
// process or through an isolated child process.
package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/researchaccelerator-hub/transcript-uploader/client"
	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/rs/zerolog/log"
)

// Source fetches the transcript of one video
type Source interface {
	Fetch(ctx context.Context, videoID string) (*youtube.Transcript, error)
}

// Fetcher fetches transcripts in process
type Fetcher struct {
	providers client.ProviderFactory
	languages []string
	prober    youtube.VideoProber
	formatter TextFormatter
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLanguages sets the caption language preference, most wanted first
func WithLanguages(languages []string) Option {
	return func(f *Fetcher) {
		if len(languages) > 0 {
			f.languages = languages
		}
	}
}

// WithProber checks that a video exists before its captions are listed
func WithProber(prober youtube.VideoProber) Option {
	return func(f *Fetcher) {
		f.prober = prober
	}
}

// NewFetcher creates a Fetcher that gets a fresh provider from providers for every video
func NewFetcher(providers client.ProviderFactory, opts ...Option) *Fetcher {
	f := &Fetcher{
		providers: providers,
		languages: youtube.DefaultLanguages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists the caption tracks of a video and downloads the best one: a
// manually created track in a preferred language, otherwise any track in a
// preferred language. When neither exists a fresh provider gets one more,
// best-effort attempt. Returned errors wrap the youtube sentinel errors.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*youtube.Transcript, error) {
	logger := log.With().Str("video_id", videoID).Logger()

	if err := f.probe(ctx, videoID); err != nil {
		return nil, err
	}

	provider := f.providers.NewProvider()
	list, err := provider.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, wrapFetchError(err, f.languages)
	}

	track, err := list.FindManuallyCreated(f.languages)
	if err != nil {
		logger.Debug().Strs("available", list.LanguageCodes()).Msg("No manual transcript, falling back to any transcript")
		track, err = list.Find(f.languages)
	}

	if err != nil {
		logger.Debug().Msg("No transcript in preferred languages, trying best-effort fetch")
		tr, err := f.providers.NewProvider().Fetch(ctx, videoID, f.languages)
		if err != nil {
			return nil, wrapFetchError(err, f.languages)
		}
		tr.Text = f.formatter.Format(tr.Segments)
		return tr, nil
	}

	segments, err := provider.FetchTrack(ctx, track)
	if err != nil {
		return nil, wrapFetchError(err, f.languages)
	}

	logger.Debug().
		Str("language", track.LanguageCode).
		Bool("generated", track.IsGenerated()).
		Int("segments", len(segments)).
		Msg("Fetched transcript")

	return &youtube.Transcript{
		VideoID:      videoID,
		LanguageCode: track.LanguageCode,
		IsGenerated:  track.IsGenerated(),
		Segments:     segments,
		Text:         f.formatter.Format(segments),
	}, nil
}

func (f *Fetcher) probe(ctx context.Context, videoID string) error {
	if f.prober == nil {
		return nil
	}
	exists, err := f.prober.VideoExists(ctx, videoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("Availability probe failed, continuing without it")
		return nil
	}
	if !exists {
		return youtube.ErrVideoUnavailable
	}
	return nil
}

// wrapFetchError keeps the classified sentinels recognizable and wraps everything else
func wrapFetchError(err error, languages []string) error {
	switch {
	case errors.Is(err, youtube.ErrNoTranscriptFound):
		return fmt.Errorf("%w for languages %v", youtube.ErrNoTranscriptFound, languages)
	case youtube.ClassOf(err) != youtube.ClassOther:
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("error getting transcript: %w", err)
}
