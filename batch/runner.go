// Package batch drives the sequential fetch and upload of a list of videos.
package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/researchaccelerator-hub/transcript-uploader/client"
	"github.com/researchaccelerator-hub/transcript-uploader/common"
	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/researchaccelerator-hub/transcript-uploader/transcript"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runner fetches and uploads transcripts one video at a time
type Runner struct {
	source   transcript.Source
	uploader client.Uploader
	out      io.Writer
	runID    string
	logger   zerolog.Logger
}

// NewRunner creates a Runner that reports progress to out
func NewRunner(source transcript.Source, uploader client.Uploader, out io.Writer) *Runner {
	runID := common.GenerateRunID()
	return &Runner{
		source:   source,
		uploader: uploader,
		out:      out,
		runID:    runID,
		logger:   log.With().Str("run_id", runID).Logger(),
	}
}

// RunID identifies this runner's log lines
func (r *Runner) RunID() string {
	return r.runID
}

// Run processes the videos in order. A failing video is counted and the loop
// moves on. When ctx is cancelled the loop stops before the next video and
// the partial result is returned together with the context error.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Result, error) {
	result := &Result{}
	r.logger.Info().Int("count", len(inputs)).Msg("Starting batch")

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Int("processed", i).Int("remaining", len(inputs)-i).Msg("Batch interrupted")
			return result, err
		}

		fmt.Fprintf(r.out, "\n[%d/%d] Processing video ID: %s\n", i+1, len(inputs), input)
		if err := r.process(ctx, input); err != nil {
			result.RecordFailure(youtube.ClassOf(err))
			continue
		}
		result.RecordSuccess()
	}

	r.logger.Info().
		Int("successful", result.Successful).
		Int("total", result.Total()).
		Msg("Batch finished")
	return result, nil
}

// process handles one video. The returned error decides which counter is incremented.
func (r *Runner) process(ctx context.Context, input string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("input", input).Interface("panic", rec).Msg("Recovered from panic while processing item")
			fmt.Fprintf(r.out, "   Error: internal error: %v\n", rec)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	videoID, err := client.ExtractVideoID(input)
	if err != nil {
		fmt.Fprintf(r.out, "   Error: %v\n", err)
		return err
	}
	logger := r.logger.With().Str("video_id", videoID).Logger()

	fmt.Fprintln(r.out, "   Fetching transcript...")
	tr, err := r.source.Fetch(ctx, videoID)
	if err != nil {
		r.reportFetchError(videoID, err)
		logger.Debug().Err(err).Str("class", youtube.ClassOf(err).String()).Msg("Fetch failed")
		return err
	}

	if transcript.IsBlank(tr.Text) {
		fmt.Fprintln(r.out, "   Retrieved transcript is empty, skipping")
		return fmt.Errorf("empty transcript for video %s", videoID)
	}
	fmt.Fprintf(r.out, "   Retrieved transcript (%d characters)\n", len(tr.Text))

	fmt.Fprintln(r.out, "   Uploading...")
	resp, err := r.uploader.UploadTranscript(ctx, videoID, tr.Text)
	if err != nil {
		fmt.Fprintf(r.out, "   Error: %v\n", err)
		logger.Error().Err(err).Msg("Upload failed")
		return err
	}

	fmt.Fprintf(r.out, "   Successfully uploaded transcript for video %s\n", videoID)
	if resp != nil {
		fmt.Fprintf(r.out, "   Meeting ID: %v\n", resp.MeetingID)
		fmt.Fprintf(r.out, "   Message: %s\n", resp.Message)
	}
	logger.Info().Int("characters", len(tr.Text)).Msg("Transcript uploaded")
	return nil
}

func (r *Runner) reportFetchError(videoID string, err error) {
	switch youtube.ClassOf(err) {
	case youtube.ClassTranscriptsDisabled:
		fmt.Fprintf(r.out, "   Transcripts are disabled for video %s\n", videoID)
	case youtube.ClassIPBlocked:
		fmt.Fprintln(r.out, "   YouTube is blocking requests (IP rate limited)")
		fmt.Fprintln(r.out, "   This might be temporary, try again later or use a different IP")
	case youtube.ClassNoTranscriptFound:
		fmt.Fprintf(r.out, "   No transcript available for video %s\n", videoID)
	case youtube.ClassVideoUnavailable:
		fmt.Fprintf(r.out, "   Video %s is unavailable\n", videoID)
	default:
		fmt.Fprintf(r.out, "   Error: %v\n", err)
	}
}
