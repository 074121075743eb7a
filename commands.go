package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/researchaccelerator-hub/transcript-uploader/batch"
	"github.com/researchaccelerator-hub/transcript-uploader/client"
	"github.com/researchaccelerator-hub/transcript-uploader/common"
	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/researchaccelerator-hub/transcript-uploader/transcript"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const previewLines = 5

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <video_id_or_url> [output_filename]",
		Short: "Download a transcript to a text file",
		Example: `  transcript-uploader fetch dQw4w9WgXcQ
  transcript-uploader fetch https://www.youtube.com/watch?v=dQw4w9WgXcQ transcript.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			videoID, err := client.ExtractVideoID(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Video ID: %s\n", videoID)

			filename := argAt(args, 1)
			if filename == "" {
				filename = videoID + "_transcript.txt"
			}

			// Always in process: this command is what isolated fetches run
			source, err := a.newFetcher(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Fetching transcript...")
			tr, err := source.Fetch(cmd.Context(), videoID)
			if err != nil {
				// read by the parent of an isolated fetch
				fmt.Fprintln(cmd.ErrOrStderr(), youtube.ClassOf(err).Signal())
				return err
			}
			fmt.Fprintf(out, "Transcript contains %d segments\n", len(tr.Segments))

			if err := os.WriteFile(filename, []byte(tr.Text), 0o644); err != nil {
				return fmt.Errorf("error saving transcript: %w", err)
			}
			fmt.Fprintf(out, "Transcript saved to: %s\n", filename)

			writePreview(out, tr.Text)
			return nil
		},
	}
}

func writePreview(out io.Writer, text string) {
	lines := strings.Split(text, "\n")
	fmt.Fprintln(out, "\nPreview:")
	for _, line := range lines[:min(previewLines, len(lines))] {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	if len(lines) > previewLines {
		fmt.Fprintln(out, "  ...")
	}
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "upload VIDEO_ID [API_KEY] [SERVER_URL]",
		Short:   "Fetch one transcript and upload it",
		Example: `  transcript-uploader upload dQw4w9WgXcQ your_api_key https://summarizer.tpaulshippy.com`,
		Args:    cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyServerArgs(argAt(args, 1), argAt(args, 2)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			videoID, err := client.ExtractVideoID(args[0])
			if err != nil {
				return err
			}

			source, err := a.source(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Fetching transcript for video ID: %s\n", videoID)
			tr, err := source.Fetch(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			if transcript.IsBlank(tr.Text) {
				return fmt.Errorf("retrieved transcript is empty")
			}
			fmt.Fprintf(out, "Retrieved transcript (%d characters)\n", len(tr.Text))

			resp, err := a.newSummarizer(a.cfg).UploadTranscript(cmd.Context(), videoID, tr.Text)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Successfully uploaded transcript for video %s\n", videoID)
			fmt.Fprintf(out, "   Meeting ID: %v\n", resp.MeetingID)
			fmt.Fprintf(out, "   Message: %s\n", resp.Message)
			return nil
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch video_ids.txt [API_KEY] [SERVER_URL]",
		Short: "Fetch and upload every video listed in a file",
		Long: `Fetches and uploads the transcript of every video listed in a file, one
video ID or URL per line. Blank lines and lines starting with # are ignored.
The list may also be an http(s) URL, which is downloaded first.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyServerArgs(argAt(args, 1), argAt(args, 2)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ids, err := common.LoadVideoIDs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("no video IDs found in file")
			}

			fmt.Fprintf(out, "Found %d video IDs to process\n", len(ids))
			fmt.Fprintf(out, "Target server: %s\n", a.cfg.ServerURL)
			return a.runBatch(cmd, ids)
		},
	}
}

func newMissingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "missing [API_KEY] [SERVER_URL]",
		Short: "Fetch and upload every transcript the server reports as missing",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyServerArgs(argAt(args, 0), argAt(args, 1)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Fetching list of missing transcripts from %s\n", a.cfg.ServerURL)
			ids, err := a.newSummarizer(a.cfg).MissingVideoIDs(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, "No missing transcripts found! All meetings have transcripts.")
				return nil
			}

			fmt.Fprintf(out, "Found %d videos that need transcripts\n", len(ids))
			return a.runBatch(cmd, ids)
		},
	}
}

// runBatch processes ids and prints the summary, also after an interrupt
func (a *app) runBatch(cmd *cobra.Command, ids []string) error {
	source, err := a.source(cmd.Context())
	if err != nil {
		return err
	}

	runner := batch.NewRunner(source, a.newSummarizer(a.cfg), cmd.OutOrStdout())
	log.Info().Str("run_id", runner.RunID()).Int("videos", len(ids)).Msg("Starting upload run")

	result, err := runner.Run(cmd.Context(), ids)
	result.WriteSummary(cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}
