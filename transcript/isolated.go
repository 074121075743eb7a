package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
	"github.com/rs/zerolog/log"
)

// ExitError is a failed fetch process whose output matched no known class
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("command '%s' returned non-zero exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command '%s' returned non-zero exit status %d: %s", e.Command, e.ExitCode, e.Output)
}

// IsolatedFetcher runs every fetch in a child process: Command Args... fetch ID FILE.
// The child writes the transcript to FILE; on failure its combined output is
// classified.
type IsolatedFetcher struct {
	Command string   // executable; usually this binary
	Args    []string // passed before the fetch subcommand
	Env     []string // appended to the parent environment
	TempDir string   // where the transcript file is created, "" = os.TempDir()
}

// NewIsolatedFetcher creates an IsolatedFetcher that re-runs the current executable
func NewIsolatedFetcher(args ...string) (*IsolatedFetcher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &IsolatedFetcher{Command: exe, Args: args}, nil
}

// Fetch implements Source
func (f *IsolatedFetcher) Fetch(ctx context.Context, videoID string) (*youtube.Transcript, error) {
	tmp, err := os.CreateTemp(f.TempDir, "transcript_*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("file", tmpPath).Msg("Failed to remove temp transcript file")
		}
	}()

	args := append(append([]string{}, f.Args...), "fetch", videoID, tmpPath)
	cmd := exec.CommandContext(ctx, f.Command, args...)
	if len(f.Env) > 0 {
		cmd.Env = append(os.Environ(), f.Env...)
	}

	log.Debug().Str("video_id", videoID).Strs("args", args).Msg("Starting isolated fetch")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, f.classify(videoID, args, output, err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	return &youtube.Transcript{VideoID: videoID, Text: string(data)}, nil
}

func (f *IsolatedFetcher) classify(videoID string, args []string, output []byte, runErr error) error {
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return fmt.Errorf("failed to run fetch process: %w", runErr)
	}

	text := strings.TrimSpace(string(output))
	if class := youtube.ClassifyOutput(text); class != youtube.ClassOther {
		return &youtube.ClassifiedError{Class: class, VideoID: videoID, Output: text}
	}

	return &ExitError{
		Command:  strings.Join(append([]string{f.Command}, args...), " "),
		ExitCode: exitErr.ExitCode(),
		Output:   text,
	}
}
