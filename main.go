package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/researchaccelerator-hub/transcript-uploader/client"
	"github.com/researchaccelerator-hub/transcript-uploader/config"
	"github.com/researchaccelerator-hub/transcript-uploader/transcript"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// summarizer is the part of the server API the commands use
type summarizer interface {
	client.Uploader
	client.MissingLister
}

// app carries the configuration built once at startup and the constructors
// the commands use. Tests replace the constructors.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.UploaderConfig

	newFetcher    func(ctx context.Context, cfg *config.UploaderConfig) (transcript.Source, error)
	newSummarizer func(cfg *config.UploaderConfig) summarizer
}

func newApp() *app {
	return &app{
		v:             viper.New(),
		newFetcher:    newInProcessFetcher,
		newSummarizer: newSummarizerClient,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "transcript-uploader",
		Short: "Fetch YouTube transcripts and upload them to the summarization server",
		Long: `Fetches YouTube video transcripts, optionally through a rotating Webshare
proxy, and uploads them to the summarization server's transcript API.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (YAML, JSON or TOML)")
	flags.String("api-key", "", "Server API key (env TRANSCRIPT_API_KEY)")
	flags.String("server-url", "", fmt.Sprintf("Summarization server URL (default %s)", config.DefaultServerURL))
	flags.StringSlice("languages", nil, "Caption language preference, most wanted first (default en,en-US,en-GB,en-AU,en-CA)")
	flags.Bool("isolate", false, "Fetch every transcript in a child process")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error (default info)")
	flags.Duration("timeout", 0, "HTTP timeout for server and YouTube requests (default 30s)")

	for key, name := range map[string]string{
		"api_key":    "api-key",
		"server_url": "server-url",
		"languages":  "languages",
		"isolate":    "isolate",
		"log_level":  "log-level",
		"timeout":    "timeout",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newFetchCmd(a),
		newUploadCmd(a),
		newBatchCmd(a),
		newMissingCmd(a),
	)
	return root
}

// setup hydrates the environment from .env, builds the configuration and
// configures logging. It runs before every subcommand. The server URL is
// checked later by applyServerArgs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	config.SetDefaults(a.v)
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateOptions(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	setupLogging(cfg.LogLevel, cmd.ErrOrStderr())
	log.Debug().
		Str("server_url", cfg.ServerURL).
		Strs("languages", cfg.Languages).
		Bool("isolate", cfg.Isolate).
		Bool("proxy", cfg.Webshare.Enabled()).
		Msg("Configuration loaded")
	return nil
}

func setupLogging(level string, w io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// applyServerArgs lets the positional API_KEY and SERVER_URL arguments win
// over flags, environment and config file, then checks the result.
func (a *app) applyServerArgs(apiKey, serverURL string) error {
	if apiKey != "" {
		a.cfg.APIKey = apiKey
	}
	if serverURL != "" {
		a.cfg.ServerURL = strings.TrimRight(serverURL, "/")
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// source returns the transcript source for upload and batch runs
func (a *app) source(ctx context.Context) (transcript.Source, error) {
	if a.cfg.Isolate {
		return transcript.NewIsolatedFetcher(childArgs(a.cfg, a.configFile)...)
	}
	return a.newFetcher(ctx, a.cfg)
}

// childArgs forwards the settings a child fetch process cannot read from
// the shared environment.
func childArgs(cfg *config.UploaderConfig, configFile string) []string {
	args := []string{
		"--languages", strings.Join(cfg.Languages, ","),
		"--timeout", cfg.Timeout.String(),
		"--log-level", cfg.LogLevel,
	}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	return args
}

func newInProcessFetcher(ctx context.Context, cfg *config.UploaderConfig) (transcript.Source, error) {
	var proxy *client.WebshareProxy
	if cfg.Webshare.Enabled() {
		proxy = &client.WebshareProxy{
			Username:           cfg.Webshare.Username,
			Password:           cfg.Webshare.Password,
			Locations:          cfg.Webshare.Locations,
			RetriesWhenBlocked: cfg.Webshare.RetriesWhenBlocked,
		}
	}

	opts := []transcript.Option{transcript.WithLanguages(cfg.Languages)}
	if cfg.YouTubeAPIKey != "" {
		yt, err := client.NewYouTubeDataClient(cfg.YouTubeAPIKey)
		if err != nil {
			return nil, err
		}
		if err := yt.Connect(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, transcript.WithProber(yt))
	}

	providers := client.NewDefaultProviderFactory(client.TranscriptClientConfig{
		Proxy:   proxy,
		Timeout: cfg.Timeout,
	})
	return transcript.NewFetcher(providers, opts...), nil
}

func newSummarizerClient(cfg *config.UploaderConfig) summarizer {
	return client.NewSummarizerClient(cfg.ServerURL, cfg.APIKey, cfg.Timeout)
}
