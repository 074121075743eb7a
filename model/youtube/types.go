// Package youtube contains YouTube-specific data models
package youtube

import (
	"context"
	"fmt"
	"regexp"
)

// VideoIDPattern matches a bare 11 character YouTube video ID
var VideoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// DefaultLanguages is the caption language preference used when none is configured
var DefaultLanguages = []string{"en", "en-US", "en-GB", "en-AU", "en-CA"}

// CaptionTrack describes one caption track offered by the transcript provider
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Name         string
	Kind         string // "asr" = auto-generated
}

// IsGenerated reports whether the track was generated by speech recognition
func (t CaptionTrack) IsGenerated() bool {
	return t.Kind == "asr"
}

// TranscriptList holds every caption track available for a video
type TranscriptList struct {
	VideoID string
	Tracks  []CaptionTrack
}

// FindManuallyCreated returns the first human authored track in language preference order
func (l *TranscriptList) FindManuallyCreated(languages []string) (CaptionTrack, error) {
	return l.find(languages, func(t CaptionTrack) bool { return !t.IsGenerated() })
}

// Find returns the first track in language preference order. Within one
// language a manually created track wins over a generated one.
func (l *TranscriptList) Find(languages []string) (CaptionTrack, error) {
	for _, lang := range languages {
		var generated *CaptionTrack
		for i, t := range l.Tracks {
			if t.LanguageCode != lang {
				continue
			}
			if !t.IsGenerated() {
				return t, nil
			}
			if generated == nil {
				generated = &l.Tracks[i]
			}
		}
		if generated != nil {
			return *generated, nil
		}
	}
	return CaptionTrack{}, l.notFound(languages)
}

func (l *TranscriptList) find(languages []string, keep func(CaptionTrack) bool) (CaptionTrack, error) {
	for _, lang := range languages {
		for _, t := range l.Tracks {
			if t.LanguageCode == lang && keep(t) {
				return t, nil
			}
		}
	}
	return CaptionTrack{}, l.notFound(languages)
}

func (l *TranscriptList) notFound(languages []string) error {
	return fmt.Errorf("%w for languages %v (video %s)", ErrNoTranscriptFound, languages, l.VideoID)
}

// LanguageCodes lists the language codes of all tracks, generated ones marked with a suffix
func (l *TranscriptList) LanguageCodes() []string {
	codes := make([]string, 0, len(l.Tracks))
	for _, t := range l.Tracks {
		if t.IsGenerated() {
			codes = append(codes, t.LanguageCode+" (auto)")
			continue
		}
		codes = append(codes, t.LanguageCode)
	}
	return codes
}

// TranscriptSegment is one timed line of a transcript
type TranscriptSegment struct {
	Start    float64
	Duration float64
	Text     string
}

// Transcript is a fetched transcript together with its flattened plain text
type Transcript struct {
	VideoID      string
	LanguageCode string
	IsGenerated  bool
	Segments     []TranscriptSegment
	Text         string
}

// VideoProber reports whether a video exists before its captions are requested
type VideoProber interface {
	// VideoExists returns false when the video is private, deleted or never existed
	VideoExists(ctx context.Context, videoID string) (bool, error)
}
