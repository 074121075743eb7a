package youtube

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   ErrorClass
	}{
		{"disabled", "Video ID: abc\nError: Transcripts are disabled for this video.", ClassTranscriptsDisabled},
		{"blocking", "Error: YouTube is blocking requests from your IP", ClassIPBlocked},
		{"ip blocked", "your IP has been blocked by YouTube", ClassIPBlocked},
		{"no transcript", "Error: No transcript found for languages [en]", ClassNoTranscriptFound},
		{"video unavailable", "Video unavailable", ClassVideoUnavailable},
		{"bare unavailable", "The requested video is unavailable.", ClassVideoUnavailable},
		{"disabled wins over unavailable", "Transcripts are disabled for this video; unavailable", ClassTranscriptsDisabled},
		{"case sensitive", "transcripts are disabled for this video", ClassOther},
		{"service unavailable", "Error: error getting transcript: watch page: HTTP 503: <html><title>503 Service Unavailable</title></html>", ClassOther},
		{"signal line", "Fetching transcript...\nError class: IP_BLOCKED\nError: HTTP 429", ClassIPBlocked},
		{"signal other beats needles", "Error class: OTHER\nError: error getting transcript: the video is unplayable: This live event is unavailable in your country", ClassOther},
		{"unknown signal falls back", "Error class: SOMETHING_NEW\nError: Video unavailable", ClassVideoUnavailable},
		{"unknown", "Error: connection reset by peer", ClassOther},
		{"empty", "", ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyOutput(tt.output))
		})
	}
}

func TestClassifyOutput_MatchesSentinelMessages(t *testing.T) {
	for _, class := range []ErrorClass{ClassTranscriptsDisabled, ClassIPBlocked, ClassNoTranscriptFound, ClassVideoUnavailable} {
		msg := fmt.Sprintf("Error: %v", fmt.Errorf("error getting transcript: %w", class.Sentinel()))
		assert.Equal(t, class, ClassifyOutput(msg), msg)
	}
}

func TestClassifyOutput_SignalMatchesClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unplayable", fmt.Errorf("error getting transcript: %w: This live event is unavailable in your country", ErrVideoUnplayable)},
		{"service unavailable", errors.New("error getting transcript: watch page: HTTP 503: Service Unavailable")},
		{"blocked", fmt.Errorf("player: %w", ErrIPBlocked)},
		{"no transcript", fmt.Errorf("%w for languages [en]", ErrNoTranscriptFound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := ClassOf(tt.err)
			output := fmt.Sprintf("%s\nError: %v", class.Signal(), tt.err)
			assert.Equal(t, class, ClassifyOutput(output))
		})
	}
}

func TestParseErrorClass(t *testing.T) {
	for _, class := range []ErrorClass{ClassOther, ClassTranscriptsDisabled, ClassIPBlocked, ClassNoTranscriptFound, ClassVideoUnavailable} {
		got, ok := ParseErrorClass(class.String())
		assert.True(t, ok)
		assert.Equal(t, class, got)
	}
	_, ok := ParseErrorClass("ip_blocked")
	assert.False(t, ok)
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassOther},
		{"wrapped disabled", fmt.Errorf("fetch: %w", ErrTranscriptsDisabled), ClassTranscriptsDisabled},
		{"wrapped blocked", fmt.Errorf("player: %w", ErrIPBlocked), ClassIPBlocked},
		{"no transcript", fmt.Errorf("%w for languages [en]", ErrNoTranscriptFound), ClassNoTranscriptFound},
		{"unavailable", ErrVideoUnavailable, ClassVideoUnavailable},
		{"unplayable is other", ErrVideoUnplayable, ClassOther},
		{"classified", &ClassifiedError{Class: ClassIPBlocked, VideoID: "abc"}, ClassIPBlocked},
		{"plain", errors.New("boom"), ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.err))
		})
	}
}

func TestClassifiedError(t *testing.T) {
	err := &ClassifiedError{Class: ClassNoTranscriptFound, VideoID: "dQw4w9WgXcQ", Output: "No transcript found"}

	assert.Equal(t, "NO_TRANSCRIPT_FOUND", err.Error())
	assert.ErrorIs(t, err, ErrNoTranscriptFound)
	assert.NotErrorIs(t, err, ErrIPBlocked)

	other := &ClassifiedError{Class: ClassOther}
	assert.Nil(t, other.Unwrap())
}

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "TRANSCRIPTS_DISABLED", ClassTranscriptsDisabled.String())
	assert.Equal(t, "IP_BLOCKED", ClassIPBlocked.String())
	assert.Equal(t, "NO_TRANSCRIPT_FOUND", ClassNoTranscriptFound.String())
	assert.Equal(t, "VIDEO_UNAVAILABLE", ClassVideoUnavailable.String())
	assert.Equal(t, "OTHER", ClassOther.String())
}
