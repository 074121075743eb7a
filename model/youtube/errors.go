package youtube

import (
	"errors"
	"strings"
)

// ErrorClass is the closed set of reasons a transcript fetch can fail
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassTranscriptsDisabled
	ClassIPBlocked
	ClassNoTranscriptFound
	ClassVideoUnavailable
)

// String returns the signal name of the class
func (c ErrorClass) String() string {
	switch c {
	case ClassTranscriptsDisabled:
		return "TRANSCRIPTS_DISABLED"
	case ClassIPBlocked:
		return "IP_BLOCKED"
	case ClassNoTranscriptFound:
		return "NO_TRANSCRIPT_FOUND"
	case ClassVideoUnavailable:
		return "VIDEO_UNAVAILABLE"
	default:
		return "OTHER"
	}
}

// Sentinel errors returned by the transcript provider client
var (
	ErrTranscriptsDisabled = errors.New("Transcripts are disabled for this video")
	ErrIPBlocked           = errors.New("YouTube is blocking requests from your IP")
	ErrNoTranscriptFound   = errors.New("No transcript found")
	ErrVideoUnavailable    = errors.New("Video unavailable")
	ErrVideoUnplayable     = errors.New("the video is unplayable")
	ErrPoTokenRequired     = errors.New("caption track requires a po token")
)

// Sentinel returns the sentinel error that belongs to the class, or nil for ClassOther
func (c ErrorClass) Sentinel() error {
	switch c {
	case ClassTranscriptsDisabled:
		return ErrTranscriptsDisabled
	case ClassIPBlocked:
		return ErrIPBlocked
	case ClassNoTranscriptFound:
		return ErrNoTranscriptFound
	case ClassVideoUnavailable:
		return ErrVideoUnavailable
	default:
		return nil
	}
}

// ClassifiedError is a fetch failure whose cause is only known by its class,
// e.g. one recovered from the output of an isolated fetch process.
type ClassifiedError struct {
	Class   ErrorClass
	VideoID string
	Output  string
}

func (e *ClassifiedError) Error() string {
	return e.Class.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Class.Sentinel()
}

// ClassOf maps an error onto the taxonomy
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	switch {
	case errors.Is(err, ErrTranscriptsDisabled):
		return ClassTranscriptsDisabled
	case errors.Is(err, ErrIPBlocked):
		return ClassIPBlocked
	case errors.Is(err, ErrNoTranscriptFound):
		return ClassNoTranscriptFound
	case errors.Is(err, ErrVideoUnavailable):
		return ClassVideoUnavailable
	}
	return ClassOther
}

// ParseErrorClass maps a signal name such as "IP_BLOCKED" back onto its class
func ParseErrorClass(name string) (ErrorClass, bool) {
	for _, c := range []ErrorClass{ClassOther, ClassTranscriptsDisabled, ClassIPBlocked, ClassNoTranscriptFound, ClassVideoUnavailable} {
		if c.String() == name {
			return c, true
		}
	}
	return ClassOther, false
}

// ClassSignalPrefix starts the line a failed fetch process prints to report
// the class of its error.
const ClassSignalPrefix = "Error class: "

// Signal returns the line a failed fetch process prints for the class
func (c ErrorClass) Signal() string {
	return ClassSignalPrefix + c.String()
}

// outputPatterns is checked in order; the first hit decides the class.
// Matching is case-sensitive.
var outputPatterns = []struct {
	needles []string
	class   ErrorClass
}{
	{[]string{"Transcripts are disabled for this video"}, ClassTranscriptsDisabled},
	{[]string{"YouTube is blocking requests", "IP has been blocked"}, ClassIPBlocked},
	{[]string{"No transcript found"}, ClassNoTranscriptFound},
	{[]string{"Video unavailable", "unavailable"}, ClassVideoUnavailable},
}

// ClassifyOutput maps the captured text output of a failed fetch onto the
// taxonomy. A class signal line wins; output without one is matched by
// substring.
func ClassifyOutput(output string) ErrorClass {
	for _, line := range strings.Split(output, "\n") {
		name, ok := strings.CutPrefix(strings.TrimSpace(line), ClassSignalPrefix)
		if !ok {
			continue
		}
		if class, ok := ParseErrorClass(strings.TrimSpace(name)); ok {
			return class
		}
	}

	for _, p := range outputPatterns {
		for _, needle := range p.needles {
			if strings.Contains(output, needle) {
				return p.class
			}
		}
	}
	return ClassOther
}
