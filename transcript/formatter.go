package transcript

import (
	"strings"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
)

// TextFormatter flattens segments into plain text, one segment per line
type TextFormatter struct{}

// Format joins the segment texts with newlines
func (TextFormatter) Format(segments []youtube.TranscriptSegment) string {
	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}

// IsBlank reports whether a transcript has no visible text
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
