package batch

import (
	"fmt"
	"io"

	"github.com/researchaccelerator-hub/transcript-uploader/model/youtube"
)

// Result tallies the outcome of every processed video. Each processed video
// increments exactly one counter.
type Result struct {
	Successful          int `json:"successful"`
	Failed              int `json:"failed"`
	TranscriptsDisabled int `json:"transcripts_disabled"`
	IPBlocked           int `json:"ip_blocked"`
	NoTranscriptFound   int `json:"no_transcript_found"`
	VideoUnavailable    int `json:"video_unavailable"`
}

// RecordSuccess counts an uploaded transcript
func (r *Result) RecordSuccess() {
	r.Successful++
}

// RecordFailure counts a failure under its class; ClassOther is a generic failure
func (r *Result) RecordFailure(class youtube.ErrorClass) {
	switch class {
	case youtube.ClassTranscriptsDisabled:
		r.TranscriptsDisabled++
	case youtube.ClassIPBlocked:
		r.IPBlocked++
	case youtube.ClassNoTranscriptFound:
		r.NoTranscriptFound++
	case youtube.ClassVideoUnavailable:
		r.VideoUnavailable++
	default:
		r.Failed++
	}
}

// Total is the number of processed videos
func (r *Result) Total() int {
	return r.Successful + r.Failed + r.TranscriptsDisabled + r.IPBlocked + r.NoTranscriptFound + r.VideoUnavailable
}

// SuccessRate returns the share of successful videos in percent. ok is false
// when nothing was processed.
func (r *Result) SuccessRate() (rate float64, ok bool) {
	total := r.Total()
	if total == 0 {
		return 0, false
	}
	return float64(r.Successful) / float64(total) * 100, true
}

// WriteSummary prints the counters, proxy guidance when YouTube blocked us,
// and the success rate when at least one video was processed.
func (r *Result) WriteSummary(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "   Successful: %d\n", r.Successful)
	fmt.Fprintf(w, "   Failed: %d\n", r.Failed)
	fmt.Fprintf(w, "   Transcripts disabled: %d\n", r.TranscriptsDisabled)
	fmt.Fprintf(w, "   IP blocked: %d\n", r.IPBlocked)
	fmt.Fprintf(w, "   No transcript found: %d\n", r.NoTranscriptFound)
	fmt.Fprintf(w, "   Video unavailable: %d\n", r.VideoUnavailable)

	if r.IPBlocked > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "YouTube blocked %d request(s) from this IP.\n", r.IPBlocked)
		fmt.Fprintln(w, "   Wait a while before the next run, or set WEBSHARE_PROXY_USERNAME and")
		fmt.Fprintln(w, "   WEBSHARE_PROXY_PASSWORD to route requests through rotating residential IPs.")
	}

	if rate, ok := r.SuccessRate(); ok {
		fmt.Fprintf(w, "   Success rate: %.1f%%\n", rate)
	}
}
