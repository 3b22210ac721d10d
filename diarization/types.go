package diarization

import (
	"fmt"

	"github.com/kbukum/speakerkit/validation"
)

// Debug keys reported with every non-empty result.
const (
	DebugSpeechSegments = "speech_segments_count"
	DebugEmbeddings     = "embeddings_count"
	DebugProcessingTime = "processing_time"
	DebugRunID          = "run_id"
	DebugMessage        = "message"
)

// NoSpeechMessage is the debug message of a result without speech.
const NoSpeechMessage = "No speech detected"

// maxLanguageHint is the longest BCP 47 tag accepted as a hint.
const maxLanguageHint = 35

// DiarizationRequest holds parameters for a diarization call.
type DiarizationRequest struct {
	// FileURL is an http(s) URL, a file:// URL or a local path.
	FileURL string `json:"fileUrl" yaml:"fileUrl"`
	// LanguageHint is carried through for downstream transcription and is
	// not used by the pipeline.
	LanguageHint string `json:"languageHint,omitempty" yaml:"languageHint,omitempty"`
}

// Validate checks that the request names a usable location.
func (r DiarizationRequest) Validate() error {
	return validation.New().
		Required("fileUrl", r.FileURL).
		Location("fileUrl", r.FileURL).
		MaxLength("languageHint", r.LanguageHint, maxLanguageHint).
		Err()
}

// Segment is one speaker-attributed time range.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start" yaml:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end" yaml:"end"`
	// Speaker is the display name of the speaker label.
	Speaker string `json:"speaker" yaml:"speaker"`
	// Text is always empty; transcription happens elsewhere.
	Text string `json:"text" yaml:"text"`
}

// Result is the outcome of one diarization run.
type Result struct {
	DiarizedSegments []Segment      `json:"diarizedSegments" yaml:"diarizedSegments"`
	SpeakerCount     int            `json:"speakerCount" yaml:"speakerCount"`
	Confidence       float64        `json:"confidence" yaml:"confidence"`
	Debug            map[string]any `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// NoSpeechResult returns the empty result reported when no frame is speech.
func NoSpeechResult() *Result {
	return &Result{
		DiarizedSegments: []Segment{},
		Debug:            map[string]any{DebugMessage: NoSpeechMessage},
	}
}

// SpeakerName renders a zero-based label as "Speaker N" with N = label+1.
func SpeakerName(label int) string {
	return fmt.Sprintf("Speaker %d", label+1)
}
