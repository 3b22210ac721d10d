package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a backend is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeBusy indicates the provider has no free invocation slot.
	ErrCodeBusy ErrorCode = "BUSY"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the request is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidAudio indicates the audio is not canonical mono 16 kHz PCM.
	ErrCodeInvalidAudio ErrorCode = "INVALID_AUDIO"
)

// Collaborator errors
const (
	// ErrCodeFetchFailed indicates the source audio could not be retrieved.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
	// ErrCodeConversionFailed indicates format conversion failed.
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	// ErrCodeExternalService indicates an error from a remote worker or sidecar.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Pipeline stage errors
const (
	// ErrCodeSegmentation indicates the voice-activity detector failed.
	ErrCodeSegmentation ErrorCode = "SEGMENTATION_FAILED"
	// ErrCodeEmbedding indicates the embedding model failed on a segment.
	ErrCodeEmbedding ErrorCode = "EMBEDDING_FAILED"
	// ErrCodeClustering indicates clustering failed.
	ErrCodeClustering ErrorCode = "CLUSTERING_FAILED"
	// ErrCodeConfidence indicates confidence estimation failed. Never surfaced
	// to callers; the estimator maps it to 0.
	ErrCodeConfidence ErrorCode = "CONFIDENCE_FAILED"
	// ErrCodePipeline is the single opaque failure returned by a pipeline run.
	ErrCodePipeline ErrorCode = "PIPELINE_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeBusy:               true,
	ErrCodeFetchFailed:        true,
	ErrCodeExternalService:    true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
