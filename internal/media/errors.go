package media

import "errors"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidation Stage = "validation"
	StageDownload   Stage = "download"
	StageExtension  Stage = "extension"
	StageStore      Stage = "store"
)

// Caller-facing messages.
const (
	MessageUploaded    = "File uploaded"
	MessageMissingPath = "Upload Failed, Missing path"
	MessageDownload    = "Unable to download url to a temp file"
	MessageExtension   = "Could not identify extension"
	MessageStore       = "Error uploading"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrDownload   = errors.New("download failed")
	ErrExtension  = errors.New("extension unresolvable")
	ErrStore      = errors.New("store failed")
)

// Error is a terminal pipeline failure. Message is safe to return to callers;
// Err holds the underlying cause for logs.
type Error struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := stageSentinel(e.Stage); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func stageSentinel(stage Stage) error {
	switch stage {
	case StageValidation:
		return ErrValidation
	case StageDownload:
		return ErrDownload
	case StageExtension:
		return ErrExtension
	case StageStore:
		return ErrStore
	default:
		return nil
	}
}

func newError(stage Stage, message string, cause error) *Error {
	return &Error{Stage: stage, Message: message, Err: cause}
}

// MessageOf returns the caller-facing message of err, or fallback when err is
// not a pipeline error.
func MessageOf(err error, fallback string) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return fallback
}
