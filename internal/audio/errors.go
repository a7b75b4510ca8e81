package audio

import "errors"

// ErrInvalidChunking indicates invalid chunk planning input (non-positive
// duration or chunk size). This is a configuration error: it is reported
// before any collaborator call and aborts the job.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// ErrExtractionFailed indicates ffmpeg failed to extract an audio range.
var ErrExtractionFailed = errors.New("audio extraction failed")

// ErrNoDuration indicates the source duration could not be determined.
var ErrNoDuration = errors.New("could not determine media duration")
