package upload

import (
	"github.com/user/hrassist/internal/types"
)

const (
	// MaxFileSize is the largest document the backend accepts.
	MaxFileSize = 10 * 1024 * 1024
	// AcceptedMIMEType is the only document type the backend ingests.
	AcceptedMIMEType = "application/pdf"
)

// ValidationError is a client-side rejection. It never reaches the network.
type ValidationError struct {
	Title       string
	Description string
	warning     bool
}

func (e *ValidationError) Error() string {
	return e.Title + ": " + e.Description
}

// Topic is the notification topic for the rejection.
func (e *ValidationError) Topic() string { return "upload.rejected" }

// Level is the notification level for the rejection.
func (e *ValidationError) Level() types.Level {
	if e.warning {
		return types.LevelWarning
	}
	return types.LevelError
}

var (
	ErrNoFile = &ValidationError{
		Title:       "No file selected",
		Description: "Please select a PDF file to upload.",
		warning:     true,
	}
	ErrInvalidType = &ValidationError{
		Title:       "Invalid file type",
		Description: "Please select a PDF file.",
	}
	ErrTooLarge = &ValidationError{
		Title:       "File too large",
		Description: "Please select a file smaller than 10MB.",
	}
)

// Validate applies the pre-flight rules in order; the first failure wins.
func Validate(file *types.File) error {
	switch {
	case file == nil:
		return ErrNoFile
	case file.MIMEType != AcceptedMIMEType:
		return ErrInvalidType
	case file.Size > MaxFileSize:
		return ErrTooLarge
	}
	return nil
}
