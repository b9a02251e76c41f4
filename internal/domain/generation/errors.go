package generation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPrompt        = errors.New("invalid prompt")
	ErrMissingCredential    = errors.New("provider API key is not configured")
	ErrUnsupportedProvider  = errors.New("unsupported provider")
	ErrUnsupportedModel     = errors.New("unsupported model")
	ErrUnsupportedModality  = errors.New("unsupported model type")
	ErrNoContentGenerated   = errors.New("no content generated (the prompt may have been filtered)")
	ErrNoInputImages        = errors.New("at least one input image is required")
	ErrTooManyImages        = errors.New("too many input images")
	ErrUnsupportedImageType = errors.New("unsupported image file")
	ErrUnsupportedEditModel = errors.New("model does not support image editing")
	ErrMissingConversation  = errors.New("conversation id is required")
)

// UpstreamError is returned when a provider answers with a non-success status
// or a body that cannot be interpreted.
type UpstreamError struct {
	Provider   Provider
	StatusCode int // 0 when the failure was not an HTTP status
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Body)
}
