package scanning

import "errors"

// Pipeline failure classes. Every error leaving this package wraps exactly
// one of these so callers can classify without parsing messages.
var (
	// ErrValidation marks input that could not be decoded as an image.
	ErrValidation = errors.New("invalid receipt image")

	// ErrPromptAssembly marks a prompt template that failed to render.
	ErrPromptAssembly = errors.New("assembling prompt")

	// ErrCompletion marks a model call that failed on every credential tier.
	ErrCompletion = errors.New("completion failed")

	// ErrExtraction marks a model response with no receipt fragment in it.
	ErrExtraction = errors.New("no receipt document in response")

	// ErrFormat marks a receipt fragment that is not valid against the
	// receipt schema, or conversion input that is malformed.
	ErrFormat = errors.New("malformed receipt document")
)
