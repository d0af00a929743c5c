package chat

import "errors"

var (
	// ErrInvalidInput rejects an empty user message before any side effect.
	ErrInvalidInput = errors.New("chat: invalid input")

	// ErrInvalidIdentifier rejects a non-v4-UUID id before any repo call.
	ErrInvalidIdentifier = errors.New("chat: invalid identifier")

	// ErrGenerationBusy rejects a send while a generation is in flight.
	// Sends are never silently queued.
	ErrGenerationBusy = errors.New("chat: generation already in progress")

	// ErrUnknownModel rejects a model id outside the provider's current set.
	ErrUnknownModel = errors.New("chat: model not offered by provider")
)
