package generate

import (
	"errors"

	"github.com/dmorgan81/text2image/internal/prompt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelUnavailable means the model could not be constructed. It is
	// permanent for the Service that returned it.
	ErrModelUnavailable = errors.New("model unavailable")
	ErrTranslation      = prompt.ErrTranslation
	ErrGeneration       = errors.New("generation failed")
)
