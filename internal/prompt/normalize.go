package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/metrics"
)

const (
	Vietnamese = "vi"
	English    = "en"
)

var ErrTranslation = errors.New("translation failed")

// Normalizer turns a prompt into English. Only Vietnamese is translated;
// every other outcome of detection, including no outcome, passes the prompt
// through untouched.
type Normalizer struct {
	detector   Detector
	translator Translator
}

func NewNormalizer(detector Detector, translator Translator) *Normalizer {
	return &Normalizer{detector, translator}
}

func (n *Normalizer) Normalize(ctx context.Context, prompt string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("normalizer")

	lang, ok := n.detector.Detect(prompt)
	if !ok || lang != Vietnamese {
		log.Debug("prompt passed through", "language", lang, "detected", ok)
		return prompt, nil
	}

	translated, err := n.translator.Translate(ctx, prompt, Vietnamese, English)
	if err == nil && strings.TrimSpace(translated) == "" {
		err = errors.New("empty translation")
	}
	if err != nil {
		metrics.RecordTranslation("error")
		return "", fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	metrics.RecordTranslation("success")
	log.Info("translated prompt", "language", lang, "translated", translated)
	return translated, nil
}
