package prompt

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
)

// Detector reports the ISO 639-1 code of the dominant language of a text.
// ok is false when the text cannot be classified.
type Detector interface {
	Detect(text string) (code string, ok bool)
}

type LinguaDetector struct {
	detector lingua.LanguageDetector
}

func NewLinguaDetector(codes []string, minDistance float64) (*LinguaDetector, error) {
	languages := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		language, ok := lo.Find(lingua.AllLanguages(), func(l lingua.Language) bool {
			return strings.EqualFold(l.IsoCode639_1().String(), code)
		})
		if !ok {
			return nil, fmt.Errorf("unknown language code %q", code)
		}
		languages = append(languages, language)
	}
	languages = lo.Uniq(languages)
	if len(languages) < 2 {
		return nil, fmt.Errorf("language detection needs at least two languages, got %d", len(languages))
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(minDistance).
		Build()
	return &LinguaDetector{detector}, nil
}

func (d *LinguaDetector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}
