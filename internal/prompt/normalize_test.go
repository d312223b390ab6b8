package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDetector struct {
	code string
	ok   bool
}

func (d fixedDetector) Detect(string) (string, bool) {
	return d.code, d.ok
}

type translateCall struct {
	text, source, target string
}

type recordingTranslator struct {
	calls []translateCall
	out   string
	err   error
}

func (t *recordingTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	t.calls = append(t.calls, translateCall{text, source, target})
	return t.out, t.err
}

func TestNormalizeTranslatesVietnamese(t *testing.T) {
	translator := &recordingTranslator{out: "a cat"}
	n := NewNormalizer(fixedDetector{"vi", true}, translator)

	out, err := n.Normalize(context.Background(), "một con mèo")
	require.NoError(t, err)

	assert.Equal(t, "a cat", out)
	assert.Equal(t, []translateCall{{"một con mèo", "vi", "en"}}, translator.calls)
}

func TestNormalizePassesThrough(t *testing.T) {
	tests := map[string]fixedDetector{
		"english":          {"en", true},
		"other language":   {"fr", true},
		"detection failed": {"", false},
	}
	for name, detector := range tests {
		t.Run(name, func(t *testing.T) {
			translator := &recordingTranslator{out: "unused"}
			n := NewNormalizer(detector, translator)

			out, err := n.Normalize(context.Background(), "a cat sitting on a wall")
			require.NoError(t, err)

			assert.Equal(t, "a cat sitting on a wall", out)
			assert.Empty(t, translator.calls)
		})
	}
}

func TestNormalizeTranslationFailure(t *testing.T) {
	cause := errors.New("connection refused")
	n := NewNormalizer(fixedDetector{"vi", true}, &recordingTranslator{err: cause})

	_, err := n.Normalize(context.Background(), "một con mèo")
	assert.ErrorIs(t, err, ErrTranslation)
	assert.ErrorIs(t, err, cause)
}

func TestNormalizeEmptyTranslation(t *testing.T) {
	n := NewNormalizer(fixedDetector{"vi", true}, &recordingTranslator{out: "  "})

	_, err := n.Normalize(context.Background(), "một con mèo")
	assert.ErrorIs(t, err, ErrTranslation)
}
