package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/go-resty/resty/v2"
)

// WebTranslator calls the keyless Google Translate web endpoint.
type WebTranslator struct {
	client *resty.Client
}

func NewWebTranslator(baseURL string) *WebTranslator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "text2image/1.0").
		SetTimeout(15 * time.Second)
	return &WebTranslator{client}
}

func (t *WebTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("web translator").With("source", source, "target", target)
	log.Info("translating prompt")

	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     source,
			"tl":     target,
			"dt":     "t",
			"q":      text,
		}).
		Get("/translate_a/single")
	if err != nil {
		return "", fmt.Errorf("query translate endpoint: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("translate endpoint error (status %d): %s", resp.StatusCode(), resp.String())
	}

	return parseWebTranslation(resp.Body())
}

// The endpoint answers with nested arrays; the first element lists the
// translated segments, each segment starting with its translated text.
func parseWebTranslation(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty translate response")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", errors.New("unexpected translate response shape")
	}

	var sb strings.Builder
	for _, s := range segments {
		segment, ok := s.([]any)
		if !ok || len(segment) == 0 {
			continue
		}
		if text, ok := segment[0].(string); ok {
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}
