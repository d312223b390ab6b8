package prompt

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/translate"
	"github.com/dmorgan81/text2image/internal/log"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// CloudTranslator uses the Google Cloud Translation v2 API.
type CloudTranslator struct {
	client *translate.Client
}

func NewCloudTranslator(ctx context.Context, key string, opts ...option.ClientOption) (*CloudTranslator, error) {
	if key == "" {
		return nil, errors.New("google translate key cannot be empty")
	}
	client, err := translate.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(key)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating translate client: %w", err)
	}
	return &CloudTranslator{client}, nil
}

func (t *CloudTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("cloud translator").With("source", source, "target", target)
	log.Info("translating prompt")

	src, err := language.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parsing source language: %w", err)
	}
	tgt, err := language.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target language: %w", err)
	}

	translations, err := t.client.Translate(ctx, []string{text}, tgt, &translate.Options{
		Source: src,
		Format: translate.Text,
	})
	if err != nil {
		return "", err
	}
	if len(translations) == 0 {
		return "", errors.New("no translation returned")
	}
	return translations[0].Text, nil
}

func (t *CloudTranslator) Shutdown() error {
	return t.client.Close()
}
