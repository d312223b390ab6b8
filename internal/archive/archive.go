package archive

import (
	"context"
	"time"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/metrics"
	"github.com/dmorgan81/text2image/internal/page"
	"github.com/dmorgan81/text2image/internal/store"
)

// Entry is one successful generation.
type Entry struct {
	ID               string
	Prompt           string
	NormalizedPrompt string
	Model            string
	LoRA             string
	Created          time.Time
	PNG              []byte
}

func (e Entry) toPageParams() page.Params {
	return page.Params{
		Image:            e.ID + ".png",
		Prompt:           e.Prompt,
		NormalizedPrompt: e.NormalizedPrompt,
		Model:            e.Model,
		LoRA:             e.LoRA,
		Created:          e.Created.UTC().Format(time.RFC3339),
	}
}

func (e Entry) toMetadata() map[string]string {
	return map[string]string{
		"id":                e.ID,
		"prompt":            e.Prompt,
		"normalized_prompt": e.NormalizedPrompt,
		"model":             e.Model,
		"lora":              e.LoRA,
		"created":           e.Created.UTC().Format(time.RFC3339),
	}
}

type Archiver struct {
	uploader    store.Uploader
	invalidator store.Invalidator
	templator   *page.Templator
}

func NewArchiver(uploader store.Uploader, invalidator store.Invalidator, templator *page.Templator) *Archiver {
	if invalidator == nil {
		invalidator = store.NopInvalidator{}
	}
	return &Archiver{uploader, invalidator, templator}
}

// Archive uploads the image and its page, refreshes the latest aliases and
// invalidates every written path.
func (a *Archiver) Archive(ctx context.Context, entry Entry) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("archiver").With("id", entry.ID)
	log.Info("archiving generation")

	html, err := a.templator.Template(ctx, entry.toPageParams())
	if err != nil {
		return err
	}

	metadata := entry.toMetadata()
	uploads := []store.UploadParams{
		{Name: entry.ID + ".png", Data: entry.PNG, ContentType: "image/png", Metadata: metadata},
		{Name: entry.ID + ".html", Data: html, ContentType: "text/html", Metadata: metadata},
		{Name: "latest.png", Data: entry.PNG, ContentType: "image/png", Metadata: metadata},
		{Name: "latest.html", Data: html, ContentType: "text/html", Metadata: metadata},
	}
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		if err := a.uploader.Upload(ctx, u); err != nil {
			metrics.RecordArchiveUpload(u.ContentType, "error")
			return err
		}
		metrics.RecordArchiveUpload(u.ContentType, "success")
		paths = append(paths, "/"+u.Name)
	}

	return a.invalidator.Invalidate(ctx, paths)
}

// Discard is the archive used when archiving is disabled.
type Discard struct{}

func (Discard) Archive(context.Context, Entry) error {
	return nil
}
