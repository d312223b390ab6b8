package image

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmorgan81/text2image/internal/log"
	"github.com/go-resty/resty/v2"
)

type workerError struct {
	Error string `json:"error"`
}

type createPipelineResponse struct {
	PipelineID string `json:"pipeline_id"`
}

type imagesRequest struct {
	Prompt             string `json:"prompt"`
	NumImagesPerPrompt int    `json:"num_images_per_prompt"`
}

// WorkerLoader builds pipelines inside a diffusers runtime reached over HTTP.
// The runtime owns the accelerator; this process owns the pipeline id.
type WorkerLoader struct {
	client *resty.Client
}

func NewWorkerLoader(baseURL string) *WorkerLoader {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "text2image/1.0")
	return &WorkerLoader{client}
}

func (l *WorkerLoader) Load(ctx context.Context, spec Spec) (Pipeline, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("worker").With("spec", spec)
	log.Info("loading pipeline")

	if strings.TrimSpace(spec.BaseModel) == "" {
		return nil, errors.New("base model id is empty")
	}

	var (
		created createPipelineResponse
		failed  workerError
	)
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(spec).
		SetResult(&created).
		SetError(&failed).
		Post("/v1/pipelines")
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create pipeline (status %d): %s", resp.StatusCode(), errorMessage(failed, resp))
	}
	if created.PipelineID == "" {
		return nil, errors.New("create pipeline: runtime returned no pipeline id")
	}

	log.Info("loaded pipeline", "pipeline", created.PipelineID)
	return &workerPipeline{client: l.client, id: created.PipelineID}, nil
}

type workerPipeline struct {
	client *resty.Client
	id     string
}

func (p *workerPipeline) Generate(ctx context.Context, prompt string) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("worker").With("pipeline", p.id)
	log.Info("generating image")

	var failed workerError
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png").
		SetBody(imagesRequest{Prompt: prompt, NumImagesPerPrompt: 1}).
		SetError(&failed).
		Post("/v1/pipelines/" + url.PathEscape(p.id) + "/images")
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("generate image (status %d): %s", resp.StatusCode(), errorMessage(failed, resp))
	}

	log.Info("received image", "bytes", len(resp.Body()))
	return resp.Body(), nil
}

func errorMessage(e workerError, resp *resty.Response) string {
	if e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(resp.String())
}
