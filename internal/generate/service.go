package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/text2image/internal/archive"
	"github.com/dmorgan81/text2image/internal/image"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/dmorgan81/text2image/internal/metrics"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"
)

type Request struct {
	Prompt string `json:"prompt"`
}

type Result struct {
	Image string `json:"image"`
}

type Normalizer interface {
	Normalize(ctx context.Context, prompt string) (string, error)
}

type Archiver interface {
	Archive(ctx context.Context, entry archive.Entry) error
}

// Service owns one model handle, created on first use and kept for the
// lifetime of the Service.
type Service struct {
	loader     image.Loader
	spec       image.Spec
	normalizer Normalizer
	archiver   Archiver
	slots      *semaphore.Weighted

	mu      sync.Mutex
	handle  *image.Handle
	loadErr error
}

// NewService returns a Service whose generations hold one of concurrency
// accelerator slots while the model runs.
func NewService(loader image.Loader, spec image.Spec, normalizer Normalizer, archiver Archiver, concurrency int64) *Service {
	if archiver == nil {
		archiver = archive.Discard{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		loader:     loader,
		spec:       spec,
		normalizer: normalizer,
		archiver:   archiver,
		slots:      semaphore.NewWeighted(concurrency),
	}
}

// EnsureModelLoaded constructs the model on the first call and returns the
// cached handle afterwards. A failed construction is cached as well.
func (s *Service) EnsureModelLoaded(ctx context.Context) (*image.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("service").With("model", s.spec.BaseModel, "lora", s.spec.LoRAWeights)
	log.Info("loading model")

	// The handle outlives the request that happens to trigger the load.
	pipeline, err := s.loader.Load(context.WithoutCancel(ctx), s.spec)
	if err != nil {
		metrics.RecordModelLoad("error")
		log.Error("model load failed", "error", err)
		s.loadErr = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		return nil, s.loadErr
	}

	metrics.RecordModelLoad("success")
	log.Info("model loaded")
	s.handle = &image.Handle{Pipeline: pipeline, Spec: s.spec, LoadedAt: time.Now()}
	return s.handle, nil
}

// Loaded reports whether the model handle exists. It never triggers a load.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Prompt)
	if text == "" {
		return Result{}, fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("service")
	log.Info("processing request", "prompt", text)

	handle, err := s.EnsureModelLoaded(ctx)
	if err != nil {
		return Result{}, err
	}

	normalized, err := s.normalizer.Normalize(ctx, req.Prompt)
	if err != nil {
		if errors.Is(err, ErrTranslation) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	png, err := s.synthesize(ctx, handle, normalized)
	if err != nil {
		return Result{}, err
	}

	entry := archive.Entry{
		ID:               ulid.Make().String(),
		Prompt:           text,
		NormalizedPrompt: normalized,
		Model:            handle.Spec.BaseModel,
		LoRA:             handle.Spec.LoRAWeights,
		Created:          time.Now(),
		PNG:              png,
	}
	if err := s.archiver.Archive(ctx, entry); err != nil {
		log.Warn("archiving generation failed", "id", entry.ID, "error", err)
	}

	return Result{Image: image.EncodeBase64(png)}, nil
}

func (s *Service) synthesize(ctx context.Context, handle *image.Handle, prompt string) ([]byte, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.slots.Release(1)

	start := time.Now()
	data, err := handle.Generate(ctx, prompt)
	if err == nil {
		data, err = image.EncodePNG(data)
	}
	if err != nil {
		metrics.RecordGeneration("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	metrics.RecordGeneration("success", time.Since(start).Seconds())
	return data, nil
}
