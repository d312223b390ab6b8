package image

import (
	"context"
	"time"
)

// Spec describes how a text-to-image pipeline is constructed.
type Spec struct {
	BaseModel   string `json:"model_id"`
	LoRAWeights string `json:"lora_weights,omitempty"`
	DType       string `json:"torch_dtype"`
	Variant     string `json:"variant"`
	Device      string `json:"device"`
}

// Pipeline synthesises one image for a prompt and returns its encoded bytes.
type Pipeline interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Loader constructs a Pipeline. Loading is expensive and callers are
// expected to do it once.
type Loader interface {
	Load(ctx context.Context, spec Spec) (Pipeline, error)
}

// Handle is a loaded pipeline together with the spec it was built from.
type Handle struct {
	Pipeline
	Spec     Spec
	LoadedAt time.Time
}
