package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerLoader(t *testing.T) {
	png := testPNG(t)
	var loaded Spec

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pipelines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&loaded))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"pipeline_id":"p-1"}`))
	})
	mux.HandleFunc("/v1/pipelines/p-1/images", func(w http.ResponseWriter, r *http.Request) {
		var req imagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a cat sitting on a wall", req.Prompt)
		assert.Equal(t, 1, req.NumImagesPerPrompt)
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	spec := Spec{
		BaseModel:   "stabilityai/stable-diffusion-xl-base-1.0",
		LoRAWeights: "user/pixel-art-lora",
		DType:       "float16",
		Variant:     "fp16",
		Device:      "cuda",
	}
	pipeline, err := NewWorkerLoader(server.URL+"/").Load(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, spec, loaded)

	out, err := pipeline.Generate(context.Background(), "a cat sitting on a wall")
	require.NoError(t, err)
	assert.Equal(t, png, out)
}

func TestWorkerLoaderLoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found: nope/nope"}`))
	}))
	defer server.Close()

	_, err := NewWorkerLoader(server.URL).Load(context.Background(), Spec{BaseModel: "nope/nope"})
	assert.ErrorContains(t, err, "model not found")
	assert.ErrorContains(t, err, "404")
}

func TestWorkerLoaderEmptyModel(t *testing.T) {
	_, err := NewWorkerLoader("http://127.0.0.1:0").Load(context.Background(), Spec{})
	assert.Error(t, err)
}

func TestWorkerPipelineFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := &workerPipeline{client: NewWorkerLoader(server.URL).client, id: "p-1"}
	_, err := p.Generate(context.Background(), "a cat")
	assert.ErrorContains(t, err, "CUDA out of memory")
}
