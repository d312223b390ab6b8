package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmorgan81/text2image/internal/generate"
	"github.com/dmorgan81/text2image/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	req    generate.Request
	res    generate.Result
	err    error
	loaded bool
}

func (f *fakeGenerator) Generate(_ context.Context, req generate.Request) (generate.Result, error) {
	f.req = req
	return f.res, f.err
}

func (f *fakeGenerator) Loaded() bool {
	return f.loaded
}

type fakeFeed struct {
	out []byte
	err error
}

func (f fakeFeed) Generate(context.Context) ([]byte, error) {
	return f.out, f.err
}

func newTestServer(g Generator, feed FeedGenerator) http.Handler {
	gin.SetMode(gin.TestMode)
	return NewServer(":0", 0, false, log.New(io.Discard, nil), NewHandler(g, feed)).Handler()
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestText2Image(t *testing.T) {
	g := &fakeGenerator{res: generate.Result{Image: "iVBORw0KGgo="}}
	rec := serve(t, newTestServer(g, nil), http.MethodPost, "/text2image", `{"prompt":"a cat sitting on a wall"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a cat sitting on a wall", g.req.Prompt)
	assert.JSONEq(t, `{"image":"iVBORw0KGgo="}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestText2ImageMalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `{"prompt":5}`} {
		rec := serve(t, newTestServer(&fakeGenerator{}, nil), http.MethodPost, "/text2image", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestText2ImageErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: empty", generate.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: not found", generate.ErrModelUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", generate.ErrTranslation), http.StatusBadGateway},
		{fmt.Errorf("%w: out of memory", generate.ErrGeneration), http.StatusInternalServerError},
		{fmt.Errorf("waiting: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err, status := tt.err, tt.status
		rec := serve(t, newTestServer(&fakeGenerator{err: err}, nil), http.MethodPost, "/text2image", `{"prompt":"x"}`)
		assert.Equal(t, status, rec.Code, err.Error())

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, err.Error(), body.Error)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	g := &fakeGenerator{}
	h := newTestServer(g, nil)

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodGet, "/readyz", "").Code)

	g.loaded = true
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/readyz", "").Code)
}

func TestFeed(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(t, newTestServer(&fakeGenerator{}, nil), http.MethodGet, "/feed.xml", "").Code)

	rec := serve(t, newTestServer(&fakeGenerator{}, fakeFeed{out: []byte("<rss/>")}), http.MethodGet, "/feed.xml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<rss/>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")

	rec = serve(t, newTestServer(&fakeGenerator{}, fakeFeed{err: errors.New("s3 down")}), http.MethodGet, "/feed.xml", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&fakeGenerator{}, nil)
	serve(t, h, http.MethodGet, "/healthz", "")

	rec := serve(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "text2image_requests_total")
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/text2image", nil)
	req.Header.Set("Origin", "https://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Request-Id")
	rec := httptest.NewRecorder()
	newTestServer(&fakeGenerator{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToUpper(rec.Header().Get("Access-Control-Allow-Methods")), http.MethodPost)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSSimpleRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://frontend.test")
	rec := httptest.NewRecorder()
	newTestServer(&fakeGenerator{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")), "x-request-id")
}
