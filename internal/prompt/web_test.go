package prompt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebTranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "vi", q.Get("sl"))
		assert.Equal(t, "en", q.Get("tl"))
		assert.Equal(t, "một con mèo. ngồi trên tường", q.Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[["a cat. ","một con mèo. ",null,null,10],["sitting on a wall","ngồi trên tường",null,null,10]],null,"vi"]`))
	}))
	defer server.Close()

	out, err := NewWebTranslator(server.URL).Translate(context.Background(), "một con mèo. ngồi trên tường", "vi", "en")
	require.NoError(t, err)
	assert.Equal(t, "a cat. sitting on a wall", out)
}

func TestWebTranslatorHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewWebTranslator(server.URL).Translate(context.Background(), "xin chào", "vi", "en")
	assert.ErrorContains(t, err, "429")
}

func TestParseWebTranslation(t *testing.T) {
	_, err := parseWebTranslation([]byte(`{}`))
	assert.Error(t, err)

	_, err = parseWebTranslation([]byte(`[]`))
	assert.Error(t, err)

	_, err = parseWebTranslation([]byte(`[null]`))
	assert.Error(t, err)

	out, err := parseWebTranslation([]byte(`[[["hello",null]]]`))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
