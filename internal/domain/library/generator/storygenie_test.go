package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"storygenie/internal/domain/story"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var luna = story.Request{Character: "Luna", Category: "Space Story", AgeGroup: "Kids", Language: story.Hindi}

func TestGenerateSendsRequestBody(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"story":"Once upon a time, Luna flew to the moon."}`))
	}))
	defer srv.Close()

	text, err := NewStoryGenie(srv.URL, time.Second).Generate(context.Background(), luna)
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time, Luna flew to the moon.", text)
	assert.Equal(t, map[string]string{
		"character": "Luna",
		"storyType": "Space Story",
		"ageGroup":  "Kids",
		"language":  "Hindi",
	}, got)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing story field", http.StatusOK, `{"message":"quota"}`},
		{"empty story", http.StatusOK, `{"story":""}`},
		{"whitespace story", http.StatusOK, `{"story":"   "}`},
		{"null story", http.StatusOK, `{"story":null}`},
		{"malformed json", http.StatusOK, `{"story":`},
		{"html body", http.StatusOK, `<html>oops</html>`},
		{"server error", http.StatusInternalServerError, `{"story":"partial"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			text, err := NewStoryGenie(srv.URL, time.Second).Generate(context.Background(), luna)
			assert.Empty(t, text)
			assert.True(t, errors.Is(err, story.ErrFetch), "got %v", err)
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewStoryGenie(srv.URL, 50*time.Millisecond).Generate(context.Background(), luna)
	assert.Equal(t, story.FetchError, story.KindOf(err))
}

func TestGenerateCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"story":"never read"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStoryGenie(srv.URL, time.Second).Generate(ctx, luna)
	assert.True(t, errors.Is(err, story.ErrFetch))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewStoryGenie(url, time.Second).Generate(context.Background(), luna)
	assert.True(t, errors.Is(err, story.ErrFetch))
}

func TestNewStoryGenieDefaults(t *testing.T) {
	g := NewStoryGenie("", 0)
	assert.Equal(t, DefaultEndpoint, g.endpoint)
	assert.Equal(t, DefaultTimeout, g.httpClient.Timeout)
}
