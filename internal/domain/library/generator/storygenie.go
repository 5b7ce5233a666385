package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"storygenie/internal/domain/story"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://storygenie-backend.onrender.com/api/generate-story"
	DefaultTimeout  = 20 * time.Second

	maxResponseBytes = 1 << 20
)

// StoryGenie calls the story generation backend
type StoryGenie struct {
	endpoint   string
	httpClient *http.Client
}

type generateRequest struct {
	Character string `json:"character"`
	StoryType string `json:"storyType"`
	AgeGroup  string `json:"ageGroup"`
	Language  string `json:"language"`
}

type generateResponse struct {
	Story *string `json:"story"`
}

// NewStoryGenie creates a client for endpoint. A zero timeout uses DefaultTimeout.
func NewStoryGenie(endpoint string, timeout time.Duration) *StoryGenie {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &StoryGenie{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *StoryGenie) Generate(ctx context.Context, req story.Request) (string, error) {
	text, err := g.generate(ctx, req)
	if err != nil {
		logrus.WithError(err).WithField("endpoint", g.endpoint).Warn("Story generation failed")
		return "", story.NewFailure(story.FetchError, "generate story", err)
	}
	return text, nil
}

func (g *StoryGenie) generate(ctx context.Context, req story.Request) (string, error) {
	body, err := json.Marshal(generateRequest{
		Character: req.Character,
		StoryType: req.Category,
		AgeGroup:  req.AgeGroup,
		Language:  string(req.Language),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach story service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("story service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if parsed.Story == nil {
		return "", fmt.Errorf("response has no story field")
	}
	if strings.TrimSpace(*parsed.Story) == "" {
		return "", fmt.Errorf("response story is empty")
	}

	logrus.WithFields(logrus.Fields{
		"character": req.Character,
		"language":  req.Language,
		"length":    len(*parsed.Story),
	}).Debug("Fetched story")

	return *parsed.Story, nil
}
