package generator

import (
	"context"
	"storygenie/internal/domain/story"
)

// StoryGenerator produces story text for a request. Implementations return
// a *story.Failure of kind FetchError on any failure, never an empty story.
type StoryGenerator interface {
	Generate(ctx context.Context, req story.Request) (string, error)
}
