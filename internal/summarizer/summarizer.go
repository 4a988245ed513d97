package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Text is the tag-stripped article excerpt.
	Text string
	// Title helps the model when the excerpt is short.
	Title string
	// SourceURL is optional metadata that helps the model reference the origin.
	SourceURL string
}

// Summarizer produces a single summary for a given article excerpt.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
