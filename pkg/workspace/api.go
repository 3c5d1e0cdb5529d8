// Package workspace is the client-side orchestration layer for one user's
// charting session: it sequences uploads, insight fetches, recommendations
// and questions against the chart API, and reconciles their asynchronous
// results into a single View.
package workspace

import (
	"context"
	"io"

	"vibez-studio/pkg/vibeapi"
)

type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*vibeapi.UploadResponse, error)
}

type Recommender interface {
	Recommend(ctx context.Context, req vibeapi.RecommendRequest) (*vibeapi.RecommendResponse, error)
}

type InsightsFetcher interface {
	FetchInsights(ctx context.Context, handle string) (*vibeapi.InsightBundle, error)
}

type Asker interface {
	Ask(ctx context.Context, handle, question string) (*vibeapi.Answer, error)
}

// API is everything a Workspace needs from the chart API. *vibeapi.Client
// satisfies it.
type API interface {
	Uploader
	Recommender
	InsightsFetcher
	Asker
	Preview(ctx context.Context, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error)
	SubmitFeedback(ctx context.Context, fb vibeapi.Feedback) (*vibeapi.FeedbackReceipt, error)
}

var _ API = (*vibeapi.Client)(nil)
