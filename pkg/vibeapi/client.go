// Package vibeapi is the typed client for the chart recommendation API.
//
// The client holds no mutable state: it never retries and never caches, so a
// single Client can be shared by any number of goroutines.
package vibeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "vibez-studio/vibeapi"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Operations ---

// Upload sends a CSV file. Only files named *.csv are accepted.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	if err := ValidateCSVName(filename); err != nil {
		return nil, err
	}

	ctx, span := c.start(ctx, "upload", attribute.String("vibeapi.filename", filename))
	defer span.End()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: "upload", Err: fmt.Errorf("create form file: %w", err)})
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, c.fail(span, &TransportError{Op: "upload", Err: fmt.Errorf("read file: %w", err)})
	}
	if err := form.Close(); err != nil {
		return nil, c.fail(span, &TransportError{Op: "upload", Err: fmt.Errorf("close form: %w", err)})
	}

	var out UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, "/api/upload", form.FormDataContentType(), &body, &out); err != nil {
		return nil, c.fail(span, err)
	}
	span.SetAttributes(attribute.String("vibeapi.file_id", out.FileID))
	return &out, nil
}

// Recommend asks for a chart for the given goal. An empty FileID lets the
// server fall back to its built-in sample data.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	req.Goal = strings.TrimSpace(req.Goal)
	if req.Goal == "" {
		return nil, &ValidationError{Field: "goal", Message: "goal must not be blank"}
	}
	if req.ChartType == "" {
		req.ChartType = ChartAuto
	}
	if !req.ChartType.Valid() {
		return nil, &ValidationError{Field: "chart_type", Message: "unknown chart type " + string(req.ChartType)}
	}

	ctx, span := c.start(ctx, "recommend",
		attribute.String("vibeapi.chart_type", string(req.ChartType)),
		attribute.String("vibeapi.file_id", req.FileID),
	)
	defer span.End()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: "recommend", Err: fmt.Errorf("marshal request: %w", err)})
	}

	var out RecommendResponse
	err = c.do(ctx, "recommend", http.MethodPost, "/api/recommend", "application/json", bytes.NewReader(payload), &out)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.Detail != "" {
			err = &RecommendationError{StatusCode: te.StatusCode, Message: te.Detail}
		}
		return nil, c.fail(span, err)
	}
	span.SetAttributes(attribute.String("vibeapi.vibe", out.Vibe))
	return &out, nil
}

// FetchInsights is an idempotent read of the insight bundle for a dataset.
func (c *Client) FetchInsights(ctx context.Context, handle string) (*InsightBundle, error) {
	if err := requireHandle(handle); err != nil {
		return nil, err
	}

	ctx, span := c.start(ctx, "insights", attribute.String("vibeapi.file_id", handle))
	defer span.End()

	var out InsightBundle
	if err := c.do(ctx, "insights", http.MethodGet, "/api/insights/"+url.PathEscape(handle), "", nil, &out); err != nil {
		return nil, c.fail(span, err)
	}
	return &out, nil
}

// Ask poses a natural-language question about a dataset. A server that cannot
// answer replies with Success=false and a nil error.
func (c *Client) Ask(ctx context.Context, handle, question string) (*Answer, error) {
	if err := requireHandle(handle); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &ValidationError{Field: "question", Message: "question must not be blank"}
	}

	ctx, span := c.start(ctx, "ask", attribute.String("vibeapi.file_id", handle))
	defer span.End()

	payload, err := json.Marshal(askRequest{FileID: handle, Question: question})
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: "ask", Err: fmt.Errorf("marshal request: %w", err)})
	}

	var out Answer
	if err := c.do(ctx, "ask", http.MethodPost, "/api/ask", "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, c.fail(span, err)
	}
	span.SetAttributes(attribute.Bool("vibeapi.answer_success", out.Success))
	return &out, nil
}

// Preview renders a chart for an explicit vibe and column selection.
func (c *Client) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	if strings.TrimSpace(req.Vibe) == "" {
		return nil, &ValidationError{Field: "vibe", Message: "vibe must not be blank"}
	}

	ctx, span := c.start(ctx, "preview", attribute.String("vibeapi.vibe", req.Vibe))
	defer span.End()

	if req.Options == nil {
		req.Options = map[string]any{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail(span, &TransportError{Op: "preview", Err: fmt.Errorf("marshal request: %w", err)})
	}

	var out PreviewResponse
	if err := c.do(ctx, "preview", http.MethodPost, "/api/preview", "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, c.fail(span, err)
	}
	return &out, nil
}

// DownloadFile returns the raw CSV previously uploaded under handle.
func (c *Client) DownloadFile(ctx context.Context, handle string) ([]byte, error) {
	if err := requireHandle(handle); err != nil {
		return nil, err
	}

	ctx, span := c.start(ctx, "download", attribute.String("vibeapi.file_id", handle))
	defer span.End()

	var out []byte
	if err := c.do(ctx, "download", http.MethodGet, "/api/files/"+url.PathEscape(handle), "", nil, &out); err != nil {
		return nil, c.fail(span, err)
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, handle string) error {
	if err := requireHandle(handle); err != nil {
		return err
	}

	ctx, span := c.start(ctx, "delete", attribute.String("vibeapi.file_id", handle))
	defer span.End()

	if err := c.do(ctx, "delete", http.MethodDelete, "/api/files/"+url.PathEscape(handle), "", nil, nil); err != nil {
		return c.fail(span, err)
	}
	return nil
}

// SubmitFeedback records a corrected vibe for a prompt. The server reads the
// fields from the query string.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) (*FeedbackReceipt, error) {
	if strings.TrimSpace(fb.Prompt) == "" {
		return nil, &ValidationError{Field: "prompt", Message: "prompt must not be blank"}
	}
	if strings.TrimSpace(fb.CorrectVibe) == "" {
		return nil, &ValidationError{Field: "correct_vibe", Message: "correct vibe must not be blank"}
	}

	ctx, span := c.start(ctx, "feedback",
		attribute.String("vibeapi.predicted_vibe", fb.PredictedVibe),
		attribute.String("vibeapi.correct_vibe", fb.CorrectVibe),
	)
	defer span.End()

	q := url.Values{}
	q.Set("prompt", fb.Prompt)
	q.Set("predicted_vibe", fb.PredictedVibe)
	q.Set("correct_vibe", fb.CorrectVibe)

	var out FeedbackReceipt
	if err := c.do(ctx, "feedback", http.MethodPost, "/api/feedback?"+q.Encode(), "", nil, &out); err != nil {
		return nil, c.fail(span, err)
	}
	return &out, nil
}

func (c *Client) Retrain(ctx context.Context) (*RetrainResult, error) {
	ctx, span := c.start(ctx, "retrain")
	defer span.End()

	var out RetrainResult
	if err := c.do(ctx, "retrain", http.MethodPost, "/api/retrain", "", nil, &out); err != nil {
		return nil, c.fail(span, err)
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, span := c.start(ctx, "health")
	defer span.End()

	var out HealthStatus
	if err := c.do(ctx, "health", http.MethodGet, "/api/health", "", nil, &out); err != nil {
		return nil, c.fail(span, err)
	}
	return &out, nil
}

// --- Helpers ---

// ValidateCSVName enforces the accepted upload type before any I/O happens.
func ValidateCSVName(filename string) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".csv") {
		return &ValidationError{Field: "file", Message: "Only CSV files are allowed"}
	}
	return nil
}

func requireHandle(handle string) error {
	if strings.TrimSpace(handle) == "" {
		return &ValidationError{Field: "file_id", Message: "dataset handle is required"}
	}
	return nil
}

// do performs one request. out may be nil (body discarded), *[]byte (raw body)
// or a pointer to a JSON target.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(respBody)}
	}

	switch target := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*target = respBody
		return nil
	default:
		if err := json.Unmarshal(respBody, target); err != nil {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
		}
		return nil
	}
}

func (c *Client) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "vibeapi."+op, trace.WithAttributes(attrs...))
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
