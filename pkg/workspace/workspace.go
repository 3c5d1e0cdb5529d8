package workspace

import (
	"context"
	"errors"
	"io"
	"sync"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/chartspec"
	"vibez-studio/pkg/vibeapi"
)

// UploadFailedNotice is the inline notice left after a failed upload.
const UploadFailedNotice = "Upload failed. Please try again."

// Workspace composes the recommendation controller, the upload/insights
// orchestrator and the Q&A history. The three never talk to each other; the
// workspace is the only place their state meets.
type Workspace struct {
	api API
	log logger.ILogger

	recs *Controller
	data *Orchestrator
	qa   *History

	mu        sync.Mutex
	chartType vibeapi.ChartType
	notice    string
	uploading int

	// notifyMu serialises view publication so versions reach listeners in order.
	notifyMu  sync.Mutex
	version   uint64
	listeners []func(View)
}

func New(api API, log logger.ILogger) *Workspace {
	w := &Workspace{
		api:       api,
		log:       log,
		chartType: vibeapi.ChartAuto,
	}
	w.recs = NewController(api, log, w.publish)
	w.data = NewOrchestrator(api, log, w.publish)
	w.qa = NewHistory(api, log, w.publish)
	return w
}

// OnChange registers a listener called with a fresh View after every state
// change. Listeners run synchronously and must not call back into the
// workspace.
func (w *Workspace) OnChange(fn func(View)) {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Upload validates and sends a CSV file, then hands the result to the
// orchestrator. Failures leave the previous dataset in place and set an
// inline notice.
func (w *Workspace) Upload(ctx context.Context, filename string, content io.Reader) (*vibeapi.UploadResponse, error) {
	if err := vibeapi.ValidateCSVName(filename); err != nil {
		var verr *vibeapi.ValidationError
		if errors.As(err, &verr) {
			w.setNotice(verr.Message)
		}
		return nil, err
	}

	w.mu.Lock()
	w.uploading++
	w.mu.Unlock()
	w.publish()

	up, err := w.api.Upload(ctx, filename, content)

	w.mu.Lock()
	w.uploading--
	if err == nil {
		w.notice = ""
	} else {
		w.notice = UploadFailedNotice
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Error("Workspace", "Upload failed", map[string]interface{}{
			"filename": filename,
			"error":    err.Error(),
		})
		w.publish()
		return nil, err
	}

	w.log.Info("Workspace", "Dataset uploaded", map[string]interface{}{
		"handle":   up.FileID,
		"filename": up.Filename,
		"rows":     up.Summary.RowCount,
	})
	w.data.Attach(ctx, up)
	return up, nil
}

// SubmitPrompt asks for a chart for goal against the active dataset, or the
// server's sample data when nothing has been uploaded.
func (w *Workspace) SubmitPrompt(ctx context.Context, goal string, chartType vibeapi.ChartType) (*vibeapi.RecommendResponse, error) {
	if chartType == "" {
		chartType = vibeapi.ChartAuto
	}
	if chartType.Valid() {
		w.mu.Lock()
		w.chartType = chartType
		w.mu.Unlock()
	}
	return w.recs.Submit(ctx, Submission{
		Goal:      goal,
		ChartType: chartType,
		Handle:    w.data.Handle(),
	})
}

// SelectAutoChart turns a suggested prompt from the insights panel into a
// recommendation with the Auto override.
func (w *Workspace) SelectAutoChart(ctx context.Context, prompt string) (*vibeapi.RecommendResponse, error) {
	return w.SubmitPrompt(ctx, prompt, vibeapi.ChartAuto)
}

// Reset forgets the last chart. The dataset, its summary and its insights
// are kept.
func (w *Workspace) Reset() {
	w.recs.Reset()
}

func (w *Workspace) Ask(ctx context.Context, question string) (QARecord, error) {
	return w.qa.Ask(ctx, w.data.Handle(), question)
}

func (w *Workspace) ClearHistory() {
	w.qa.Clear()
}

// SubmitFeedback corrects the vibe of the chart currently shown.
func (w *Workspace) SubmitFeedback(ctx context.Context, correctVibe string) (*vibeapi.FeedbackReceipt, error) {
	res := w.recs.State().Result
	if res == nil || res.Response == nil {
		return nil, &vibeapi.ValidationError{Field: "feedback", Message: "there is no chart to give feedback on"}
	}
	return w.api.SubmitFeedback(ctx, vibeapi.Feedback{
		Prompt:        res.Submission.Goal,
		PredictedVibe: res.Response.Vibe,
		CorrectVibe:   correctVibe,
	})
}

// Preview renders an explicit column selection against the active dataset.
func (w *Workspace) Preview(ctx context.Context, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error) {
	if req.FileID == "" {
		req.FileID = w.data.Handle()
	}
	return w.api.Preview(ctx, req)
}

// ChartDownload returns the file name and content for saving the current
// chart spec.
func (w *Workspace) ChartDownload() (string, []byte, error) {
	res := w.recs.State().Result
	if res == nil || res.Response == nil || res.Response.ChartSpec == nil {
		return "", nil, &vibeapi.ValidationError{Field: "chart", Message: "there is no chart to download"}
	}
	data, err := res.Response.ChartSpec.Download()
	if err != nil {
		return "", nil, err
	}
	return chartspec.FileName(res.Response.Vibe), data, nil
}

func (w *Workspace) View() View {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	v := w.build()
	v.Version = w.version
	return v
}

func (w *Workspace) Recommendation() RecommendationState {
	return w.recs.State()
}

func (w *Workspace) Dataset() DatasetState {
	return w.data.Snapshot()
}

// Wait blocks until background insights fetches have finished.
func (w *Workspace) Wait() {
	w.data.Wait()
}

func (w *Workspace) setNotice(msg string) {
	w.mu.Lock()
	w.notice = msg
	w.mu.Unlock()
	w.publish()
}

func (w *Workspace) build() View {
	w.mu.Lock()
	chartType, notice, uploading := w.chartType, w.notice, w.uploading > 0
	w.mu.Unlock()

	return Reconcile(ViewInput{
		Recommendation: w.recs.State(),
		Dataset:        w.data.Snapshot(),
		History:        w.qa.Latest(),
		Asking:         w.qa.Pending(),
		Uploading:      uploading,
		ChartType:      chartType,
		Notice:         notice,
	})
}

func (w *Workspace) publish() {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	if len(w.listeners) == 0 {
		return
	}
	w.version++
	v := w.build()
	v.Version = w.version
	for _, fn := range w.listeners {
		fn(v)
	}
}
