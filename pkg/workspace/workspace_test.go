package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
)

type viewRecorder struct {
	mu    sync.Mutex
	views []View
}

func (r *viewRecorder) record(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *viewRecorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func newTestWorkspace(api *fakeAPI) (*Workspace, *viewRecorder) {
	w := New(api, logger.NewNopLogger())
	rec := &viewRecorder{}
	w.OnChange(rec.record)
	return w, rec
}

func TestUploadThenAutoChart(t *testing.T) {
	g := newGate()
	api := &fakeAPI{
		uploadFn: func(filename string) (*vibeapi.UploadResponse, error) {
			return upload("f1", 100), nil
		},
		insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
			g.wait()
			return &vibeapi.InsightBundle{
				FileID: handle,
				AutoCharts: []vibeapi.AutoChart{
					{Title: "Sales over time", Type: "trend", Prompt: "show sales trends over time"},
				},
			}, nil
		},
	}
	w, _ := newTestWorkspace(api)

	_, err := w.Upload(context.Background(), "sales.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	<-g.entered

	v := w.View()
	require.NotNil(t, v.Dataset)
	assert.Equal(t, "f1", v.Dataset.Handle)
	assert.Equal(t, vibeapi.DatasetSummary{RowCount: 100, NumericColumnCount: 3, CategoricalColumnCount: 2}, v.Dataset.Summary)
	assert.Equal(t, InsightsLoading, v.InsightsPanel)

	close(g.release)
	w.Wait()

	v = w.View()
	require.Equal(t, InsightsReady, v.InsightsPanel)
	prompt := v.Insights.AutoCharts[0].Prompt

	_, err = w.SelectAutoChart(context.Background(), prompt)
	require.NoError(t, err)

	assert.Equal(t, []vibeapi.RecommendRequest{
		{Goal: "show sales trends over time", ChartType: vibeapi.ChartAuto, FileID: "f1"},
	}, api.recommendRequests())

	v = w.View()
	assert.Equal(t, PanelChart, v.Panel)
	assert.Equal(t, "show sales trends over time", v.Chart.Goal)
}

func TestSubmitWithoutDatasetOmitsHandle(t *testing.T) {
	api := &fakeAPI{}
	w, _ := newTestWorkspace(api)

	_, err := w.SubmitPrompt(context.Background(), "compare regions", vibeapi.ChartComparison)
	require.NoError(t, err)

	reqs := api.recommendRequests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].FileID)
	assert.Equal(t, vibeapi.ChartComparison, w.View().ChartType)
}

func TestResetKeepsDataset(t *testing.T) {
	api := &fakeAPI{uploadFn: func(filename string) (*vibeapi.UploadResponse, error) {
		return upload("f1", 100), nil
	}}
	w, _ := newTestWorkspace(api)

	_, err := w.Upload(context.Background(), "data.csv", strings.NewReader(""))
	require.NoError(t, err)
	w.Wait()
	_, err = w.SubmitPrompt(context.Background(), "g", vibeapi.ChartAuto)
	require.NoError(t, err)
	require.True(t, w.View().CanReset)

	w.Reset()

	v := w.View()
	assert.Equal(t, PanelWelcome, v.Panel)
	assert.False(t, v.CanReset)
	require.NotNil(t, v.Dataset)
	assert.Equal(t, "f1", v.Dataset.Handle)
	assert.Equal(t, InsightsReady, v.InsightsPanel)
}

func TestUploadRejectsNonCSV(t *testing.T) {
	api := &fakeAPI{}
	w, _ := newTestWorkspace(api)

	_, err := w.Upload(context.Background(), "report.xlsx", strings.NewReader(""))

	var verr *vibeapi.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.uploads)
	assert.Equal(t, "Only CSV files are allowed", w.View().Notice)
}

func TestUploadFailureKeepsPreviousDataset(t *testing.T) {
	calls := 0
	api := &fakeAPI{uploadFn: func(filename string) (*vibeapi.UploadResponse, error) {
		calls++
		if calls == 1 {
			return upload("f1", 100), nil
		}
		return nil, &vibeapi.TransportError{Op: "upload", StatusCode: 500, Detail: "disk full"}
	}}
	w, _ := newTestWorkspace(api)

	_, err := w.Upload(context.Background(), "a.csv", strings.NewReader(""))
	require.NoError(t, err)
	w.Wait()

	_, err = w.Upload(context.Background(), "b.csv", strings.NewReader(""))
	require.Error(t, err)

	v := w.View()
	assert.Equal(t, UploadFailedNotice, v.Notice)
	assert.False(t, v.Uploading)
	require.NotNil(t, v.Dataset)
	assert.Equal(t, "f1", v.Dataset.Handle)
	assert.Equal(t, []string{"f1"}, api.insightHandles())
}

func TestFailedRecommendationView(t *testing.T) {
	api := &fakeAPI{recommendFn: func(ctx context.Context, req vibeapi.RecommendRequest) (*vibeapi.RecommendResponse, error) {
		return nil, &vibeapi.RecommendationError{StatusCode: 500, Message: "No numeric columns found"}
	}}
	w, _ := newTestWorkspace(api)

	_, err := w.SubmitPrompt(context.Background(), "g", "")
	var serr *SubmitError
	require.ErrorAs(t, err, &serr)

	v := w.View()
	assert.Equal(t, PanelError, v.Panel)
	assert.Equal(t, "No numeric columns found", v.Error)
	assert.Nil(t, v.Chart)
}

func TestViewVersionsIncrease(t *testing.T) {
	api := &fakeAPI{uploadFn: func(filename string) (*vibeapi.UploadResponse, error) {
		return upload("f1", 100), nil
	}}
	w, rec := newTestWorkspace(api)

	_, err := w.Upload(context.Background(), "a.csv", strings.NewReader(""))
	require.NoError(t, err)
	w.Wait()
	_, err = w.SubmitPrompt(context.Background(), "g", vibeapi.ChartTrend)
	require.NoError(t, err)
	_, err = w.Ask(context.Background(), "how many rows?")
	require.NoError(t, err)

	views := rec.all()
	require.NotEmpty(t, views)
	for i := 1; i < len(views); i++ {
		assert.Greater(t, views[i].Version, views[i-1].Version)
	}
	last := views[len(views)-1]
	assert.Equal(t, last.Version, w.View().Version)
	require.Len(t, last.History, 1)
	assert.Equal(t, "42", last.History[0].Answer)
}

func TestSubmitFeedbackUsesCurrentChart(t *testing.T) {
	api := &fakeAPI{}
	w, _ := newTestWorkspace(api)

	_, err := w.SubmitFeedback(context.Background(), "comparison")
	var verr *vibeapi.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = w.SubmitPrompt(context.Background(), "sales by region", vibeapi.ChartAuto)
	require.NoError(t, err)

	receipt, err := w.SubmitFeedback(context.Background(), "comparison")
	require.NoError(t, err)
	assert.Equal(t, "comparison", receipt.CorrectedTo)
	assert.Equal(t, []vibeapi.Feedback{{Prompt: "sales by region", PredictedVibe: "trend", CorrectVibe: "comparison"}}, api.feedbackCalls)
}

func TestChartDownload(t *testing.T) {
	w, _ := newTestWorkspace(&fakeAPI{})

	_, _, err := w.ChartDownload()
	require.Error(t, err)

	_, err = w.SubmitPrompt(context.Background(), "g", vibeapi.ChartAuto)
	require.NoError(t, err)

	name, data, err := w.ChartDownload()
	require.NoError(t, err)
	assert.Equal(t, "chart-trend-spec.json", name)
	assert.Contains(t, string(data), `"library": "plotly"`)
}

func TestPreviewDefaultsToActiveDataset(t *testing.T) {
	api := &fakeAPI{uploadFn: func(filename string) (*vibeapi.UploadResponse, error) {
		return upload("f1", 1), nil
	}}
	w, _ := newTestWorkspace(api)
	_, err := w.Upload(context.Background(), "a.csv", strings.NewReader(""))
	require.NoError(t, err)
	w.Wait()

	_, err = w.Preview(context.Background(), vibeapi.PreviewRequest{Vibe: "trend", XCol: "date", YCol: "sales"})
	require.NoError(t, err)
	require.Len(t, api.previewCalls, 1)
	assert.Equal(t, "f1", api.previewCalls[0].FileID)
}

func TestAskWithoutDataset(t *testing.T) {
	w, _ := newTestWorkspace(&fakeAPI{})
	_, err := w.Ask(context.Background(), "anything?")
	assert.True(t, errors.As(err, new(*vibeapi.ValidationError)))
	assert.Empty(t, w.View().History)
}
