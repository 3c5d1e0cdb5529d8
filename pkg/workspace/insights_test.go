package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
)

func upload(handle string, rows int) *vibeapi.UploadResponse {
	return &vibeapi.UploadResponse{
		FileID:   handle,
		Filename: handle + ".csv",
		Summary: vibeapi.DatasetSummary{
			RowCount:               rows,
			NumericColumnCount:     3,
			CategoricalColumnCount: 2,
		},
	}
}

func TestAttachPublishesSummaryBeforeInsights(t *testing.T) {
	g := newGate()
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		g.wait()
		return &vibeapi.InsightBundle{FileID: handle, Recommendations: []string{"look at revenue"}}, nil
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	o.Attach(context.Background(), upload("f1", 100))
	<-g.entered

	st := o.Snapshot()
	assert.Equal(t, "f1", st.Handle)
	require.NotNil(t, st.Summary)
	assert.Equal(t, vibeapi.DatasetSummary{RowCount: 100, NumericColumnCount: 3, CategoricalColumnCount: 2}, *st.Summary)
	assert.True(t, st.InsightsLoading)
	assert.Nil(t, st.Insights)

	close(g.release)
	o.Wait()

	st = o.Snapshot()
	assert.False(t, st.InsightsLoading)
	require.NotNil(t, st.Insights)
	assert.Equal(t, "f1", st.Insights.FileID)
	assert.Equal(t, []string{"f1"}, api.insightHandles())
}

func TestAttachOutlivesCallerContext(t *testing.T) {
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &vibeapi.InsightBundle{FileID: handle}, nil
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	o.Attach(ctx, upload("f1", 10))
	cancel()
	o.Wait()

	require.NotNil(t, o.Snapshot().Insights)
}

func TestStaleInsightsAreNeverApplied(t *testing.T) {
	gates := map[string]*gate{"A": newGate(), "B": newGate()}
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		gates[handle].wait()
		return &vibeapi.InsightBundle{FileID: handle}, nil
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	o.Attach(context.Background(), upload("A", 10))
	<-gates["A"].entered
	o.Attach(context.Background(), upload("B", 20))
	<-gates["B"].entered

	close(gates["B"].release)
	close(gates["A"].release)
	o.Wait()

	st := o.Snapshot()
	assert.Equal(t, "B", st.Handle)
	assert.Equal(t, 20, st.Summary.RowCount)
	require.NotNil(t, st.Insights)
	assert.Equal(t, "B", st.Insights.FileID)
	assert.False(t, st.InsightsLoading)
}

func TestStaleInsightsDoNotClearLoading(t *testing.T) {
	gates := map[string]*gate{"A": newGate(), "B": newGate()}
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		gates[handle].wait()
		return &vibeapi.InsightBundle{FileID: handle}, nil
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	o.Attach(context.Background(), upload("A", 10))
	<-gates["A"].entered
	o.Attach(context.Background(), upload("B", 20))
	<-gates["B"].entered

	close(gates["A"].release)
	// A's fetch may still be running; the snapshot must reflect B either way.
	st := o.Snapshot()
	assert.Equal(t, "B", st.Handle)
	assert.True(t, st.InsightsLoading)
	assert.Nil(t, st.Insights)

	close(gates["B"].release)
	o.Wait()
	assert.Equal(t, "B", o.Snapshot().Insights.FileID)
}

func TestFailedInsightsKeepDataset(t *testing.T) {
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		return nil, &vibeapi.TransportError{Op: "insights", StatusCode: 404, Detail: "File not found"}
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	o.Attach(context.Background(), upload("f1", 100))
	o.Wait()

	st := o.Snapshot()
	assert.Equal(t, "f1", st.Handle)
	require.NotNil(t, st.Summary)
	assert.Equal(t, 100, st.Summary.RowCount)
	assert.False(t, st.InsightsLoading)
	assert.Nil(t, st.Insights)
}

func TestNewUploadClearsPreviousInsights(t *testing.T) {
	calls := 0
	api := &fakeAPI{insightsFn: func(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("boom")
		}
		return &vibeapi.InsightBundle{FileID: handle}, nil
	}}
	o := NewOrchestrator(api, logger.NewNopLogger(), nil)

	o.Attach(context.Background(), upload("A", 1))
	o.Wait()
	require.NotNil(t, o.Snapshot().Insights)

	o.Attach(context.Background(), upload("B", 2))
	o.Wait()

	st := o.Snapshot()
	assert.Equal(t, "B", st.Handle)
	assert.Nil(t, st.Insights)
}
