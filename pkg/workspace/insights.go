package workspace

import (
	"context"
	"sync"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
)

// DatasetState is the active dataset and whatever has been derived from it so
// far. Insights stay nil until the fetch for this exact handle resolves.
type DatasetState struct {
	Handle          string                  `json:"handle,omitempty"`
	Filename        string                  `json:"filename,omitempty"`
	Summary         *vibeapi.DatasetSummary `json:"summary,omitempty"`
	Insights        *vibeapi.InsightBundle  `json:"insights,omitempty"`
	InsightsLoading bool                    `json:"insights_loading"`
}

// Orchestrator runs the two phases that follow a successful upload: the
// dataset is published at once, then insights are fetched in the background.
//
// Each insights fetch is tagged with the handle and attach epoch it was
// issued for; a result that no longer matches the active dataset is dropped.
type Orchestrator struct {
	api    InsightsFetcher
	log    logger.ILogger
	notify func()

	mu    sync.Mutex
	state DatasetState
	epoch uint64

	wg sync.WaitGroup
}

func NewOrchestrator(api InsightsFetcher, log logger.ILogger, notify func()) *Orchestrator {
	if notify == nil {
		notify = func() {}
	}
	return &Orchestrator{api: api, log: log, notify: notify}
}

// Attach makes up the active dataset. It returns once the dataset is
// observable; the insights fetch keeps running on its own and outlives ctx's
// cancellation.
func (o *Orchestrator) Attach(ctx context.Context, up *vibeapi.UploadResponse) {
	summary := up.Summary

	o.mu.Lock()
	o.epoch++
	epoch := o.epoch
	o.state = DatasetState{
		Handle:   up.FileID,
		Filename: up.Filename,
		Summary:  &summary,
	}
	o.mu.Unlock()
	o.notify()

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return
	}
	o.state.InsightsLoading = true
	o.wg.Add(1)
	o.mu.Unlock()
	o.notify()

	go o.fetch(context.WithoutCancel(ctx), up.FileID, epoch)
}

func (o *Orchestrator) fetch(ctx context.Context, handle string, epoch uint64) {
	defer o.wg.Done()

	bundle, err := o.api.FetchInsights(ctx, handle)

	o.mu.Lock()
	if o.epoch != epoch || o.state.Handle != handle {
		o.mu.Unlock()
		o.log.Debug("Insights", "Discarding insights for superseded dataset", map[string]interface{}{
			"handle": handle,
		})
		return
	}
	o.state.InsightsLoading = false
	if err == nil {
		o.state.Insights = bundle
	}
	o.mu.Unlock()

	if err != nil {
		o.log.Warn("Insights", "Failed to fetch insights", map[string]interface{}{
			"handle": handle,
			"error":  err.Error(),
		})
	}
	o.notify()
}

// Wait blocks until every insights fetch started so far has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) Snapshot() DatasetState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Handle() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Handle
}
