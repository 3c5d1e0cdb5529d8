package workspace

import (
	"vibez-studio/pkg/chartspec"
	"vibez-studio/pkg/vibeapi"
)

// Panel is what the main canvas shows. Exactly one applies at a time.
type Panel string

const (
	PanelWelcome Panel = "welcome"
	PanelLoading Panel = "loading"
	PanelError   Panel = "error"
	PanelChart   Panel = "chart"
)

type InsightsPanel string

const (
	InsightsHidden  InsightsPanel = "hidden"
	InsightsLoading InsightsPanel = "loading"
	InsightsReady   InsightsPanel = "ready"
)

type DatasetView struct {
	Handle   string                 `json:"handle"`
	Filename string                 `json:"filename"`
	Summary  vibeapi.DatasetSummary `json:"summary"`
}

type ChartView struct {
	Vibe        string              `json:"vibe"`
	Goal        string              `json:"goal"`
	Renderer    chartspec.Renderer  `json:"renderer"`
	HasData     bool                `json:"has_data"`
	Constraints vibeapi.Constraints `json:"constraints"`
	Rationale   string              `json:"rationale,omitempty"`
	Spec        *chartspec.Spec     `json:"spec,omitempty"`
}

// View is the reconciled screen state of a workspace. Version increases with
// every published view so consumers can drop snapshots that arrive late.
type View struct {
	Version       uint64                 `json:"version"`
	Dataset       *DatasetView           `json:"dataset,omitempty"`
	Uploading     bool                   `json:"uploading"`
	InsightsPanel InsightsPanel          `json:"insights_panel"`
	Insights      *vibeapi.InsightBundle `json:"insights,omitempty"`
	Panel         Panel                  `json:"panel"`
	Loading       bool                   `json:"loading"`
	Error         string                 `json:"error,omitempty"`
	Chart         *ChartView             `json:"chart,omitempty"`
	ChartType     vibeapi.ChartType      `json:"chart_type"`
	History       []QARecord             `json:"history"`
	Asking        bool                   `json:"asking"`
	Notice        string                 `json:"notice,omitempty"`
	CanReset      bool                   `json:"can_reset"`
}

// ViewInput gathers the independently owned pieces of state a View is built
// from.
type ViewInput struct {
	Recommendation RecommendationState
	Dataset        DatasetState
	History        []QARecord
	Asking         bool
	Uploading      bool
	ChartType      vibeapi.ChartType
	Notice         string
}

// Reconcile builds a View. Panel priority is loading, error, chart, welcome;
// History is expected newest first.
func Reconcile(in ViewInput) View {
	v := View{
		Uploading: in.Uploading,
		Loading:   in.Recommendation.Loading,
		Error:     in.Recommendation.Error,
		ChartType: in.ChartType,
		History:   in.History,
		Asking:    in.Asking,
		Notice:    in.Notice,
		CanReset:  in.Recommendation.Result != nil,
	}
	if v.ChartType == "" {
		v.ChartType = vibeapi.ChartAuto
	}
	if v.History == nil {
		v.History = []QARecord{}
	}

	if in.Dataset.Handle != "" {
		ds := &DatasetView{Handle: in.Dataset.Handle, Filename: in.Dataset.Filename}
		if in.Dataset.Summary != nil {
			ds.Summary = *in.Dataset.Summary
		}
		v.Dataset = ds
	}

	switch {
	case in.Dataset.InsightsLoading:
		v.InsightsPanel = InsightsLoading
	case in.Dataset.Insights != nil:
		v.InsightsPanel = InsightsReady
		v.Insights = in.Dataset.Insights
	default:
		v.InsightsPanel = InsightsHidden
	}

	res := in.Recommendation.Result
	switch {
	case in.Recommendation.Loading:
		v.Panel = PanelLoading
	case in.Recommendation.Error != "":
		v.Panel = PanelError
	case res != nil && res.Response != nil:
		v.Panel = PanelChart
		spec := res.Response.ChartSpec
		v.Chart = &ChartView{
			Vibe:        res.Response.Vibe,
			Goal:        res.Submission.Goal,
			Renderer:    spec.Renderer(),
			HasData:     spec.HasData(),
			Constraints: res.Response.Constraints,
			Rationale:   res.Response.Rationale,
			Spec:        spec,
		}
	default:
		v.Panel = PanelWelcome
	}

	return v
}
