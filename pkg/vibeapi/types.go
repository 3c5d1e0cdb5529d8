package vibeapi

import (
	"encoding/json"

	"vibez-studio/pkg/chartspec"
)

// --- Upload ---

type Column struct {
	Name         string            `json:"name"`
	Dtype        string            `json:"dtype"`
	SampleValues []json.RawMessage `json:"sample_values,omitempty"`
}

// DatasetSummary is computed by the server at upload time and never changes
// for a given handle.
type DatasetSummary struct {
	RowCount               int      `json:"num_rows"`
	NumericColumnCount     int      `json:"num_numeric"`
	CategoricalColumnCount int      `json:"num_categorical"`
	HasTemporalColumn      bool     `json:"has_date"`
	DateColumn             *string  `json:"date_col,omitempty"`
	TimeGranularity        *string  `json:"time_granularity,omitempty"`
	MaxCardinality         *int     `json:"max_cardinality,omitempty"`
	Columns                []Column `json:"columns,omitempty"`
}

type UploadResponse struct {
	FileID   string         `json:"file_id"`
	Filename string         `json:"filename"`
	Summary  DatasetSummary `json:"summary"`
}

// --- Recommend ---

type RecommendRequest struct {
	Goal      string    `json:"goal"`
	ChartType ChartType `json:"insight"`
	FileID    string    `json:"file_id,omitempty"`
}

type Constraints struct {
	Palette   string `json:"palette"`
	Axis      string `json:"axis"`
	Labeling  string `json:"labeling"`
	Rationale string `json:"rationale"`
}

type RecommendResponse struct {
	Vibe        string          `json:"vibe"`
	Constraints Constraints     `json:"constraints"`
	Rationale   string          `json:"rationale"`
	ChartSpec   *chartspec.Spec `json:"chart_spec"`
}

// --- Insights ---

type Insight struct {
	Category       string  `json:"category"`
	Icon           string  `json:"icon,omitempty"`
	Title          string  `json:"title"`
	Metrics        Metrics `json:"metrics"`
	Summary        string  `json:"summary"`
	Recommendation string  `json:"recommendation"`
}

type AutoChart struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

// InsightBundle is derived from a dataset after upload. AIStory and
// AISuggestions are only present when the server's storyteller is enabled.
type InsightBundle struct {
	FileID          string          `json:"file_id"`
	Insights        []Insight       `json:"insights"`
	Recommendations []string        `json:"recommendations"`
	AutoCharts      []AutoChart     `json:"auto_charts"`
	Statistics      json.RawMessage `json:"statistics,omitempty"`
	AIStory         *string         `json:"ai_story,omitempty"`
	AISuggestions   []string        `json:"ai_suggestions,omitempty"`
}

// --- Ask ---

type askRequest struct {
	FileID   string `json:"file_id"`
	Question string `json:"question"`
}

// Answer carries Success=false when the server could not answer; that is
// not an error.
type Answer struct {
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	Success     bool            `json:"success"`
	DataSummary json.RawMessage `json:"data_summary,omitempty"`
}

// --- Preview ---

type PreviewRequest struct {
	FileID   string         `json:"file_id,omitempty"`
	Vibe     string         `json:"vibe"`
	XCol     string         `json:"x_col,omitempty"`
	YCol     string         `json:"y_col,omitempty"`
	GroupCol string         `json:"group_col,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type PreviewResponse struct {
	ChartSpec *chartspec.Spec `json:"chart_spec"`
	Library   string          `json:"library"`
}

// --- Feedback / retrain ---

type Feedback struct {
	Prompt        string
	PredictedVibe string
	CorrectVibe   string
}

type FeedbackReceipt struct {
	Message     string `json:"message"`
	Prompt      string `json:"prompt"`
	Predicted   string `json:"predicted"`
	CorrectedTo string `json:"corrected_to"`
}

type RetrainResult struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	NewAccuracy string `json:"new_accuracy,omitempty"`
}

type HealthStatus struct {
	Status string `json:"status"`
}
