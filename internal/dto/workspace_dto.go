package dto

type RecommendRequest struct {
	Goal      string `json:"goal" validate:"required"`
	ChartType string `json:"chart_type"`
}

type AutoChartRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

type FeedbackRequest struct {
	CorrectVibe string `json:"correct_vibe" validate:"required"`
}

type PreviewRequest struct {
	Vibe     string                 `json:"vibe" validate:"required"`
	XCol     string                 `json:"x_col"`
	YCol     string                 `json:"y_col"`
	GroupCol string                 `json:"group_col"`
	Options  map[string]interface{} `json:"options"`
}
