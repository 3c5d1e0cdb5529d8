package vibeapi

import "strings"

// ChartType is the chart-type override sent with a recommend request.
type ChartType string

const (
	ChartAuto         ChartType = "Auto"
	ChartTrend        ChartType = "Trend"
	ChartComparison   ChartType = "Comparison"
	ChartDistribution ChartType = "Distribution"
	ChartCorrelation  ChartType = "Correlation"
	ChartComposition  ChartType = "Composition"
	ChartRanking      ChartType = "Ranking"
	ChartGeospatial   ChartType = "Geospatial"
)

// ChartTypes lists every override in the order the prompt form offers them.
var ChartTypes = []ChartType{
	ChartAuto,
	ChartTrend,
	ChartComparison,
	ChartDistribution,
	ChartCorrelation,
	ChartComposition,
	ChartRanking,
	ChartGeospatial,
}

// ParseChartType matches case-insensitively. An empty value means Auto.
func ParseChartType(s string) (ChartType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ChartAuto, nil
	}
	for _, t := range ChartTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "chart_type", Message: "unknown chart type " + s}
}

func (t ChartType) Valid() bool {
	for _, c := range ChartTypes {
		if c == t {
			return true
		}
	}
	return false
}
