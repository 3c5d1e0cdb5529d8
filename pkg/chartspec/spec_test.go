package chartspec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Renderer
	}{
		{name: "plotly tag", payload: `{"library":"plotly","data":[]}`, want: RendererPlotly},
		{name: "missing tag defaults to plotly", payload: `{"data":[]}`, want: RendererPlotly},
		{name: "vega lite", payload: `{"library":"Vega-Lite"}`, want: RendererVega},
		{name: "other library", payload: `{"library":"echarts"}`, want: RendererUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromJSON([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Renderer())
		})
	}

	var nilSpec *Spec
	assert.Equal(t, RendererUnknown, nilSpec.Renderer())
}

func TestHasData(t *testing.T) {
	withData, _ := FromJSON([]byte(`{"data":[{"x":[1,2]}]}`))
	nullData, _ := FromJSON([]byte(`{"data":null}`))
	noData, _ := FromJSON([]byte(`{"layout":{}}`))

	assert.True(t, withData.HasData())
	assert.False(t, nullData.HasData())
	assert.False(t, noData.HasData())
}

func TestUnknownFieldsArePassedThrough(t *testing.T) {
	payload := `{"library":"plotly","data":[],"layout":{"title":"x"},"config":{"responsive":true}}`

	var s Spec
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	out, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))

	wrapped, err := json.Marshal(struct {
		Spec *Spec `json:"chart_spec"`
	}{Spec: &s})
	require.NoError(t, err)
	assert.Contains(t, string(wrapped), `"config":{"responsive":true}`)
}

func TestDownload(t *testing.T) {
	s, err := FromJSON([]byte(`{"library":"plotly","data":[1]}`))
	require.NoError(t, err)

	data, err := s.Download()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"library\": \"plotly\",\n  \"data\": [\n    1\n  ]\n}", string(data))

	assert.Equal(t, "chart-trend-spec.json", FileName("trend"))
	assert.Equal(t, "chart-chart-spec.json", FileName(" "))

	var nilSpec *Spec
	_, err = nilSpec.Download()
	assert.Error(t, err)
}
