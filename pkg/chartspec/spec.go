// Package chartspec holds the renderer payload returned with a chart
// recommendation. The payload is opaque: only the renderer tag and the
// presence of data are inspected, everything else is passed through.
package chartspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Renderer string

const (
	RendererPlotly  Renderer = "plotly"
	RendererVega    Renderer = "vega"
	RendererUnknown Renderer = "unknown"
)

type Spec struct {
	Library string          `json:"library,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Layout  json.RawMessage `json:"layout,omitempty"`

	raw json.RawMessage
}

// FromJSON wraps an already encoded payload.
func FromJSON(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = Spec{}
		return nil
	}

	var known struct {
		Library string          `json:"library"`
		Data    json.RawMessage `json:"data"`
		Layout  json.RawMessage `json:"layout"`
	}
	if err := json.Unmarshal(trimmed, &known); err != nil {
		return fmt.Errorf("chart spec: %w", err)
	}

	s.Library = known.Library
	s.Data = known.Data
	s.Layout = known.Layout
	s.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (s Spec) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	type plain Spec
	return json.Marshal(plain(s))
}

// Renderer picks the rendering path. Specs without a tag are plotly specs.
func (s *Spec) Renderer() Renderer {
	if s == nil {
		return RendererUnknown
	}
	switch strings.ToLower(strings.TrimSpace(s.Library)) {
	case "", "plotly":
		return RendererPlotly
	case "vega", "vega-lite", "vegalite":
		return RendererVega
	default:
		return RendererUnknown
	}
}

func (s *Spec) HasData() bool {
	if s == nil {
		return false
	}
	d := bytes.TrimSpace(s.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// FileName is the download name used for a spec of the given vibe.
func FileName(vibe string) string {
	vibe = strings.TrimSpace(vibe)
	if vibe == "" {
		vibe = "chart"
	}
	return fmt.Sprintf("chart-%s-spec.json", vibe)
}

// Download returns the payload as indented JSON, ready to be written to a file.
func (s *Spec) Download() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("chart spec: nothing to download")
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("chart spec: %w", err)
	}
	return out.Bytes(), nil
}
