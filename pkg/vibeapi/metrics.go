package vibeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MetricKind tags the variant held by a MetricValue.
type MetricKind int

const (
	MetricNull MetricKind = iota
	MetricNumber
	MetricText
	MetricBool
	MetricList
)

// MetricValue is one entry of an insight's metrics mapping. The server sends
// numbers, strings, booleans or short lists; anything else is kept as text.
type MetricValue struct {
	Kind   MetricKind
	Number float64
	Text   string
	Bool   bool
	List   []MetricValue
}

func (v *MetricValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = MetricValue{Kind: MetricNull}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = MetricValue{Kind: MetricText, Text: s}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = MetricValue{Kind: MetricBool, Bool: b}
	case '[':
		var items []MetricValue
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = MetricValue{Kind: MetricList, List: items}
	case '{':
		*v = MetricValue{Kind: MetricText, Text: string(data)}
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("metric value %s: %w", data, err)
		}
		*v = MetricValue{Kind: MetricNumber, Number: n}
	}
	return nil
}

func (v MetricValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetricNumber:
		return json.Marshal(v.Number)
	case MetricText:
		return json.Marshal(v.Text)
	case MetricBool:
		return json.Marshal(v.Bool)
	case MetricList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// String renders the value for display.
func (v MetricValue) String() string {
	switch v.Kind {
	case MetricNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case MetricText:
		return v.Text
	case MetricBool:
		if v.Bool {
			return "yes"
		}
		return "no"
	case MetricList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	default:
		return "-"
	}
}

// Metrics maps a metric name to its value.
type Metrics map[string]MetricValue

// SortedKeys returns metric names in a stable order for rendering.
func (m Metrics) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
