package vibeapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports a client-side precondition failure. Requests that
// fail validation are never sent to the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError covers unreachable servers, non-success statuses and bodies
// that could not be decoded.
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("vibeapi %s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("vibeapi %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("vibeapi %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// RecommendationError is returned when the server understood a recommend
// request but reported why it could not satisfy it. Message is meant for the
// user as-is.
type RecommendationError struct {
	StatusCode int
	Message    string
}

func (e *RecommendationError) Error() string {
	return e.Message
}

// parseDetail extracts the FastAPI style "detail" field. It is either a plain
// string or a list of objects carrying "msg".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
