package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
)

// UnansweredMessage is recorded when a question never reached the server.
const UnansweredMessage = "Sorry, the question could not be answered right now."

type QARecord struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Success  bool      `json:"success"`
	AskedAt  time.Time `json:"asked_at"`
}

// History keeps questions and answers in the order they were asked. It lives
// only in memory and is never sent back to the server.
type History struct {
	api    Asker
	log    logger.ILogger
	notify func()
	now    func() time.Time

	mu      sync.Mutex
	entries []QARecord
	pending int
}

func NewHistory(api Asker, log logger.ILogger, notify func()) *History {
	if notify == nil {
		notify = func() {}
	}
	return &History{api: api, log: log, notify: notify, now: time.Now}
}

// Ask appends the outcome of one question. Failures are recorded in-band with
// Success=false; only a missing dataset or blank question is an error, and
// neither is recorded.
func (h *History) Ask(ctx context.Context, handle, question string) (QARecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return QARecord{}, &vibeapi.ValidationError{Field: "question", Message: "question must not be blank"}
	}
	if strings.TrimSpace(handle) == "" {
		return QARecord{}, &vibeapi.ValidationError{Field: "file_id", Message: "upload a dataset before asking questions"}
	}

	h.mu.Lock()
	h.pending++
	h.mu.Unlock()
	h.notify()

	rec := QARecord{Question: question}
	ans, err := h.api.Ask(ctx, handle, question)
	if err != nil {
		h.log.Error("QA", "Question failed", map[string]interface{}{
			"handle": handle,
			"error":  err.Error(),
		})
		rec.Answer = UnansweredMessage
	} else {
		if ans.Question != "" {
			rec.Question = ans.Question
		}
		rec.Answer = ans.Answer
		rec.Success = ans.Success
	}
	rec.AskedAt = h.now()

	h.mu.Lock()
	h.pending--
	h.entries = append(h.entries, rec)
	h.mu.Unlock()
	h.notify()

	return rec, nil
}

// Entries returns the records in insertion order.
func (h *History) Entries() []QARecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]QARecord, len(h.entries))
	copy(out, h.entries)
	return out
}

// Latest returns the records newest first.
func (h *History) Latest() []QARecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]QARecord, len(h.entries))
	for i, rec := range h.entries {
		out[len(h.entries)-1-i] = rec
	}
	return out
}

func (h *History) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending > 0
}

func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
	h.notify()
}
