package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
)

// FallbackRecommendationError is shown when a failed recommend call carries
// no message from the server.
const FallbackRecommendationError = "Failed to get recommendation"

// ErrSuperseded reports that a recommendation resolved after a newer submit
// or a reset, so it was not applied to the workspace.
var ErrSuperseded = errors.New("recommendation superseded by a newer request")

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseInFlight Phase = "in_flight"
	PhaseResolved Phase = "resolved"
	PhaseFailed   Phase = "failed"
)

type Submission struct {
	Goal      string            `json:"goal"`
	ChartType vibeapi.ChartType `json:"chart_type"`
	Handle    string            `json:"handle,omitempty"`
}

// Recommendation is a resolved recommend call together with the submission
// that produced it.
type Recommendation struct {
	Submission Submission                 `json:"submission"`
	Response   *vibeapi.RecommendResponse `json:"response"`
}

type RecommendationState struct {
	Phase   Phase           `json:"phase"`
	Loading bool            `json:"loading"`
	Result  *Recommendation `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SubmitError carries the display message of a failed submission. The same
// message is stored in the controller state.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Controller owns the lifecycle of chart recommendations.
//
// Every Submit takes a generation token. Only the resolution carrying the
// latest token is applied; Reset also advances the token so that responses
// still in flight are dropped when they land.
type Controller struct {
	api    Recommender
	log    logger.ILogger
	notify func()

	mu         sync.Mutex
	state      RecommendationState
	generation uint64
}

func NewController(api Recommender, log logger.ILogger, notify func()) *Controller {
	if notify == nil {
		notify = func() {}
	}
	return &Controller{
		api:    api,
		log:    log,
		notify: notify,
		state:  RecommendationState{Phase: PhaseIdle},
	}
}

// Submit blocks until the recommend call resolves. A blank goal is rejected
// without leaving the current state. On failure the display message is both
// stored and returned as a *SubmitError.
func (c *Controller) Submit(ctx context.Context, s Submission) (*vibeapi.RecommendResponse, error) {
	s.Goal = strings.TrimSpace(s.Goal)
	if s.Goal == "" {
		return nil, &vibeapi.ValidationError{Field: "goal", Message: "goal must not be blank"}
	}
	if s.ChartType == "" {
		s.ChartType = vibeapi.ChartAuto
	}
	if !s.ChartType.Valid() {
		return nil, &vibeapi.ValidationError{Field: "chart_type", Message: "unknown chart type " + string(s.ChartType)}
	}

	c.mu.Lock()
	c.generation++
	token := c.generation
	c.state.Phase = PhaseInFlight
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()
	c.notify()

	resp, err := c.api.Recommend(ctx, vibeapi.RecommendRequest{
		Goal:      s.Goal,
		ChartType: s.ChartType,
		FileID:    s.Handle,
	})

	c.mu.Lock()
	if token != c.generation {
		c.mu.Unlock()
		c.log.Debug("Recommendation", "Discarding superseded recommendation", map[string]interface{}{
			"goal":  s.Goal,
			"token": token,
		})
		if err != nil {
			return nil, &SubmitError{Message: displayMessage(err), Err: err}
		}
		return resp, nil
	}

	if err != nil {
		msg := displayMessage(err)
		c.state = RecommendationState{Phase: PhaseFailed, Error: msg}
		c.mu.Unlock()
		c.log.Error("Recommendation", "Recommendation failed", map[string]interface{}{
			"goal":  s.Goal,
			"error": err.Error(),
		})
		c.notify()
		return nil, &SubmitError{Message: msg, Err: err}
	}

	c.state = RecommendationState{
		Phase:  PhaseResolved,
		Result: &Recommendation{Submission: s, Response: resp},
	}
	c.mu.Unlock()
	c.log.Info("Recommendation", "Recommendation resolved", map[string]interface{}{
		"goal": s.Goal,
		"vibe": resp.Vibe,
	})
	c.notify()
	return resp, nil
}

// Reset returns to idle from any state. It does not cancel a request already
// on the wire; its response is discarded on arrival.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.state = RecommendationState{Phase: PhaseIdle}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) State() RecommendationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func displayMessage(err error) string {
	var rerr *vibeapi.RecommendationError
	if errors.As(err, &rerr) && strings.TrimSpace(rerr.Message) != "" {
		return rerr.Message
	}
	return FallbackRecommendationError
}
