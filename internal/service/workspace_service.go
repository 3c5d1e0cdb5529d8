package service

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync/atomic"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/repository/memory"
	"vibez-studio/pkg/events"
	"vibez-studio/pkg/vibeapi"
	"vibez-studio/pkg/workspace"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ViewTopic carries every published workspace view on the in-process bus.
const ViewTopic = "workspace.views"

// Metadata keys set on view messages.
const (
	MetaUserID  = "user_id"
	MetaSession = "session"
	MetaVersion = "version"
)

// EventPublisher sends domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IWorkspaceService interface {
	View(userID string) workspace.View
	Upload(ctx context.Context, userID, filename string, content io.Reader) (*vibeapi.UploadResponse, error)
	Recommend(ctx context.Context, userID, goal, chartType string) (*vibeapi.RecommendResponse, error)
	AutoChart(ctx context.Context, userID, prompt string) (*vibeapi.RecommendResponse, error)
	Reset(userID string) workspace.View
	Ask(ctx context.Context, userID, question string) (workspace.QARecord, error)
	ClearHistory(userID string) workspace.View
	Feedback(ctx context.Context, userID, correctVibe string) (*vibeapi.FeedbackReceipt, error)
	Preview(ctx context.Context, userID string, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error)
	ChartDownload(userID string) (string, []byte, error)
	Teardown(userID string)
}

type workspaceService struct {
	api       workspace.API
	repo      *memory.WorkspaceRepository
	bus       message.Publisher
	publisher EventPublisher
	logger    logger.ILogger

	// sessions numbers workspaces in creation order.
	sessions atomic.Uint64
}

// NewWorkspaceService wires per-user workspaces to the chart API. bus and
// publisher may be nil.
func NewWorkspaceService(api workspace.API, repo *memory.WorkspaceRepository, bus message.Publisher, publisher EventPublisher, log logger.ILogger) IWorkspaceService {
	return &workspaceService{
		api:       api,
		repo:      repo,
		bus:       bus,
		publisher: publisher,
		logger:    log,
	}
}

func (s *workspaceService) workspace(userID string) *workspace.Workspace {
	ws, created := s.repo.GetOrCreate(userID, func() *workspace.Workspace {
		ws := workspace.New(s.api, s.logger)
		session := s.sessions.Add(1)
		ws.OnChange(func(v workspace.View) {
			// A torn-down workspace may still finish an insights fetch.
			if !s.repo.Holds(userID, ws) {
				return
			}
			s.forwardView(userID, session, v)
		})
		return ws
	})
	if created {
		s.logger.Info("WorkspaceService", "Workspace created", map[string]interface{}{"user_id": userID})
	}
	return ws
}

func (s *workspaceService) forwardView(userID string, session uint64, v workspace.View) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("WorkspaceService", "Failed to encode view", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaUserID, userID)
	msg.Metadata.Set(MetaSession, strconv.FormatUint(session, 10))
	msg.Metadata.Set(MetaVersion, strconv.FormatUint(v.Version, 10))
	if err := s.bus.Publish(ViewTopic, msg); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to forward view", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *workspaceService) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func (s *workspaceService) View(userID string) workspace.View {
	return s.workspace(userID).View()
}

func (s *workspaceService) Upload(ctx context.Context, userID, filename string, content io.Reader) (*vibeapi.UploadResponse, error) {
	up, err := s.workspace(userID).Upload(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.DatasetUploaded, map[string]interface{}{
		"user_id":  userID,
		"handle":   up.FileID,
		"filename": up.Filename,
		"rows":     up.Summary.RowCount,
	})
	return up, nil
}

func (s *workspaceService) Recommend(ctx context.Context, userID, goal, chartType string) (*vibeapi.RecommendResponse, error) {
	ct, err := vibeapi.ParseChartType(chartType)
	if err != nil {
		return nil, err
	}
	return s.recommend(ctx, userID, goal, func(ws *workspace.Workspace) (*vibeapi.RecommendResponse, error) {
		return ws.SubmitPrompt(ctx, goal, ct)
	})
}

func (s *workspaceService) AutoChart(ctx context.Context, userID, prompt string) (*vibeapi.RecommendResponse, error) {
	return s.recommend(ctx, userID, prompt, func(ws *workspace.Workspace) (*vibeapi.RecommendResponse, error) {
		return ws.SelectAutoChart(ctx, prompt)
	})
}

func (s *workspaceService) recommend(ctx context.Context, userID, goal string, submit func(*workspace.Workspace) (*vibeapi.RecommendResponse, error)) (*vibeapi.RecommendResponse, error) {
	ws := s.workspace(userID)
	resp, err := submit(ws)
	if err != nil {
		return nil, err
	}
	// A resolution that lost to a newer submit or a reset was never applied.
	if rec := ws.Recommendation().Result; rec == nil || rec.Response != resp {
		return nil, workspace.ErrSuperseded
	}
	s.emit(ctx, events.ChartRecommended, map[string]interface{}{
		"user_id": userID,
		"goal":    goal,
		"vibe":    resp.Vibe,
		"handle":  ws.Dataset().Handle,
	})
	return resp, nil
}

func (s *workspaceService) Reset(userID string) workspace.View {
	ws := s.workspace(userID)
	ws.Reset()
	return ws.View()
}

func (s *workspaceService) Ask(ctx context.Context, userID, question string) (workspace.QARecord, error) {
	ws := s.workspace(userID)
	rec, err := ws.Ask(ctx, question)
	if err != nil {
		return rec, err
	}
	s.emit(ctx, events.QuestionAsked, map[string]interface{}{
		"user_id":  userID,
		"handle":   ws.Dataset().Handle,
		"question": rec.Question,
		"success":  rec.Success,
	})
	return rec, nil
}

func (s *workspaceService) ClearHistory(userID string) workspace.View {
	ws := s.workspace(userID)
	ws.ClearHistory()
	return ws.View()
}

func (s *workspaceService) Feedback(ctx context.Context, userID, correctVibe string) (*vibeapi.FeedbackReceipt, error) {
	return s.workspace(userID).SubmitFeedback(ctx, correctVibe)
}

func (s *workspaceService) Preview(ctx context.Context, userID string, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error) {
	return s.workspace(userID).Preview(ctx, req)
}

func (s *workspaceService) ChartDownload(userID string) (string, []byte, error) {
	return s.workspace(userID).ChartDownload()
}

// Teardown drops the user's workspace. A later request starts a fresh one.
func (s *workspaceService) Teardown(userID string) {
	s.repo.Delete(userID)
}
