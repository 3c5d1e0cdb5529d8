package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"vibez-studio/internal/model"
	"vibez-studio/internal/repository/specification"
	"vibez-studio/pkg/events"
	"vibez-studio/pkg/vibeapi"

	"github.com/google/uuid"
)

type chartAPI struct {
	mu       sync.Mutex
	requests []vibeapi.RecommendRequest
	failWith error
	// hold blocks Recommend for a goal until its channel is closed.
	hold map[string]chan struct{}
}

func (a *chartAPI) Upload(ctx context.Context, filename string, content io.Reader) (*vibeapi.UploadResponse, error) {
	return &vibeapi.UploadResponse{FileID: "f1", Filename: filename, Summary: vibeapi.DatasetSummary{RowCount: 100}}, nil
}

func (a *chartAPI) Recommend(ctx context.Context, req vibeapi.RecommendRequest) (*vibeapi.RecommendResponse, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	err := a.failWith
	gate := a.hold[req.Goal]
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &vibeapi.RecommendResponse{Vibe: "trend", Rationale: req.Goal}, nil
}

func (a *chartAPI) FetchInsights(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
	return &vibeapi.InsightBundle{FileID: handle}, nil
}

func (a *chartAPI) Ask(ctx context.Context, handle, question string) (*vibeapi.Answer, error) {
	return &vibeapi.Answer{Question: question, Answer: "100 rows", Success: true}, nil
}

func (a *chartAPI) Preview(ctx context.Context, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error) {
	return &vibeapi.PreviewResponse{Library: "plotly"}, nil
}

func (a *chartAPI) SubmitFeedback(ctx context.Context, fb vibeapi.Feedback) (*vibeapi.FeedbackReceipt, error) {
	return &vibeapi.FeedbackReceipt{Prompt: fb.Prompt, Predicted: fb.PredictedVibe, CorrectedTo: fb.CorrectVibe}, nil
}

func (a *chartAPI) recommendRequests() []vibeapi.RecommendRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]vibeapi.RecommendRequest(nil), a.requests...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// userStore is an in-memory UserRepository that understands the
// specifications the auth service uses.
type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newUserStore() *userStore {
	return &userStore{users: make(map[uuid.UUID]*model.User)}
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.Id] = &cp
	return nil
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.Id] = &cp
	return nil
}

func (s *userStore) FindOne(ctx context.Context, specs ...specification.Specification) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if matches(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *userStore) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func matches(u *model.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByEmail:
			if u.Email != sp.Email {
				return false
			}
		case specification.ByID:
			if u.Id != sp.ID {
				return false
			}
		case specification.ByProvider:
			if u.Provider != sp.Provider || u.ProviderId == nil || *u.ProviderId != sp.ProviderID {
				return false
			}
		default:
			return false
		}
	}
	return true
}

type revokeCall struct {
	tokenID   string
	expiresAt time.Time
}

type fakeRevoker struct {
	calls []revokeCall
}

func (r *fakeRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.calls = append(r.calls, revokeCall{tokenID, expiresAt})
	return nil
}

type fakeCloser struct {
	closed []string
}

func (c *fakeCloser) Teardown(userID string) {
	c.closed = append(c.closed, userID)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) SendWelcome(toEmail, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
