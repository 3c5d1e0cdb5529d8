package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibez-studio/internal/dto"
	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/repository/memory"
	"vibez-studio/internal/service"
	"vibez-studio/pkg/chartspec"
	"vibez-studio/pkg/vibeapi"
)

type stubChartAPI struct {
	recommendErr error
}

func (a *stubChartAPI) Upload(ctx context.Context, filename string, content io.Reader) (*vibeapi.UploadResponse, error) {
	_, _ = io.Copy(io.Discard, content)
	return &vibeapi.UploadResponse{FileID: "f1", Filename: filename, Summary: vibeapi.DatasetSummary{RowCount: 3}}, nil
}

func (a *stubChartAPI) Recommend(ctx context.Context, req vibeapi.RecommendRequest) (*vibeapi.RecommendResponse, error) {
	if a.recommendErr != nil {
		return nil, a.recommendErr
	}
	spec, err := chartspec.FromJSON([]byte(`{"library":"plotly","data":[{"x":[1,2]}],"layout":{}}`))
	if err != nil {
		return nil, err
	}
	return &vibeapi.RecommendResponse{Vibe: "trend", Rationale: req.Goal, ChartSpec: spec}, nil
}

func (a *stubChartAPI) FetchInsights(ctx context.Context, handle string) (*vibeapi.InsightBundle, error) {
	return &vibeapi.InsightBundle{FileID: handle}, nil
}

func (a *stubChartAPI) Ask(ctx context.Context, handle, question string) (*vibeapi.Answer, error) {
	return &vibeapi.Answer{Question: question, Answer: "3 rows", Success: true}, nil
}

func (a *stubChartAPI) Preview(ctx context.Context, req vibeapi.PreviewRequest) (*vibeapi.PreviewResponse, error) {
	return &vibeapi.PreviewResponse{Library: "plotly"}, nil
}

func (a *stubChartAPI) SubmitFeedback(ctx context.Context, fb vibeapi.Feedback) (*vibeapi.FeedbackReceipt, error) {
	return &vibeapi.FeedbackReceipt{Prompt: fb.Prompt, Predicted: fb.PredictedVibe, CorrectedTo: fb.CorrectVibe}, nil
}

// asUser stands in for the JWT middleware.
func asUser(id string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", id)
		ctx.Locals("token_id", "jti-"+id)
		ctx.Locals("token_exp", time.Unix(2000000000, 0))
		return ctx.Next()
	}
}

func newWorkspaceApp(api *stubChartAPI) *fiber.App {
	svc := service.NewWorkspaceService(api, memory.NewWorkspaceRepository(time.Hour, nil), nil, nil, logger.NewNopLogger())
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	NewWorkspaceController(svc, asUser("alice")).RegisterRoutes(app.Group("/api"))
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	body, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(body, &env)
	return resp.StatusCode, env
}

func jsonRequest(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write([]byte(content))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workspace/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestWorkspaceRoutesFlow(t *testing.T) {
	app := newWorkspaceApp(&stubChartAPI{})

	code, env := do(t, app, uploadRequest(t, "sales.csv", "a,b\n1,2\n"))
	require.Equal(t, fiber.StatusOK, code)
	var up vibeapi.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &up))
	assert.Equal(t, "f1", up.FileID)

	code, env = do(t, app, jsonRequest(http.MethodPost, "/api/workspace/v1/recommend", dto.RecommendRequest{Goal: "sales over time", ChartType: "trend"}))
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, env.Success)

	code, env = do(t, app, httptest.NewRequest(http.MethodGet, "/api/workspace/v1/view", nil))
	require.Equal(t, fiber.StatusOK, code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "chart", view["panel"])
	assert.Equal(t, true, view["can_reset"])

	code, _ = do(t, app, jsonRequest(http.MethodPost, "/api/workspace/v1/ask", dto.AskRequest{Question: "how many rows?"}))
	require.Equal(t, fiber.StatusOK, code)

	code, env = do(t, app, httptest.NewRequest(http.MethodDelete, "/api/workspace/v1/history", nil))
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Empty(t, view["history"])

	code, env = do(t, app, httptest.NewRequest(http.MethodPost, "/api/workspace/v1/reset", nil))
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "welcome", view["panel"])
	assert.NotNil(t, view["dataset"])
}

func TestWorkspaceRoutesValidation(t *testing.T) {
	app := newWorkspaceApp(&stubChartAPI{})

	tests := []struct {
		name string
		req  *http.Request
		msg  string
	}{
		{"blank goal", jsonRequest(http.MethodPost, "/api/workspace/v1/recommend", dto.RecommendRequest{}), "goal is required"},
		{"unknown chart type", jsonRequest(http.MethodPost, "/api/workspace/v1/recommend", dto.RecommendRequest{Goal: "g", ChartType: "pie"}), ""},
		{"non-csv upload", uploadRequest(t, "sales.xlsx", "x"), "Only CSV files are allowed"},
		{"feedback without chart", jsonRequest(http.MethodPost, "/api/workspace/v1/feedback", dto.FeedbackRequest{CorrectVibe: "trend"}), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, app, tt.req)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.False(t, env.Success)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, env.Message)
			}
		})
	}
}

func TestRecommendFailureMapsTo422(t *testing.T) {
	app := newWorkspaceApp(&stubChartAPI{recommendErr: &vibeapi.RecommendationError{StatusCode: 500, Message: "No numeric columns found"}})

	code, env := do(t, app, jsonRequest(http.MethodPost, "/api/workspace/v1/recommend", dto.RecommendRequest{Goal: "g"}))
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "No numeric columns found", env.Message)
}

func TestChartDownload(t *testing.T) {
	app := newWorkspaceApp(&stubChartAPI{})

	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/workspace/v1/chart/download", nil))
	assert.Equal(t, fiber.StatusBadRequest, code, "nothing to download yet")

	code, _ = do(t, app, jsonRequest(http.MethodPost, "/api/workspace/v1/recommend", dto.RecommendRequest{Goal: "g", ChartType: "trend"}))
	require.Equal(t, fiber.StatusOK, code)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/workspace/v1/chart/download", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="chart-trend-spec.json"`, resp.Header.Get(fiber.HeaderContentDisposition))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, json.Valid(body))
}

type fakeAuthService struct {
	service.IAuthService
	loggedOut []string
}

func (f *fakeAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Password != "hunter22" {
		return nil, serverutils.Unauthorized("invalid credentials")
	}
	return &dto.LoginResponse{AccessToken: "tok", User: dto.UserProfileResponse{Email: req.Email}}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	f.loggedOut = append(f.loggedOut, userID+"/"+tokenID)
	return nil
}

func (f *fakeAuthService) GoogleLoginURL(state string) (string, error) {
	return "https://accounts.example.com/auth?state=" + state, nil
}

func newAuthApp(svc service.IAuthService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	NewAuthController(svc, asUser("u1"), "http://localhost:5173").RegisterRoutes(app.Group("/api"))
	return app
}

func TestAuthRoutes(t *testing.T) {
	svc := &fakeAuthService{}
	app := newAuthApp(svc)

	code, env := do(t, app, jsonRequest(http.MethodPost, "/api/auth/v1/login", dto.LoginRequest{Email: "a@b.co", Password: "hunter22"}))
	require.Equal(t, fiber.StatusOK, code)
	var res dto.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "tok", res.AccessToken)

	code, env = do(t, app, jsonRequest(http.MethodPost, "/api/auth/v1/login", dto.LoginRequest{Email: "a@b.co", Password: "nope!!"}))
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", env.Message)

	code, env = do(t, app, jsonRequest(http.MethodPost, "/api/auth/v1/signup", dto.SignupRequest{Email: "a@b.co", Password: "123", FullName: "A"}))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "password must be at least 6 characters", env.Message)

	code, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/api/auth/v1/logout", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []string{"u1/jti-u1"}, svc.loggedOut)
}

func TestGoogleLoginSetsStateCookie(t *testing.T) {
	app := newAuthApp(&fakeAuthService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/v1/google", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	var state string
	for _, c := range resp.Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)
	assert.True(t, strings.HasSuffix(resp.Header.Get("Location"), "state="+state))

	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/auth/v1/google/callback?code=x&state=forged", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
}
