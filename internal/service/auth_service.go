package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vibez-studio/internal/dto"
	"vibez-studio/internal/model"
	"vibez-studio/internal/pkg/logger"
	"vibez-studio/internal/pkg/mailer"
	"vibez-studio/internal/pkg/serverutils"
	"vibez-studio/internal/repository/contract"
	"vibez-studio/internal/repository/specification"
	"vibez-studio/pkg/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/datatypes"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// TokenRevoker records signed-out tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// WorkspaceCloser drops a user's workspace on sign-out.
type WorkspaceCloser interface {
	Teardown(userID string)
}

type IAuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserProfileResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userID, tokenID string, expiresAt time.Time) error
	Profile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	GoogleLoginURL(state string) (string, error)
	GoogleCallback(ctx context.Context, code string) (*dto.LoginResponse, error)
}

type AuthOptions struct {
	JWTSecret string
	TokenTTL  time.Duration
	Google    *oauth2.Config
}

type authService struct {
	users      contract.UserRepository
	mail       mailer.IEmailService
	revoker    TokenRevoker
	workspaces WorkspaceCloser
	publisher  EventPublisher
	logger     logger.ILogger
	opts       AuthOptions
	now        func() time.Time
}

func NewAuthService(
	users contract.UserRepository,
	mail mailer.IEmailService,
	revoker TokenRevoker,
	workspaces WorkspaceCloser,
	publisher EventPublisher,
	log logger.ILogger,
	opts AuthOptions,
) IAuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &authService{
		users:      users,
		mail:       mail,
		revoker:    revoker,
		workspaces: workspaces,
		publisher:  publisher,
		logger:     log,
		opts:       opts,
		now:        time.Now,
	}
}

// GoogleOAuthConfig builds the oauth2 config for Google sign-in, or nil when
// no client id is set.
func GoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserProfileResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.users.FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, serverutils.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &model.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     strings.TrimSpace(req.FullName),
		Provider:     model.ProviderPassword,
		Metadata:     datatypes.JSONMap{"full_name": strings.TrimSpace(req.FullName)},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User signed up", map[string]interface{}{"user_id": user.Id})
	go func() {
		_ = s.mail.SendWelcome(user.Email, user.FullName)
	}()
	s.emitSignup(ctx, user)

	return toProfile(user), nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, serverutils.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, serverutils.Unauthorized("invalid credentials")
	}

	return s.issue(ctx, user)
}

// Logout revokes the token and drops the user's workspace, including any
// uploaded dataset reference and Q&A history.
func (s *authService) Logout(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.workspaces.Teardown(userID)
	s.logger.Info("AuthService", "User signed out", map[string]interface{}{"user_id": userID})
	return nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, serverutils.Unauthorized("invalid user id")
	}
	user, err := s.users.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, serverutils.Unauthorized("user not found")
	}
	return toProfile(user), nil
}

func (s *authService) GoogleLoginURL(state string) (string, error) {
	if s.opts.Google == nil {
		return "", serverutils.Unauthorized("google sign-in is not configured")
	}
	return s.opts.Google.AuthCodeURL(state), nil
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	if s.opts.Google == nil {
		return nil, serverutils.Unauthorized("google sign-in is not configured")
	}

	token, err := s.opts.Google.Exchange(ctx, code)
	if err != nil {
		return nil, serverutils.Unauthorized("code exchange failed")
	}

	resp, err := s.opts.Google.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if googleUser.Email == "" {
		return nil, serverutils.Unauthorized("google account has no email")
	}

	user, err := s.users.FindOne(ctx, specification.ByProvider{Provider: model.ProviderGoogle, ProviderID: googleUser.ID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.users.FindOne(ctx, specification.ByEmail{Email: strings.ToLower(googleUser.Email)})
		if err != nil {
			return nil, err
		}
	}

	switch {
	case user == nil:
		user = &model.User{
			Id:         uuid.New(),
			Email:      strings.ToLower(googleUser.Email),
			FullName:   googleUser.Name,
			Provider:   model.ProviderGoogle,
			ProviderId: &googleUser.ID,
			AvatarURL:  &googleUser.Picture,
			Metadata:   datatypes.JSONMap{"full_name": googleUser.Name, "google_id": googleUser.ID},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.emitSignup(ctx, user)
	case user.ProviderId == nil:
		user.ProviderId = &googleUser.ID
		if user.AvatarURL == nil && googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.issue(ctx, user)
}

func (s *authService) issue(ctx context.Context, user *model.User) (*dto.LoginResponse, error) {
	expiresAt := s.now().Add(s.opts.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"jti":     uuid.NewString(),
		"iat":     s.now().Unix(),
		"exp":     expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.Id); err != nil {
		s.logger.Warn("AuthService", "Failed to record login", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
	}

	return &dto.LoginResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		User:        *toProfile(user),
	}, nil
}

func (s *authService) emitSignup(ctx context.Context, user *model.User) {
	if s.publisher == nil {
		return
	}
	evt := events.New(events.UserSignedUp, map[string]interface{}{
		"user_id":  user.Id.String(),
		"provider": user.Provider,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("AuthService", "Failed to publish event", map[string]interface{}{"error": err.Error()})
	}
}

func toProfile(user *model.User) *dto.UserProfileResponse {
	res := &dto.UserProfileResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Provider:  user.Provider,
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarURL != nil {
		res.AvatarURL = *user.AvatarURL
	}
	return res
}
