package app

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/auth"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

// AvatarPathPrefix is where uploaded avatars are served from.
const AvatarPathPrefix = "/v1/users/avatar/"

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) (domain.User, error)
}

type AvatarStore interface {
	SaveAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (string, error)
	OpenAvatar(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

type TokenIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type UserService struct {
	users   UserStore
	avatars AvatarStore
	tokens  TokenIssuer
	logger  observability.Logger
}

func NewUserService(users UserStore, avatars AvatarStore, tokens TokenIssuer, logger observability.Logger) *UserService {
	return &UserService{users: users, avatars: avatars, tokens: tokens, logger: logger}
}

// Login reports unknown emails and wrong passwords the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, errors.Wrap(domain.ErrInvalidInput, "email and password are required")
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, errors.Wrap(domain.ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, errors.Wrap(err, "invalid email or password")
	}
	token, exp, err := s.tokens.Issue(auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *UserService) UploadAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (domain.User, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return domain.User{}, errors.Wrapf(domain.ErrInvalidInput, "avatar must be an image, got %q", contentType)
	}
	fileID, err := s.avatars.SaveAvatar(ctx, userID, filename, contentType, r)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.UpdateAvatar(ctx, userID, AvatarPathPrefix+fileID)
}

func (s *UserService) OpenAvatar(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	return s.avatars.OpenAvatar(ctx, fileID)
}
