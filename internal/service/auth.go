package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scoredeck/scoredeck-server/internal/audit"
	"github.com/scoredeck/scoredeck-server/internal/auth"
	"github.com/scoredeck/scoredeck-server/internal/domain"
	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
	"github.com/scoredeck/scoredeck-server/internal/id"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// AuthService handles account registration and authentication. Session
// lifecycle is delegated to SessionService.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	sessions     *SessionService
	audit        *audit.Log
	logger       *slog.Logger
}

// NewAuthService creates the authentication service. The audit log may
// be nil, in which case no audit entries are recorded.
func NewAuthService(
	st *store.Store,
	tokenService *auth.TokenService,
	sessions *SessionService,
	auditLog *audit.Log,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:        st,
		tokenService: tokenService,
		sessions:     sessions,
		audit:        auditLog,
		logger:       logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
	IPAddress   string `json:"-"` // Extracted from the request by the handler
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=1024"`
	IPAddress string `json:"-"` // Extracted from the request by the handler
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IPAddress    string `json:"-"` // Extracted from the request by the handler
}

// LogoutRequest names the session to revoke, either by its refresh token
// or all of the caller's sessions at once.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	AllDevices   bool   `json:"allDevices"`
}

// AuthResponse contains authentication tokens and the account they
// belong to. The API layer projects User before serializing, so the
// password hash never leaves the service.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new account and signs it in. Registration is open;
// the only gate is email uniqueness.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Syncable:     domain.Syncable{ID: userID},
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: passwordHash,
		LastLoginAt:  time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      userID,
		Action:     audit.ActionUserRegistered,
		TargetType: audit.TargetUser,
		TargetID:   userID,
		Detail:     user.Email,
	})

	sessionResp, err := s.sessions.CreateSession(ctx, user, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User registered", "user_id", userID, "email", user.Email)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Login authenticates a user and creates a new session. Unknown emails
// and wrong passwords produce the same error, so the response does not
// reveal which emails have accounts.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login
		s.logger.Warn("Failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}

	recordAudit(ctx, s.audit, s.logger, &audit.Entry{
		Actor:      user.ID,
		Action:     audit.ActionUserLogin,
		TargetType: audit.TargetUser,
		TargetID:   user.ID,
		Detail:     req.IPAddress,
	})

	sessionResp, err := s.sessions.CreateSession(ctx, user, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// RefreshTokens exchanges a refresh token for a new token pair. The old
// refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sessionResp, user, err := s.sessions.RefreshSession(ctx, req.RefreshToken, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes the session holding the refresh token, or every session
// of the user when AllDevices is set. Logging out an already revoked
// token succeeds; the caller's goal state is reached either way.
func (s *AuthService) Logout(ctx context.Context, userID string, req LogoutRequest) error {
	if req.AllDevices {
		if err := s.store.DeleteAllUserSessions(ctx, userID); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		s.logger.Info("User logged out everywhere", "user_id", userID)
		return nil
	}

	if req.RefreshToken == "" {
		return domainerrors.Validation("refreshToken is required unless allDevices is set")
	}

	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	if session.UserID != userID {
		return domainerrors.Forbidden("session does not belong to the authenticated user")
	}

	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return err
	}

	s.logger.Info("User logged out", "user_id", userID, "session_id", session.ID)

	return nil
}

// Me returns the authenticated user's account.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// VerifyAccessToken validates a bearer token and loads its user. Used by
// the authentication middleware and the WebSocket upgrade check.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.Me(ctx, claims.UserID)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	return user, claims, nil
}
