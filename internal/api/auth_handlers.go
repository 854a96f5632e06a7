package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/auth/register",
		Summary:     "Register",
		Description: "Creates an account and signs it in",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for a new token pair",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/auth/logout",
		Summary:       "Logout",
		Description:   "Revokes the session holding the given refresh token",
		Tags:          []string{"Authentication"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMe)
}

// === DTOs ===

// UserResponse contains account data in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"Email address"`
	DisplayName string    `json:"displayName" doc:"Display name"`
	CreatedAt   time.Time `json:"createdAt" doc:"Registration time"`
	LastLoginAt time.Time `json:"lastLoginAt" doc:"Last login time"`
}

func userResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// AuthResponse contains tokens and the account they belong to.
type AuthResponse struct {
	User         UserResponse `json:"user" doc:"Authenticated account"`
	AccessToken  string       `json:"accessToken" doc:"PASETO access token"`
	RefreshToken string       `json:"refreshToken" doc:"Opaque refresh token"`
	TokenType    string       `json:"tokenType" doc:"Always Bearer"`
	ExpiresIn    int          `json:"expiresIn" doc:"Seconds until the access token expires"`
	SessionID    string       `json:"sessionId" doc:"Session ID"`
}

func authResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		User:         userResponse(resp.User),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		SessionID:    resp.SessionID,
	}
}

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email       string `json:"email" format:"email" maxLength:"254" doc:"Email address"`
	Password    string `json:"password" minLength:"8" maxLength:"1024" doc:"Password"`
	DisplayName string `json:"displayName" minLength:"1" maxLength:"100" doc:"Display name"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body          RegisterRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" format:"email" doc:"Email address"`
	Password string `json:"password" maxLength:"1024" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" minLength:"1" doc:"Refresh token to rotate"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LogoutRequest is the request body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty" doc:"Refresh token of the session to revoke"`
	AllDevices   bool   `json:"allDevices,omitempty" doc:"Revoke every session of the user"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Authorization string `header:"Authorization"`
	Body          LogoutRequest
}

// MeInput contains parameters for the current-user endpoint.
type MeInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

// checkAuthRate applies the per-IP limit shared by the credential
// endpoints. Register and login are the only places an attacker can
// grind passwords, so only those consume from the bucket.
func (s *Server) checkAuthRate(ip string) error {
	if ip == "" {
		ip = "direct"
	}
	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("Auth rate limit exceeded", "ip", ip)
		return huma.Error429TooManyRequests("Too many authentication attempts. Please try again later.")
	}
	return nil
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	ip := clientIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRate(ip); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
		IPAddress:   ip,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	ip := clientIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRate(ip); err != nil {
		return nil, err
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		IPAddress: ip,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.RefreshTokens(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		IPAddress:    clientIP(input.XForwardedFor, input.XRealIP),
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, userID, service.LogoutRequest{
		RefreshToken: input.Body.RefreshToken,
		AllDevices:   input.Body.AllDevices,
	}); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}

func (s *Server) handleMe(ctx context.Context, input *MeInput) (*UserOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: userResponse(user)}, nil
}
