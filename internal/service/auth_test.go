package service

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoredeck/scoredeck-server/internal/auth"
	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// setupAuthTest creates services with temporary storage for testing.
func setupAuthTest(t *testing.T) (*AuthService, *SessionService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "scoredeck-auth-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, nil)
	authService := NewAuthService(s, tokenService, sessionService, nil, nil)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return authService, sessionService, cleanup
}

func registerUser(t *testing.T, authService *AuthService, email string) *AuthResponse {
	t.Helper()

	resp, err := authService.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "CorrectHorse9!",
		DisplayName: "Test Player",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Register(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	resp := registerUser(t, authService, "player@example.com")

	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "player@example.com", resp.User.Email)
	assert.Equal(t, "Test Player", resp.User.DisplayName)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)

	// The access token works right away
	user, claims, err := authService.VerifyAccessToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	registerUser(t, authService, "taken@example.com")

	_, err := authService.Register(context.Background(), RegisterRequest{
		Email:       "taken@example.com",
		Password:    "AnotherPass1!",
		DisplayName: "Second",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "CorrectHorse9!", DisplayName: "x"}},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short", DisplayName: "x"}},
		{"empty display name", RegisterRequest{Email: "a@b.com", Password: "CorrectHorse9!", DisplayName: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authService.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	registerUser(t, authService, "login@example.com")

	resp, err := authService.Login(context.Background(), LoginRequest{
		Email:    "login@example.com",
		Password: "CorrectHorse9!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	// Wrong password and unknown email are the same error, so the
	// response does not reveal which emails have accounts
	_, wrongPass := authService.Login(context.Background(), LoginRequest{
		Email:    "login@example.com",
		Password: "WrongPassword1!",
	})
	_, unknown := authService.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "CorrectHorse9!",
	})
	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestAuthService_RefreshRotatesTokens(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	first := registerUser(t, authService, "refresh@example.com")

	second, err := authService.RefreshTokens(context.Background(), RefreshRequest{
		RefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.SessionID, second.SessionID)

	// The rotated-out token is dead
	_, err = authService.RefreshTokens(context.Background(), RefreshRequest{
		RefreshToken: first.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	resp := registerUser(t, authService, "logout@example.com")

	err := authService.Logout(context.Background(), resp.User.ID, LogoutRequest{
		RefreshToken: resp.RefreshToken,
	})
	require.NoError(t, err)

	_, err = authService.RefreshTokens(context.Background(), RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// Revoking an already revoked token still succeeds
	err = authService.Logout(context.Background(), resp.User.ID, LogoutRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.NoError(t, err)
}

func TestAuthService_Logout_WrongUser(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	owner := registerUser(t, authService, "owner@example.com")
	other := registerUser(t, authService, "other@example.com")

	err := authService.Logout(context.Background(), other.User.ID, LogoutRequest{
		RefreshToken: owner.RefreshToken,
	})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestAuthService_Logout_AllDevices(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	first := registerUser(t, authService, "everywhere@example.com")
	second, err := authService.Login(context.Background(), LoginRequest{
		Email:    "everywhere@example.com",
		Password: "CorrectHorse9!",
	})
	require.NoError(t, err)

	err = authService.Logout(context.Background(), first.User.ID, LogoutRequest{AllDevices: true})
	require.NoError(t, err)

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		_, err = authService.RefreshTokens(context.Background(), RefreshRequest{RefreshToken: token})
		assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
	}
}

func TestSessionService_DeleteExpiredSessions(t *testing.T) {
	authService, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	resp := registerUser(t, authService, "expiring@example.com")

	// A freshly created session is not expired, nothing to clean
	count, err := sessionService.DeleteExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = authService.RefreshTokens(context.Background(), RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.NoError(t, err)
}
