package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.authSvc.Register(ctx, models.RegisterRequest{Name: " Ana ", Email: "Ana@Example.com", Password: "secret-123"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "secret-123", u.PasswordHash)

	resp, err := e.authSvc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "secret-123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)

	claims, err := e.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.False(t, claims.IsAdmin())

	profile, err := e.authSvc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)
}

func TestAuthService_RegisterErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.authSvc.Register(ctx, models.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret-123"})
	require.NoError(t, err)

	_, err = e.authSvc.Register(ctx, models.RegisterRequest{Name: "Otra", Email: "ANA@example.com", Password: "secret-456"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = e.authSvc.Register(ctx, models.RegisterRequest{Name: "Bea", Email: "not-an-email", Password: "short"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.authSvc.Register(ctx, models.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret-123"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Email: "ana@example.com", Password: "nope-nope"}},
		{"unknown email", models.LoginRequest{Email: "bea@example.com", Password: "secret-123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.authSvc.Login(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.authSvc.EnsureAdmin(ctx, "", "ignored"))
	require.NoError(t, e.authSvc.EnsureAdmin(ctx, "Admin@Shop.test", "admin-pass"))
	require.NoError(t, e.authSvc.EnsureAdmin(ctx, "admin@shop.test", "other-pass"), "second call is a no-op")

	resp, err := e.authSvc.Login(ctx, models.LoginRequest{Email: "admin@shop.test", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := e.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}
