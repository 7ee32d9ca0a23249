package service

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"migration-web/internal/config"
	"migration-web/internal/models"
	"migration-web/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	users map[string]*models.User // by email
	next  int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) FindByEmail(email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *memUserStore) FindByID(id string) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserStore) Create(user *models.User) error {
	if user.ID == "" {
		m.next++
		user.ID = fmt.Sprintf("user-%d", m.next)
	}
	user.CreatedAt = time.Now()
	clone := *user
	m.users[user.Email] = &clone
	return nil
}

func (m *memUserStore) UpdatePasswordByEmail(email, passwordHash string) (int64, error) {
	user, ok := m.users[email]
	if !ok {
		return 0, nil
	}
	user.PasswordHash = passwordHash
	return 1, nil
}

func newAuthService(store UserStore) *AuthService {
	return NewAuthService(store, &config.Config{
		JWTSecret:       "test-secret",
		JWTAccessExpire: time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemUserStore()
	svc := newAuthService(store)

	resp, err := svc.Register(&models.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
		FullName: "Alice",
		Company:  "Acme",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	require.NotNil(t, resp.User.Company)
	assert.Equal(t, "Acme", *resp.User.Company)

	// The issued token identifies the new user.
	claims, err := utils.ValidateToken(resp.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	login, err := svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	_, err := svc.Register(&models.RegisterRequest{Password: "secret1", FullName: "Alice"})
	assert.Error(t, err)

	_, err = svc.Register(&models.RegisterRequest{Email: "a@b.c", Password: "secret1"})
	assert.Error(t, err)

	_, err = svc.Register(&models.RegisterRequest{Email: "a@b.c", Password: "short", FullName: "A"})
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	req := &models.RegisterRequest{Email: "alice@example.com", Password: "secret1", FullName: "Alice"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	_, err := svc.Register(&models.RegisterRequest{Email: "alice@example.com", Password: "secret1", FullName: "Alice"})
	require.NoError(t, err)

	// Wrong password and unknown email are indistinguishable.
	_, errPassword := svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, errPassword, ErrInvalidCredentials)

	_, errEmail := svc.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, errEmail, ErrInvalidCredentials)
	assert.Equal(t, errPassword, errEmail)
}

func TestResetPassword(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	_, err := svc.Register(&models.RegisterRequest{Email: "alice@example.com", Password: "secret1", FullName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(&models.ResetPasswordRequest{
		Email:       "alice@example.com",
		NewPassword: "newsecret",
	}))

	_, err = svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestResetPasswordUnknownEmail(t *testing.T) {
	svc := newAuthService(newMemUserStore())
	err := svc.ResetPassword(&models.ResetPasswordRequest{
		Email:       "nobody@example.com",
		NewPassword: "newsecret",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserByID(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	resp, err := svc.Register(&models.RegisterRequest{Email: "alice@example.com", Password: "secret1", FullName: "Alice"})
	require.NoError(t, err)

	user, err := svc.GetUserByID(resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FullName)

	_, err = svc.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
