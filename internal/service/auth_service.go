package service

import (
	"database/sql"
	"errors"
	"fmt"

	"migration-web/internal/config"
	"migration-web/internal/models"
	"migration-web/internal/utils"
)

// UserStore is the slice of user persistence the auth flows need.
type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	FindByID(id string) (*models.User, error)
	Create(user *models.User) error
	UpdatePasswordByEmail(email, passwordHash string) (int64, error)
}

type AuthService struct {
	users UserStore
	cfg   *config.Config
}

func NewAuthService(users UserStore, cfg *config.Config) *AuthService {
	return &AuthService{users: users, cfg: cfg}
}

func (s *AuthService) Register(req *models.RegisterRequest) (*models.LoginResponse, error) {
	if req.Email == "" || req.FullName == "" {
		return nil, fmt.Errorf("email and full_name are required")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	if existing, _ := s.users.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
	}
	if req.Company != "" {
		user.Company = &req.Company
	}

	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := utils.GenerateAccessToken(user.ID, s.cfg.JWTSecret, s.cfg.JWTAccessExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.LoginResponse{AccessToken: token, User: *user}, nil
}

func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateAccessToken(user.ID, s.cfg.JWTSecret, s.cfg.JWTAccessExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.LoginResponse{AccessToken: token, User: *user}, nil
}

func (s *AuthService) GetUserByID(id string) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password keyed by email alone. No possession
// proof is required; callers outside a trusted deployment should front this
// with an email challenge.
func (s *AuthService) ResetPassword(req *models.ResetPasswordRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required")
	}
	if len(req.NewPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	affected, err := s.users.UpdatePasswordByEmail(req.Email, passwordHash)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
