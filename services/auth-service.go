package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"
	"taskmanager/backend/models"
	"taskmanager/backend/repositories"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users            UserStore
	tokens           *JWTService
	adminInviteToken string
	blacklist        PasswordBlacklist
	hashCost         int
	now              func() time.Time
}

type AuthOption func(*AuthService)

// WithPasswordBlacklist rejects registrations and password changes that use
// a listed password.
func WithPasswordBlacklist(blacklist PasswordBlacklist) AuthOption {
	return func(s *AuthService) { s.blacklist = blacklist }
}

func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

func NewAuthService(users UserStore, tokens *JWTService, adminInviteToken string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:            users,
		tokens:           tokens,
		adminInviteToken: adminInviteToken,
		hashCost:         bcrypt.DefaultCost,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. A non-empty invite token must equal the
// configured admin invite token and grants the admin role.
func (s *AuthService) Register(ctx context.Context, input models.RegisterInput) (*models.AuthResult, error) {
	_, err := s.users.FindUserByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperrors.NewConflict("User already exists")
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	role := models.RoleMember
	if input.AdminInviteToken != "" {
		if s.adminInviteToken == "" || input.AdminInviteToken != s.adminInviteToken {
			return nil, apperrors.NewValidation("Invalid admin invitation token")
		}
		role = models.RoleAdmin
	}
	if err := s.checkPassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		Name:            input.Name,
		Email:           input.Email,
		Password:        hash,
		ProfileImageURL: input.ProfileImageURL,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflict("User already exists")
		}
		return nil, err
	}

	logging.Logger.WithField("userId", user.ID.Hex()).
		Infof("Event ID: USER_REGISTERED, Description: Registered %s with role %s", user.Email, user.Role)
	return s.result(user)
}

func (s *AuthService) Login(ctx context.Context, input models.LoginInput) (*models.AuthResult, error) {
	user, err := s.users.FindUserByEmail(ctx, input.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		logging.Logger.Warnf("Event ID: LOGIN_UNKNOWN_EMAIL, Description: Login attempt for unknown email %s", input.Email)
		return nil, apperrors.NewAuthentication("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_BAD_PASSWORD, Description: Wrong password for %s", input.Email)
		return nil, apperrors.NewAuthentication("Invalid email or password")
	}
	return s.result(user)
}

// Authenticate resolves a bearer token to its user. The role always comes
// from the stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.NewAuthentication("Token failed")
	}
	user, err := s.users.FindUserByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewAuthentication("Token failed")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, caller models.Caller) (*models.UserView, error) {
	user, err := s.self(ctx, caller)
	if err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	return &view, nil
}

// UpdateProfile changes name, email and optionally password, and issues a
// fresh token.
func (s *AuthService) UpdateProfile(ctx context.Context, caller models.Caller, input models.UpdateProfileInput) (*models.AuthResult, error) {
	user, err := s.self(ctx, caller)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Password != "" {
		if err := s.checkPassword(input.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	user.UpdatedAt = s.now()

	if err := s.users.SaveUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, apperrors.NewConflict("User already exists")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, err
	}
	return s.result(user)
}

func (s *AuthService) self(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, caller.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NewNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkPassword(password string) error {
	if s.blacklist.Contains(password) {
		return apperrors.NewValidation("Password is too common, please choose a different one")
	}
	return nil
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) result(user *models.User) (*models.AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		ProfileImageURL: user.ProfileImageURL,
		Token:           token,
	}, nil
}
