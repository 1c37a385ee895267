package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountInactive        = errors.New("account is inactive, contact support")
	ErrEmailAlreadyExists     = errors.New("this email is already registered")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidResetToken      = errors.New("the reset link is invalid or has expired")
)

// SessionRevoker drops the server-side sessions of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID, keepID string) error
}

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordResetEmail(ctx context.Context, email, name, token string) error
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type AuthService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	sessions          SessionRevoker
	mailer            ResetMailer
	resetExpiry       time.Duration
	now               func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	sessions SessionRevoker,
	mailer ResetMailer,
	resetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		sessions:          sessions,
		mailer:            mailer,
		resetExpiry:       resetExpiry,
		now:               time.Now,
	}
}

// Signup creates the user together with its profile. The caller starts the session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, *model.Profile, error) {
	name := validation.NormalizeName(in.Name)
	email := validation.NormalizeEmail(in.Email)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, nil, err
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, nil, err
	}
	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	profile := &model.Profile{Name: name}

	err = s.userRepository.CreateWithProfile(ctx, user, profile)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID)
	return user, profile, nil
}

// Login checks the credentials. Unknown emails and wrong passwords yield the
// same ErrInvalidCredentials; the inactive check only runs once the password
// matched.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, &validation.Error{Field: "email", Message: "email and password are required"}
	}
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = ComparePassword(password, dummyHash())
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// ChangePassword replaces the password of userID and signs out every other
// session of the user. keepSessionID is the caller's own session.
func (s *AuthService) ChangePassword(ctx context.Context, userID, keepSessionID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return &validation.Error{Field: "password", Message: "all fields are required"}
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return ErrInvalidCurrentPassword
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.revokeSessions(ctx, userID, keepSessionID)
	slog.Info("password changed", "user_id", userID)
	return nil
}

// ForgotPassword issues a reset token when email belongs to a user. It reports
// success for unknown and malformed addresses too, so callers cannot probe
// which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if validation.ValidateEmail(email) != nil {
		slog.Info("password reset requested for malformed email")
		return nil
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	expiresAt := s.now().Add(s.resetExpiry)
	err = s.userRepository.SetResetToken(ctx, user.ID, HashToken(token), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	name := user.DisplayName(nil)
	profile, err := s.profileRepository.ByUserID(ctx, user.ID)
	if err == nil {
		name = user.DisplayName(profile)
	}

	err = s.mailer.SendPasswordResetEmail(ctx, user.Email, name, token)
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		return nil
	}

	slog.Info("password reset issued", "user_id", user.ID, "expires_at", expiresAt)
	return nil
}

// ResetPassword redeems token and sets newPassword. A token works once and
// only until it expires; afterwards every session of the user is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &validation.Error{Field: "token", Message: "reset token is required"}
	}
	if newPassword != confirmPassword {
		return &validation.Error{Field: "confirmNewPassword", Message: "passwords do not match"}
	}
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepository.RedeemResetToken(ctx, HashToken(token), hash)
	if errors.Is(err, repository.ErrResetTokenNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	s.revokeSessions(ctx, user.ID, "")
	slog.Info("password reset completed", "user_id", user.ID)
	return nil
}

func (s *AuthService) revokeSessions(ctx context.Context, userID, keepID string) {
	if s.sessions == nil {
		return
	}
	err := s.sessions.RevokeUser(ctx, userID, keepID)
	if err != nil {
		slog.Warn("failed to revoke sessions", "error", err, "user_id", userID)
	}
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var dummyHash = sync.OnceValue(func() string {
	hash, _ := HashPassword("not-a-real-password")
	return hash
})

// CurrentUser loads the user behind a session. Inactive accounts are treated
// as signed out.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}
