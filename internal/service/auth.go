package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/slug"
	"github.com/sotfmods/api/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetMailer sends the forgot-password link
type PasswordResetMailer interface {
	SendPasswordResetEmail(email, token, name string) error
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"-"`
}

type AuthService struct {
	userRepository           repository.UserRepository
	tokenRepository          repository.TokenRepository
	mailer                   PasswordResetMailer
	jwtSecret                string
	sessionExpiry            time.Duration
	tokenPasswordResetExpiry time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	mailer PasswordResetMailer,
	jwtSecret string,
	sessionExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		tokenRepository:          tokenRepository,
		mailer:                   mailer,
		jwtSecret:                jwtSecret,
		sessionExpiry:            sessionExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
	}
}

// Register creates an account. Every field is checked before returning.
func (s *AuthService) Register(name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	var errs apperr.Collector
	if err := validation.ValidateName(name); err != nil {
		errs.Add("name", err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		errs.Add("email", err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		errs.Add("password", err.Error())
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	_, err := s.userRepository.ByEmail(email)
	if err == nil {
		return nil, apperr.Invalid("email", "Email is already in use.")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	userSlug, err := s.uniqueSlug(name)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Slug:         userSlug,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Invalid("email", "Email is already in use.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "slug", user.Slug)
	return user, nil
}

// uniqueSlug appends a counter until the slug is free.
func (s *AuthService) uniqueSlug(name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "user"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.userRepository.SlugExists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *AuthService) Login(email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var errs apperr.Collector
	if email == "" {
		errs.Add("email", "Email is required.")
	}
	if password == "" {
		errs.Add("password", "Password is required.")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Invalid("email", "User not found.")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Invalid("password", "Invalid password.")
	}

	s.deleteExpiredTokens()

	tokenString, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	err = s.tokenRepository.Create(&model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeSession,
		Token:     tokenString,
		ExpiresAt: time.Now().UTC().Add(s.sessionExpiry),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID)
	return &Session{Token: tokenString, User: user}, nil
}

func (s *AuthService) Logout(token string) error {
	err := s.tokenRepository.DeleteByToken(token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.deleteExpiredTokens()
	return nil
}

func (s *AuthService) deleteExpiredTokens() {
	n, err := s.tokenRepository.DeleteExpired()
	if err != nil {
		slog.Warn("failed to delete expired tokens", "error", err)
		return
	}
	if n > 0 {
		slog.Debug("expired tokens deleted", "count", n)
	}
}

// ResolveUser returns the user behind a bearer token, or nil when the token is
// unknown, malformed or expired.
func (s *AuthService) ResolveUser(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	_, err := s.VerifyJWT(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.tokenRepository.ActiveUser(token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return user, nil
}

// ForgotPassword never reveals whether the email exists.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return apperr.Invalid("email", err.Error())
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		slog.Info("forgot password requested for unknown email", "email", email)
		return nil
	}

	err = s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypePasswordReset)
	if err != nil {
		slog.Warn("failed to delete old reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	err = s.tokenRepository.Create(&model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().UTC().Add(s.tokenPasswordResetExpiry),
	})
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	err = s.mailer.SendPasswordResetEmail(user.Email, resetToken, user.Name)
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		return nil
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(token, password, confirmPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Invalid("token", "Token is required.")
	}

	resetToken, err := s.tokenRepository.ByToken(token, model.TokenTypePasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperr.Invalid("token", "Invalid token.")
		}
		return fmt.Errorf("failed to get token: %w", err)
	}

	if resetToken.IsExpired() {
		err = s.tokenRepository.Delete(resetToken.ID)
		if err != nil {
			slog.Warn("failed to delete expired reset token", "error", err)
		}
		return apperr.Invalid("token", "Token expired.")
	}

	var errs apperr.Collector
	if err := validation.ValidatePassword(password); err != nil {
		errs.Add("password", err.Error())
	}
	if password != confirmPassword {
		errs.Add("confirm_password", "Passwords do not match.")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.ResetPassword(resetToken.UserID, hash)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password reset", "user_id", resetToken.UserID)
	return nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"jti":     uuid.New().String(),
		"exp":     now.Add(s.sessionExpiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
