package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidlist-backend/internal/models"
	"vidlist-backend/internal/repository"
)

const bcryptCost = 12

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// AccessTokenIssuer signs short-lived access tokens.
type AccessTokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email, username string) (string, error)
	TTL() time.Duration
}

type AuthService struct {
	userRepo   userRepository
	tokens     TokenStore
	jwt        AccessTokenIssuer
	blobs      BlobStore
	refreshTTL time.Duration
}

func NewAuthService(userRepo userRepository, tokens TokenStore, jwt AccessTokenIssuer, blobs BlobStore, refreshTTL time.Duration) *AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		jwt:        jwt,
		blobs:      blobs,
		refreshTTL: refreshTTL,
	}
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,30}$`)
)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, avatar *FileUpload) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	// Validate all fields at once
	fieldErrors := validateAccountFields(req.FullName, req.Email, req.Username)
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := checkUnique(ctx, s.userRepo, uuid.Nil, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
	}

	if avatar != nil {
		url, err := saveImage(ctx, s.blobs, "avatar", "avatars", avatar)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &url
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: "User with email or username already exists"}
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	identifier := strings.TrimSpace(req.Email)
	lookup := s.userRepo.GetByEmail
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
		lookup = s.userRepo.GetByUsername
	}
	if identifier == "" {
		return nil, fieldError("email", "Email or username is required")
	}
	if req.Password == "" {
		return nil, fieldError("password", "Password is required")
	}

	user, err := lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid credentials"}
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{User: user, AuthTokens: *tokens}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &UnauthorizedError{Message: "Refresh token is required"}
	}

	userID, err := s.tokens.Lookup(ctx, refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	// Delete old token (rotation)
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &UnauthorizedError{Message: "Account no longer exists"}
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.RevokeUser(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Save(ctx, refreshToken, user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwt.TTL().Seconds()),
	}, nil
}

// checkUnique reports a conflict when email or username belongs to a user
// other than self.
func checkUnique(ctx context.Context, repo userRepository, self uuid.UUID, email, username string) error {
	existing, err := repo.GetByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return &ConflictError{Message: "Email already in use"}
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	existing, err = repo.GetByUsername(ctx, username)
	if err == nil && existing.ID != self {
		return &ConflictError{Message: "Username already taken"}
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func validateAccountFields(fullName, email, username string) map[string]string {
	fieldErrors := make(map[string]string)
	if fullName == "" {
		fieldErrors["full_name"] = "Full name is required"
	}
	if !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if !usernameRegex.MatchString(username) {
		fieldErrors["username"] = "Username must be 3-30 letters, digits, dots or underscores"
	}
	return fieldErrors
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
