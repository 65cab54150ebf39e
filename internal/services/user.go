package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidlist-backend/internal/models"
	"vidlist-backend/internal/repository"
)

// UserService manages the signed-in user's own account.
type UserService struct {
	userRepo userRepository
	blobs    BlobStore
}

func NewUserService(userRepo userRepository, blobs BlobStore) *UserService {
	return &UserService{userRepo: userRepo, blobs: blobs}
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, req models.UpdateAccountRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if fieldErrors := validateAccountFields(fullName, email, username); len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := checkUnique(ctx, s.userRepo, userID, email, username); err != nil {
		return nil, err
	}

	user.FullName = fullName
	user.Email = email
	user.Username = username

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: "Email or username already in use"}
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar *FileUpload) (*models.User, error) {
	if avatar == nil {
		return nil, fieldError("avatar", "Avatar file is required")
	}

	url, err := saveImage(ctx, s.blobs, "avatar", "avatars", avatar)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req models.ChangePasswordRequest) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fieldError("current_password", "Current password is incorrect")
	}

	if err := validatePassword(req.NewPassword); err != nil {
		return fieldError("new_password", err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}
