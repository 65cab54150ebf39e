package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vidlist-backend/internal/models"
)

func newTestAuthService() (*AuthService, *memUserRepo, *memTokenStore, *memBlobStore) {
	users := newMemUserRepo()
	tokens := newMemTokenStore()
	blobs := newMemBlobStore()
	return NewAuthService(users, tokens, stubIssuer{ttl: 15 * time.Minute}, blobs, 24*time.Hour), users, tokens, blobs
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		FullName: " Ada Lovelace ",
		Email:    "Ada@Example.com",
		Username: "Ada_L",
		Password: "Analytical1",
	}
}

func TestRegister_NormalizesAndHashes(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	user, err := svc.Register(context.Background(), validRegistration(), nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Email != "ada@example.com" || user.Username != "ada_l" || user.FullName != "Ada Lovelace" {
		t.Fatalf("fields not normalized: %+v", user)
	}
	if user.PasswordHash == "Analytical1" {
		t.Fatal("password stored in plain text")
	}
	if cost, err := bcrypt.Cost([]byte(user.PasswordHash)); err != nil || cost != bcryptCost {
		t.Fatalf("expected bcrypt cost %d, got %d (%v)", bcryptCost, cost, err)
	}
	if user.AvatarURL != nil {
		t.Fatal("no avatar expected")
	}
}

func TestRegister_WithAvatar(t *testing.T) {
	svc, _, _, blobs := newTestAuthService()

	user, err := svc.Register(context.Background(), validRegistration(), &FileUpload{
		Filename:    "me.PNG",
		ContentType: "image/png",
		Body:        strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.AvatarURL == nil || !strings.HasPrefix(*user.AvatarURL, "https://cdn.test/avatars/") || !strings.HasSuffix(*user.AvatarURL, ".png") {
		t.Fatalf("unexpected avatar url %v", user.AvatarURL)
	}
	if len(blobs.blobs) != 1 {
		t.Fatalf("expected one stored blob, got %d", len(blobs.blobs))
	}
}

func TestRegister_RejectsNonImageAvatar(t *testing.T) {
	svc, users, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), validRegistration(), &FileUpload{
		Filename: "me.exe",
		Body:     strings.NewReader("MZ"),
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Fields["avatar"] == "" {
		t.Fatalf("expected avatar validation error, got %v", err)
	}
	if len(users.users) != 0 {
		t.Fatal("user must not be created")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "  ",
		Email:    "not-an-email",
		Username: "x",
		Password: "short",
	}, nil)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"full_name", "email", "username", "password"} {
		if vErr.Fields[field] == "" {
			t.Errorf("expected error for %s, got %+v", field, vErr.Fields)
		}
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	sameEmail := validRegistration()
	sameEmail.Username = "someone_else"
	var cErr *ConflictError
	if _, err := svc.Register(ctx, sameEmail, nil); !errors.As(err, &cErr) {
		t.Fatalf("expected conflict on email, got %v", err)
	}

	sameUsername := validRegistration()
	sameUsername.Email = "other@example.com"
	sameUsername.Username = "ADA_L"
	if _, err := svc.Register(ctx, sameUsername, nil); !errors.As(err, &cErr) {
		t.Fatalf("expected conflict on username, got %v", err)
	}
}

func TestLogin_ByEmailOrUsername(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	byEmail, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "Analytical1"})
	if err != nil {
		t.Fatalf("Login by email: %v", err)
	}
	if byEmail.AccessToken == "" || byEmail.RefreshToken == "" || byEmail.ExpiresIn != 900 {
		t.Fatalf("unexpected tokens %+v", byEmail.AuthTokens)
	}
	if tokens.ttl != 24*time.Hour {
		t.Fatalf("refresh token stored with ttl %v", tokens.ttl)
	}

	byUsername, err := svc.Login(ctx, models.LoginRequest{Username: "ada_l", Password: "Analytical1"})
	if err != nil {
		t.Fatalf("Login by username: %v", err)
	}
	if byUsername.User.ID != byEmail.User.ID {
		t.Fatal("both logins must resolve to the same user")
	}

	// Only the newest refresh token stays valid.
	if _, err := tokens.Lookup(ctx, byEmail.RefreshToken); err == nil {
		t.Fatal("previous refresh token should be replaced")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var uErr *UnauthorizedError
	if _, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong-pass1"}); !errors.As(err, &uErr) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "Analytical1"}); !errors.As(err, &uErr) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.Login(ctx, models.LoginRequest{Password: "Analytical1"}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error without identifier, got %v", err)
	}
}

func TestRefreshToken_Rotates(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "Analytical1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	fresh, err := svc.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if fresh.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	var uErr *UnauthorizedError
	if _, err := svc.RefreshToken(ctx, login.RefreshToken); !errors.As(err, &uErr) {
		t.Fatalf("old refresh token must be rejected, got %v", err)
	}
	if _, err := tokens.Lookup(ctx, fresh.RefreshToken); err != nil {
		t.Fatalf("new refresh token must be stored: %v", err)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRegistration(), nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "Analytical1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, login.User.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := tokens.Lookup(ctx, login.RefreshToken); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected token revoked, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw      string
		wantErr bool
	}{
		{"abc1", true},
		{"abcdefgh", true},
		{"abcdefg1", false},
		{"ünïcödé9", false},
	}
	for _, tc := range tests {
		if err := validatePassword(tc.pw); (err != nil) != tc.wantErr {
			t.Errorf("validatePassword(%q) error = %v, wantErr %v", tc.pw, err, tc.wantErr)
		}
	}
}
