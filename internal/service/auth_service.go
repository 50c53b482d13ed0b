package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"debandi-store/internal/domain"
	"debandi-store/internal/repository"
	"debandi-store/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashing.
const BcryptCost = 12

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooWeak    = errors.New("password must contain an uppercase letter, a lowercase letter and a digit")
	ErrCommonPassword     = errors.New("password is too common")
)

// commonPasswords is a denylist matched as a case-insensitive substring.
var commonPasswords = []string{
	"password", "123456", "12345678", "qwerty", "abc123", "monkey",
	"1234567", "letmein", "trustno1", "dragon", "baseball", "111111",
	"iloveyou", "master", "sunshine", "ashley", "bailey", "passw0rd",
	"shadow", "123123", "654321", "superman", "qazwsx", "michael",
	"football",
}

// AuthService handles credential verification and session issuance.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, string, error)
	VerifyToken(tokenString string) (*token.Claims, error)
	GetCurrentUser(ctx context.Context, tokenString string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *token.Manager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

// Login authenticates a user and issues a session token. Unknown emails and
// wrong passwords both surface as ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tokenString, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, tokenString, nil
}

// Register creates a new account. The administrator flag is always false for
// self-registered users, regardless of input.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, string, error) {
	normalized := normalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil && err != repository.ErrUserNotFound {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", repository.ErrEmailAlreadyExists
	}

	if err := validatePasswordStrength(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        normalized,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsAdmin:      false,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	tokenString, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, tokenString, nil
}

// VerifyToken validates a session token and returns its claims.
func (s *authService) VerifyToken(tokenString string) (*token.Claims, error) {
	return s.tokens.Verify(tokenString)
}

// GetCurrentUser resolves the token's claims against the user store. A valid
// token whose user no longer exists yields repository.ErrUserNotFound.
func (s *authService) GetCurrentUser(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	return s.userRepo.FindByID(ctx, claims.UserID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePasswordStrength enforces the registration password policy:
// at least 8 characters with an upper, a lower and a digit, and not on the
// common-password denylist.
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrPasswordTooWeak
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return ErrCommonPassword
		}
	}

	return nil
}
