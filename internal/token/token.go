package token

import (
	"errors"
	"time"

	"debandi-store/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the validated claim set embedded in every session token.
// Payloads that do not decode into this structure are rejected.
type Claims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func NewManager(secret, issuer string, expiry time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}
}

// Issue signs a token carrying the user's identity and admin flag.
func (m *Manager) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify validates signature, structure, expiry and issuer, and returns the
// embedded claims. All failure modes collapse to ErrInvalidToken: callers
// cannot distinguish an expired token from a tampered one.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
