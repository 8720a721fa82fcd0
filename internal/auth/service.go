package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

var (
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRequired is returned when anonymous connections are disabled.
	ErrTokenRequired = errors.New("token required")
)

// Principal is a verified actor attached to one connection.
type Principal struct {
	Identity presence.Identity
	Label    string
	City     string
}

// Service verifies tokens handed over by connections.
type Service struct {
	jwtConfig      *JWTConfig
	allowAnonymous bool
}

// NewService creates a new authentication service. With allowAnonymous set,
// connections without a token get an ephemeral identity.
func NewService(jwtConfig *JWTConfig, allowAnonymous bool) *Service {
	return &Service{
		jwtConfig:      jwtConfig,
		allowAnonymous: allowAnonymous,
	}
}

// Authenticate turns a bearer token into a Principal for conn.
func (s *Service) Authenticate(token string, conn presence.ConnID) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		if !s.allowAnonymous {
			return Principal{}, ErrTokenRequired
		}
		id := presence.Ephemeral(conn)
		return Principal{Identity: id, Label: "guest"}, nil
	}

	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" && claims.AnonID == "" {
		return Principal{}, fmt.Errorf("%w: token names no user", ErrInvalidToken)
	}

	id := presence.IdentityFor(claims.Subject, claims.AnonID, conn)
	label := claims.Name
	if label == "" {
		label = id.String()
	}
	return Principal{Identity: id, Label: label, City: claims.City}, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
