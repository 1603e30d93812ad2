package services

import (
	"fmt"
	"log"
	"time"

	"bazaar/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID string
	Role   models.Role
}

// AuthService issues and validates the bearer tokens that carry a caller's
// identity. Account login lives outside this service.
type AuthService struct {
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// IssueToken signs a token for the user.
func (s *AuthService) IssueToken(userID string, role models.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, ErrInvalidToken.Wrap(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	role := models.Role(fmt.Sprint(claims["role"]))
	if userID == "" {
		return nil, ErrInvalidToken.Withf("token has no user_id claim")
	}
	if role != models.RoleCustomer && role != models.RoleSeller {
		return nil, ErrInvalidToken.Withf("token has unknown role %q", role)
	}
	return &Identity{UserID: userID, Role: role}, nil
}
