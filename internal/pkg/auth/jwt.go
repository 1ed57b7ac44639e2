package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeRuns allows triggering and inspecting pipeline runs.
const ScopeRuns = "runs"

// OperatorContextKey is the gin context key holding the authenticated
// operator name.
const OperatorContextKey = "operator"

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey      string
	AccessTokenExp time.Duration
	TokenIssuer    string
}

// JWTService issues and verifies operator tokens.
type JWTService struct {
	config JWTConfig
}

func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// Claims identify the operator a token was issued to.
type Claims struct {
	Operator string `json:"operator"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for operator. It returns the token and its
// lifetime in seconds.
func (s *JWTService) GenerateToken(operator string) (string, int, error) {
	if strings.TrimSpace(operator) == "" {
		return "", 0, apperrors.NewValidationError("operator", "must not be blank")
	}

	now := time.Now()
	claims := &Claims{
		Operator: operator,
		Scope:    ScopeRuns,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.TokenIssuer,
			Subject:   operator,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, int(s.config.AccessTokenExp.Seconds()), nil
}

// ValidateToken verifies the signature, lifetime, issuer and scope of a token.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithIssuer(s.config.TokenIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Operator == "" {
		return nil, apperrors.ErrTokenInvalid
	}
	if claims.Scope != ScopeRuns {
		return nil, apperrors.ErrPermissionDenied
	}
	return claims, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", apperrors.ErrTokenInvalid
	}
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token), nil
	}
	// raw tokens are accepted as-is
	if strings.Count(authHeader, ".") == 2 {
		return authHeader, nil
	}
	return "", apperrors.ErrTokenInvalid
}
