package middleware

import (
	"errors"
	"net/http"

	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates operators by their JWT
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// OperatorAuth validates the operator token and stores the operator name in
// the context. Browsers cannot set headers on WebSocket handshakes, so the
// token query parameter is accepted as well.
func (m *AuthMiddleware) OperatorAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token")
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				errorDetail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").WithDetails("Token has expired")
			case errors.Is(err, apperrors.ErrPermissionDenied):
				status = http.StatusForbidden
				errorDetail = dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
					WithDetails("Token does not grant access to pipeline runs")
			}
			c.AbortWithStatusJSON(status, dto.NewAPIErrorResponse(errorDetail))
			return
		}

		c.Set(auth.OperatorContextKey, claims.Operator)
		c.Next()
	}
}
