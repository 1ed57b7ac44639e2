package middleware

import (
	"net/http"

	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/pkg/validation"
	"github.com/gin-gonic/gin"
)

// ValidatedBodyKey is the context key of the body bound by ValidateRequest.
const ValidatedBodyKey = "validatedBody"

// ValidateRequest binds an optional JSON body into a fresh T, validates it
// and stores it under ValidatedBodyKey.
func ValidateRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := new(T)
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(body); err != nil {
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid request format").
					WithDetails(err.Error())
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewAPIErrorResponse(errorDetail))
				return
			}
		}

		if err := validation.Struct(body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewAPIErrorResponse(dto.HandleValidationError(err)))
			return
		}

		c.Set(ValidatedBodyKey, body)
		c.Next()
	}
}
