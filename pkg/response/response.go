package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(code, gin.H{"errors": vErr.Fields})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// ResponseTokenError renders token-flow failures. Lookup misses on the
// user id token are rendered as 400 rather than 404 so the activation and
// reset endpoints do not distinguish unknown users from bad tokens.
func ResponseTokenError(c *gin.Context, err error) {
	if errors.Is(err, apperror.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperror.ErrInvalidToken.Error()})
		return
	}
	ResponseError(c, err)
}
