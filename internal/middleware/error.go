package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
)

// errorBody is the failure half of the response envelope.
func errorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{
		"success": false,
		"message": appErr.Message,
		"code":    appErr.Code,
	}
}

// toAppError converts err into the AppError sent to the client. Internal
// details are logged and never leave the server.
func toAppError(c *gin.Context, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			if database.IsTimeout(appErr.Internal) {
				logger.Get().Warnw("request timed out",
					"code", appErr.Code,
					"path", c.Request.URL.Path,
				)
				return apperrors.ErrTimeout
			}
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		return appErr
	}

	if database.IsTimeout(err) {
		return apperrors.ErrTimeout
	}

	// Unexpected error: log full details, return generic message
	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	return apperrors.ErrInternalServer
}

// RespondWithError writes the failure envelope for err.
func RespondWithError(c *gin.Context, err error) {
	appErr := toAppError(c, err)
	c.JSON(appErr.StatusCode, errorBody(appErr))
}

// AbortWithError writes the failure envelope for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	appErr := toAppError(c, err)
	c.AbortWithStatusJSON(appErr.StatusCode, errorBody(appErr))
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into the failure envelope, for handlers that report through
// c.Error instead of writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		RespondWithError(c, c.Errors.Last().Err)
	}
}
