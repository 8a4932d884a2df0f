package api

import (
	"errors"
	"net/http"

	"userhub/account-api/internal/account"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps workflow failures onto status codes and stable
// messages. Anything unrecognized is logged and hidden behind a
// generic 500.
func respondError(c *gin.Context, requestID string, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, account.ErrEmailTaken):
		status = http.StatusConflict
		message = "This email is already registered. Please login or use a different email"
	case errors.Is(err, account.ErrNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, account.ErrInvalidCredentials):
		status = http.StatusBadRequest
		message = "Invalid credentials"
	case errors.Is(err, account.ErrEmailNotVerified):
		status = http.StatusBadRequest
		message = "Please verify your email first"
	case errors.Is(err, account.ErrAlreadyVerified):
		status = http.StatusBadRequest
		message = "Email is already verified"
	case errors.Is(err, account.ErrOtpMismatch):
		status = http.StatusBadRequest
		message = "Invalid OTP"
	case errors.Is(err, account.ErrOtpExpired):
		status = http.StatusBadRequest
		message = "OTP has expired"
	case errors.Is(err, account.ErrWrongPassword):
		status = http.StatusBadRequest
		message = "Old password is incorrect"
	case errors.Is(err, account.ErrUploadFailed):
		status = http.StatusBadRequest
		message = "Failed to upload image"
	default:
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(status, gin.H{
		"error":     message,
		"requestID": requestID,
	})
}
