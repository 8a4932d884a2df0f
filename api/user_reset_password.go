package api

import (
	"net/http"

	"userhub/account-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetPasswordBody struct {
	NewPassword string `json:"newPassword"`
}

// UserResetPassword sets a new password without checking the old one.
// The JWT middleware already established that the caller holds the
// token issued by the reset-OTP verification.
func (a *API) UserResetPassword(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data resetPasswordBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.PasswordValidator(data.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := a.Accounts.ResetPassword(c.Request.Context(), userID, data.NewPassword); err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password has been updated",
		"requestID": requestID,
	})
}
