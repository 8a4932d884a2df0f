package api

import (
	"net/http"

	"userhub/account-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updatePasswordBody struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (a *API) UserUpdatePassword(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data updatePasswordBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.OldPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Old password field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := a.Accounts.UpdatePassword(c.Request.Context(), userID, data.OldPassword, data.NewPassword); err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password updated successfully",
		"requestID": requestID,
	})
}
