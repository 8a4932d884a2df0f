package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resendOtpBody struct {
	Email string `json:"email"`
}

func (a *API) UserResendOtp(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data resendOtpBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Accounts.ResendOtp(c.Request.Context(), data.Email); err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP has been resent",
		"requestID": requestID,
	})
}
