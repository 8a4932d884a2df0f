package api

import (
	"net/http"

	"userhub/account-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyResetOtpBody struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

func (a *API) UserVerifyResetOtp(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data verifyResetOtpBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if len(data.Otp) != security.OtpLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid OTP",
			"requestID": requestID,
		})
		return
	}

	token, err := a.Accounts.VerifyPasswordResetOtp(c.Request.Context(), data.Email, data.Otp)
	if err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "OTP successfully verified",
		"access_token": token,
		"requestID":    requestID,
	})
}
