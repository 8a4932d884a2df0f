package api

import (
	"net/http"

	"userhub/account-api/internal/account"
	"userhub/account-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (a *API) UserRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		zap.L().Debug("Invalid email", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		zap.L().Debug("Invalid password", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := validators.NameValidator(data.Name); err != nil {
		zap.L().Debug("Invalid name", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	err := a.Accounts.Register(c.Request.Context(), account.RegisterInput{
		Email:    data.Email,
		Password: data.Password,
		Name:     data.Name,
	})
	if err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User created successfully",
		"requestID": requestID,
	})
}
