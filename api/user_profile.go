package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserProfile returns the sanitized account projection of the caller
func (a *API) UserProfile(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	profile, err := a.Accounts.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
