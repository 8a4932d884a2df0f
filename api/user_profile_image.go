package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserProfileImage stores the uploaded image and persists its public
// URL on the account. The multipart field is named profileImage.
func (a *API) UserProfileImage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fileHeader, err := c.FormFile("profileImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Failed to read uploaded file",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	url, err := a.Accounts.UpdateProfileImage(c.Request.Context(), userID, data)
	if err != nil {
		respondError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Profile image updated successfully",
		"imageUrl":  url,
		"requestID": requestID,
	})
}
