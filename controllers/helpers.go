package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto statuses and the {"error"} shape.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, utils.ErrInvalidImage):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidMFACode):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidResetToken):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNoText):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrAIUnavailable):
		status = http.StatusBadGateway
		msg = "analysis service is unavailable, please try again"
	default:
		msg = "internal server error"
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// readImage accepts a multipart "image" file or JSON {"image_base64"}.
func readImage(c *gin.Context) (utils.Image, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			return utils.Image{}, fmt.Errorf("%w: multipart field \"image\" is required", utils.ErrInvalidImage)
		}
		if fh.Size > utils.MaxImageBytes {
			return utils.Image{}, fmt.Errorf("%w: image too large", utils.ErrInvalidImage)
		}
		f, err := fh.Open()
		if err != nil {
			return utils.Image{}, err
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, utils.MaxImageBytes+1))
		if err != nil {
			return utils.Image{}, err
		}
		return utils.NewImage(raw, fh.Header.Get("Content-Type"))
	}

	var body struct {
		ImageBase64 string `json:"image_base64" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return utils.Image{}, fmt.Errorf("%w: image_base64 is required", utils.ErrInvalidImage)
	}
	return utils.DecodeDataURI(body.ImageBase64)
}
