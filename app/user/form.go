// Package user contains the /api/users endpoints
package user

import (
	"bitwise74/user-api/internal/service"
	"bitwise74/user-api/internal/stash"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errBadID   = errors.New("invalid user id")
	errBadBody = errors.New("malformed request body")
)

// userForm accepts multipart, urlencoded and JSON bodies alike
type userForm struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone" json:"phone"`
}

// bindForm reads the text fields and the optional profile picture. The
// returned cleanup func must be called once the upload has been consumed.
func bindForm(c *gin.Context) (*userForm, *service.Upload, func(), error) {
	var data userForm
	if err := c.ShouldBind(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, nil, fmt.Errorf("%w, %w", errBadBody, err)
	}

	fh, err := c.FormFile(stash.FieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return &data, nil, func() {}, nil
		}

		return nil, nil, nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, nil, err
	}

	return &data, &service.Upload{Name: fh.Filename, Body: f}, func() { f.Close() }, nil
}

// userID parses :id, anything that isn't a positive integer can't match a row
func userID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, errBadID
	}

	return uint(id), nil
}

// respondErr maps service errors to status codes. Anything unknown is
// logged and reported as a generic server error.
func respondErr(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     "Request body size exceeds limit",
			"requestID": requestID,
		})
	case errors.Is(err, errBadBody):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid request body",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Name and email are required",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Email already exists",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, errBadID):
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Server error",
			"requestID": requestID,
		})

		zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	}
}
