package app

import (
	"bitwise74/user-api/internal/stash"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// frontend serves the prebuilt frontend bundle. Paths that don't match a
// file get index.html so client side routing keeps working. Missing
// uploads end up here too, they stay a 404.
func frontend(publicDir string) gin.HandlerFunc {
	index := filepath.Join(publicDir, "index.html")

	return func(c *gin.Context) {
		isUpload := strings.HasPrefix(c.Request.URL.Path, stash.URLPrefix+"/")
		isRead := c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead

		if isUpload || !isRead {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Not found",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		p := filepath.Join(publicDir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			c.File(p)
			return
		}

		c.File(index)
	}
}
