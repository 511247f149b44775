package user

import (
	"bitwise74/user-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserList returns every user, most recently created first
func UserList(c *gin.Context, d *internal.Deps) {
	users, err := d.Users.List(c.Request.Context())
	if err != nil {
		respondErr(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, users)
}
