package user

import (
	"bitwise74/user-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserDelete(c *gin.Context, d *internal.Deps) {
	id, err := userID(c)
	if err != nil {
		respondErr(c, err, "")
		return
	}

	if err := d.Users.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
	})
}
