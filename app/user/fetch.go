package user

import (
	"bitwise74/user-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserFetch(c *gin.Context, d *internal.Deps) {
	id, err := userID(c)
	if err != nil {
		respondErr(c, err, "")
		return
	}

	u, err := d.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, u)
}
