package user

import (
	"bitwise74/user-api/internal"
	"bitwise74/user-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserUpdate changes the supplied fields of a user. Empty fields keep
// their current value, they can't be used to clear one.
func UserUpdate(c *gin.Context, d *internal.Deps) {
	id, err := userID(c)
	if err != nil {
		respondErr(c, err, "")
		return
	}

	data, file, done, err := bindForm(c)
	if err != nil {
		respondErr(c, err, "Can't bind request body")
		return
	}
	defer done()

	u, err := d.Users.Update(c.Request.Context(), id, service.UpdateInput{
		Name:  data.Name,
		Email: data.Email,
		Phone: data.Phone,
		File:  file,
	})
	if err != nil {
		respondErr(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, u)
}
