package user

import (
	"bitwise74/user-api/internal"
	"bitwise74/user-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserCreate(c *gin.Context, d *internal.Deps) {
	data, file, done, err := bindForm(c)
	if err != nil {
		respondErr(c, err, "Can't bind request body")
		return
	}
	defer done()

	u, err := d.Users.Create(c.Request.Context(), service.CreateInput{
		Name:  data.Name,
		Email: data.Email,
		Phone: data.Phone,
		File:  file,
	})
	if err != nil {
		respondErr(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, u)
}
