package user

import (
	"net/http"

	"spoileralert/spoiler-api/internal"

	"github.com/gin-gonic/gin"
)

func UserLogout(c *gin.Context, d *internal.Deps) {
	clearAuthCookies(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
