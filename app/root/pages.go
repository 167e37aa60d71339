// Package root contains the public endpoints that don't belong to a flow
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Landing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": c.Query("message"),
		"name":    "Spoiler Alert",
		"tagline": "Ruin movies for the people you love",
	})
}

func AboutUs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"about": "Spoiler Alert lets you pick a movie, draft a spoiler and schedule it straight into someone's inbox.",
	})
}

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
