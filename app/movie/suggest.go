// Package movie contains the autocomplete proxy endpoints
package movie

import (
	"net/http"

	"spoileralert/spoiler-api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MovieInfo proxies the external movie-suggestion API for the autocomplete
// box. Responses are cached by request URI at the router level.
func MovieInfo(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	term := c.Query("term")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No search term provided",
			"requestID": requestID,
		})
		return
	}

	suggestions, err := d.Movies.Suggestions(term)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Whoops something went wrong, this is still a work in progress so sorry about that",
			"requestID": requestID,
		})

		zap.L().Error("Movie suggestion lookup failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, suggestions)
}
