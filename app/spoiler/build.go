// Package spoiler contains the drafting, scheduling and history endpoints
package spoiler

import (
	"net/http"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type buildBody struct {
	MovieName string `json:"movie_name"`
}

// PickMovie is the authenticated entry point of the drafting flow.
func PickMovie(c *gin.Context, d *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Pick a movie to start building a spoiler",
	})
}

// BuildSpoiler turns a movie title into a spoiler draft. Generation failures
// degrade to an empty draft the user can fill in by hand, same as the old
// site did.
func BuildSpoiler(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data buildBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.MovieNameValidator(data.MovieName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	text, err := d.Spoilers.Generate(data.MovieName)
	if err != nil {
		zap.L().Warn("Spoiler generation failed",
			zap.String("movie", data.MovieName),
			zap.Error(err),
			zap.String("requestID", requestID))

		text = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"movieName": data.MovieName,
		"spoiler":   text,
	})
}
