package root

import (
	"net/http"
	"time"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/pkg/validators"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type contactBody struct {
	FromName string `json:"from_name"`
	Message  string `json:"message"`
}

// Contact forwards the form to the site owner through the dispatcher. Each
// submission gets a short reference id so followups can point back at it.
func Contact(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	owner := viper.GetString("contact.address")
	if owner == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "The contact form is currently disabled",
			"requestID": requestID,
		})
		return
	}

	var data contactBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.FullNameValidator(data.FromName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if data.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Message can't be empty",
			"requestID": requestID,
		})
		return
	}

	ref, err := gonanoid.New(10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate ticket reference", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	subject := "CONTACT FORM FILLED BY : " + data.FromName + " [" + ref + "]"

	_, err = d.Dispatcher.Schedule(owner, subject, "MESSAGE : "+data.Message, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Whoops something went wrong, this is still a work in progress so sorry about that",
			"requestID": requestID,
		})

		zap.L().Error("Failed to schedule contact email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Thank you for contacting us, we'll be intouch shortly",
		"reference": ref,
	})
}
