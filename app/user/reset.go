package user

import (
	"fmt"
	"net/http"
	"time"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/internal/model"
	"spoileralert/spoiler-api/pkg/security"
	"spoileralert/spoiler-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Reset tokens prove ownership of the email for a day, same window the old
// site gave out
const resetTokenTTL = time.Hour * 24

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetRedeemBody struct {
	Password string `json:"password"`
}

// ResetRequest mails a signed recovery link to the account's address. The
// token is stateless so nothing is written to the database here.
func ResetRequest(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetRequestBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := d.DB.Where("email = ?", data.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Email doesn't exist!",
			"requestID": requestID,
		})
		return
	}

	token, err := security.MakeResetToken(user.Email, resetTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	recoverURL := fmt.Sprintf("%s://%s/resetpassword/%s", scheme, viper.GetString("host.domain"), token)
	body := fmt.Sprintf("Click <a href='%s'>here</a> to reset your password.<br><br>This link will expire in 24 hours.", recoverURL)

	// Immediate trigger, the dispatcher picks it up on the next poll
	_, err = d.Dispatcher.Schedule(user.Email, "Password reset requested", body, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to schedule reset email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A recovery link is on its way to your inbox",
	})
}

// ResetTokenCheck lets the frontend verify a recovery link before showing
// the new-password form.
func ResetTokenCheck(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if _, err := security.ParseResetToken(c.Param("token")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "This recovery link is invalid or has expired",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token valid",
	})
}

// ResetRedeem swaps the account's password hash for a new one if the token
// checks out.
func ResetRedeem(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	email, err := security.ParseResetToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "This recovery link is invalid or has expired",
			"requestID": requestID,
		})
		return
	}

	var data resetRedeemBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := d.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Email doesn't exist!",
			"requestID": requestID,
		})
		return
	}

	hash, err := d.Argon.GenerateFromPassword(data.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.DB.Model(&user).Update("password_hash", hash).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated. You can now log in",
	})
}
