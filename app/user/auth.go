package user

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const authTokenTTL = time.Hour * 24 * 30

func makeAuthToken(userID int) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "auth",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(authTokenTTL).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("security.jwt_secret")))
}

func setAuthCookies(c *gin.Context, token string) {
	ssl := viper.GetBool("host.ssl.enabled")
	maxAge := int(authTokenTTL.Seconds())

	c.SetCookie("auth_token", token, maxAge, "/", "", ssl, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", ssl, false)
}

func clearAuthCookies(c *gin.Context) {
	ssl := viper.GetBool("host.ssl.enabled")

	c.SetCookie("auth_token", "", -1, "/", "", ssl, true)
	c.SetCookie("logged_in", "", -1, "/", "", ssl, false)
}
