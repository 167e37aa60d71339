package user

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/internal/model"
	"spoileralert/spoiler-api/pkg/middleware"
	"spoileralert/spoiler-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTest(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Set("security.jwt_secret", "test-secret")

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.SentSpoiler{}, model.EmailJob{}))

	d := &internal.Deps{DB: db, Argon: security.New()}

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware())
	r.POST("/signup", func(c *gin.Context) { UserRegister(c, d) })
	r.POST("/login", func(c *gin.Context) { UserLogin(c, d) })
	r.POST("/resetpassword/:token", func(c *gin.Context) { ResetRedeem(c, d) })

	return r, d
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterThenLogin(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), "auth_token")

	w = doJSON(r, "POST", "/login", `{"email":"a@x.com","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), "auth_token")
}

func TestRegisterInitializesAccount(t *testing.T) {
	r, d := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var u model.User
	require.NoError(t, d.DB.Where("email = ?", "a@x.com").First(&u).Error)
	assert.Equal(t, "Alice", u.FullName)
	assert.Equal(t, 1, u.Interactions)
	assert.Empty(t, u.PhoneNumber)
	assert.NotEqual(t, "pw1pw1pw1", u.PasswordHash)
	assert.WithinDuration(t, time.Now(), u.DateJoined, time.Minute)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, d := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Imposter","password":"pw2pw2pw2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, d.DB.Model(model.User{}).Where("email = ?", "a@x.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"nope","name":"Alice","password":"pw1pw1pw1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"","password":"pw1pw1pw1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginTellsFailureCasesApart(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/login", `{"email":"ghost@x.com","password":"pw1pw1pw1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Email doesn't exist!")

	w = doJSON(r, "POST", "/login", `{"email":"a@x.com","password":"wrongwrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect password!")
}

func TestResetRedeemChangesPassword(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	token, err := security.MakeResetToken("a@x.com", time.Hour*24)
	require.NoError(t, err)

	w = doJSON(r, "POST", "/resetpassword/"+token, `{"password":"brandnewpw"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, "POST", "/login", `{"email":"a@x.com","password":"pw1pw1pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "POST", "/login", `{"email":"a@x.com","password":"brandnewpw"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResetRedeemRejectsExpiredToken(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(r, "POST", "/signup", `{"email":"a@x.com","name":"Alice","password":"pw1pw1pw1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	token, err := security.MakeResetToken("a@x.com", -time.Second)
	require.NoError(t, err)

	w = doJSON(r, "POST", "/resetpassword/"+token, `{"password":"brandnewpw"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
