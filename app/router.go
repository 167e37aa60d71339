package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"spoileralert/spoiler-api/app/movie"
	"spoileralert/spoiler-api/app/root"
	"spoileralert/spoiler-api/app/spoiler"
	"spoileralert/spoiler-api/app/user"
	"spoileralert/spoiler-api/db"
	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/internal/service"
	"spoileralert/spoiler-api/pkg/middleware"
	"spoileralert/spoiler-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = database

	router := gin.New()

	origins := strings.Split(viper.GetString("host.cors"), ",")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.CustomRecovery(func(c *gin.Context, err any) {
			zap.L().Error("Panic recovered", zap.Any("error", err))

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Whoops something went wrong, this is still a work in progress so sorry about that",
			})
		}),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v, ok := c.Get("userID"); ok {
					fields = append(fields, zap.Any("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "This page doesn't exist, but at least it's not a spoiler",
		})
	})

	rateLimit := viper.GetInt("security.rate_limit")
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Second,
	})
	router.Use(rateLimiter)

	limitBody := middleware.BodySizeLimiter(1 << 20)
	store := makeCacheStore()

	// Per-route login prompts shown on the login screen after a 401
	jwtMovieInfo := middleware.NewJWTMiddleware(database, "Interesting seeing you here, login to view stuff")
	jwtPickMovie := middleware.NewJWTMiddleware(database, "Login to pick a movie and start building a spoiler")
	jwtBuild := middleware.NewJWTMiddleware(database, "Login to build a spoiler (We don't want people spamming their friends anonymously)")
	jwtSchedule := middleware.NewJWTMiddleware(database, "Login to schedule a spoiler (We don't want people spamming their friends anonymously)")
	jwtHistory := middleware.NewJWTMiddleware(database, "Login to view your sent spoiler history")
	jwtContact := middleware.NewJWTMiddleware(database, "Login first !")
	jwtDefault := middleware.NewJWTMiddleware(database, "Please log in")

	// GET  /			-> Landing page data
	router.GET("/", root.Landing)

	// GET  /about-us		-> About page data
	router.GET("/about-us", root.AboutUs)

	// HEAD /heartbeat 		-> Used to check if the server is alive
	router.HEAD("/heartbeat", root.Heartbeat)

	// POST /contact		-> Emails the site owner
	router.POST("/contact", jwtContact, limitBody, func(c *gin.Context) { root.Contact(c, d) })

	// POST /signup 		-> Registers a new user and logs them in
	router.POST("/signup", limitBody, func(c *gin.Context) { user.UserRegister(c, d) })

	// POST /login 			-> Authenticates a user and sets the auth cookie
	router.POST("/login", limitBody, func(c *gin.Context) { user.UserLogin(c, d) })

	// GET  /logout			-> Clears the session cookies
	router.GET("/logout", jwtDefault, func(c *gin.Context) { user.UserLogout(c, d) })

	// POST /resetpassword		-> Emails a signed recovery link
	router.POST("/resetpassword", limitBody, func(c *gin.Context) { user.ResetRequest(c, d) })

	// GET  /resetpassword/:token	-> Checks a recovery link
	router.GET("/resetpassword/:token", func(c *gin.Context) { user.ResetTokenCheck(c, d) })

	// POST /resetpassword/:token	-> Sets a new password
	router.POST("/resetpassword/:token", limitBody, func(c *gin.Context) { user.ResetRedeem(c, d) })

	// GET  /getmovieinfo?term=	-> Autocomplete suggestions, cached
	router.GET("/getmovieinfo", jwtMovieInfo, cache.CacheByRequestURI(store, 30*time.Second), func(c *gin.Context) { movie.MovieInfo(c, d) })

	// GET  /pick-a-movie		-> Drafting flow entry point
	router.GET("/pick-a-movie", jwtPickMovie, func(c *gin.Context) { spoiler.PickMovie(c, d) })

	// POST /build-spoiler		-> Generates a spoiler draft for a movie
	router.POST("/build-spoiler", jwtBuild, limitBody, func(c *gin.Context) { spoiler.BuildSpoiler(c, d) })

	// POST /scheduler-spoiler	-> Persists and schedules a spoiler email
	router.POST("/scheduler-spoiler", jwtSchedule, limitBody, func(c *gin.Context) { spoiler.ScheduleSpoiler(c, d) })

	// GET  /spoiler-history	-> Lists the caller's sent spoilers
	router.GET("/spoiler-history", jwtHistory, func(c *gin.Context) { spoiler.SpoilerHistory(c, d) })

	d.Argon = security.New()
	d.Movies = service.NewMovieClient()
	d.Spoilers = service.NewSpoilerGenerator()
	d.Dispatcher = service.NewDispatcher(database, service.NewSMTPMailer())

	d.Dispatcher.Start()

	// Delivered jobs are only kept for a month, check once a day
	service.JobCleanup(time.Hour*24, time.Hour*24*30, database)

	return router, nil
}

func makeCacheStore() persist.CacheStore {
	if viper.GetBool("cache.redis.enabled") {
		return persist.NewRedisStore(redis.NewClient(&redis.Options{
			Addr: viper.GetString("cache.redis.addr"),
		}))
	}

	return persist.NewMemoryStore(time.Minute)
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
