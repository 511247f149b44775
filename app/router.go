// Package app wires the dependencies and HTTP routes together
package app

import (
	"bitwise74/user-api/app/root"
	"bitwise74/user-api/app/user"
	"bitwise74/user-api/internal"
	"bitwise74/user-api/pkg/middleware"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	CORSOrigins   []string
	MaxUploadSize int64 // Bytes
	PublicDir     string
}

// OptionsFromConfig reads the router options from the loaded config
func OptionsFromConfig() Options {
	origins := []string{}
	for _, o := range strings.Split(viper.GetString("host.cors_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Options{
		CORSOrigins:   origins,
		MaxUploadSize: viper.GetInt64("upload.max_size"),
		PublicDir:     viper.GetString("storage.public_dir"),
	}
}

func NewRouter(d *internal.Deps, o Options) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(corsConfig(o.CORSOrigins)),
		ginzap.RecoveryWithZap(zap.L(), true),
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

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	bodyLimit := middleware.BodySizeLimiter(o.MaxUploadSize)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	users := main.Group("/users")
	{
		// GET /api/users		-> Returns every user, newest first
		users.GET("", func(c *gin.Context) { user.UserList(c, d) })

		// GET /api/users/:id		-> Returns a single user
		users.GET("/:id", func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /api/users 		-> Registers a new user and sends a confirmation mail
		users.POST("", bodyLimit, func(c *gin.Context) { user.UserCreate(c, d) })

		// PUT /api/users/:id		-> Updates a user, optionally replacing the profile picture
		users.PUT("/:id", bodyLimit, func(c *gin.Context) { user.UserUpdate(c, d) })

		// DELETE /api/users/:id 	-> Deletes a user and their profile picture
		users.DELETE("/:id", func(c *gin.Context) { user.UserDelete(c, d) })
	}

	// GET /uploads/*		-> Serves stored profile pictures
	d.Stash.Mount(router)

	// Anything else		-> Frontend bundle with index.html fallback
	router.NoRoute(frontend(o.PublicDir))

	// Known path, wrong method
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method not allowed",
			"requestID": c.GetString("requestID"),
		})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
