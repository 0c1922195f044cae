package server

import (
	"net/http"
	"path/filepath"

	sentry "github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/middleware"
	"github.com/georgesgallery/gallery-go/service/cloudinary"
	"github.com/georgesgallery/gallery-go/service/logger"
	"github.com/georgesgallery/gallery-go/service/store"
	"github.com/georgesgallery/gallery-go/util"
	"github.com/georgesgallery/gallery-go/validate"
)

// Init initializes the server and mounts it on the default mux
func Init() {
	SetDefaults()
	initSentry()

	router := CoreInit(NewStore())

	http.Handle("/", router)
}

// CoreInit initializes core server functionality. This is abstracted
// so the test server can also utilize it
func CoreInit(s *store.Store) *gin.Engine {
	logger.For(nil).Info("initializing server...")

	if env.GetString("ENV") != "production" {
		gin.SetMode(gin.DebugMode)
		logger.SetLoggerOptions(func(l *logrus.Logger) {
			l.SetLevel(logrus.DebugLevel)
		})
	}

	router := gin.Default()

	if env.GetString("SENTRY_DSN") != "" {
		router.Use(middleware.Sentry())
	}
	router.Use(middleware.HandleCORS(), middleware.GinContextToContext(), middleware.ErrLogger())

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validate.RegisterCustomValidators(v)
	}

	if staticDir := env.GetString("STATIC_DIR"); staticDir != "" {
		router.NoRoute(serveStatic(staticDir))
	}

	return handlersInit(router, s)
}

// NewStore assembles the metadata store from the environment. Missing remote
// credentials are not fatal: reads degrade to the local snapshots and
// uploads are rejected.
func NewStore() *store.Store {
	cfg := cloudinary.ConfigFromEnv()

	var remote store.Remote
	if cfg.Valid() {
		remote = cloudinary.NewClient(cfg)
		logger.For(nil).Info("remote media store configured")
	} else {
		logger.For(nil).Warn("remote media store not configured, serving local snapshots only")
	}

	return store.New(remote, store.ConfigFromEnv())
}

// SetDefaults sets the default values for the viper config and reads the
// optional .env file used in local development.
func SetDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("PORT", "5002")
	viper.SetDefault("ADMIN_PASS", "")
	viper.SetDefault("ALLOWED_ORIGINS", "")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("STATIC_DIR", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("CLOUDINARY_FOLDER", "georges_photo_gallery")
	viper.SetDefault("CLOUDINARY_BASE_URL", "")
	viper.SetDefault("PHOTOS_CACHE_FILE", "photos_data.json")
	viper.SetDefault("COLLECTIONS_CACHE_FILE", "collections_data.json")
	viper.SetDefault("EMPTY_REMOTE_FALLBACK", true)

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	if err := viper.ReadInConfig(); err == nil {
		logger.For(nil).Info("loaded config from .env")
	}
}

func initSentry() {
	dsn := env.GetString("SENTRY_DSN")
	if dsn == "" {
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env.GetString("ENV"),
	})
	if err != nil {
		logger.For(nil).Errorf("initializing sentry: %s", err)
	}
}

// serveStatic serves the bundled frontend for any path no API route claims.
func serveStatic(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, util.ErrorResponse{Error: "not found"})
			return
		}

		path := c.Request.URL.Path
		if path == "/" {
			path = "/index.html"
		}
		full := filepath.Join(dir, filepath.Clean(path))
		if !util.FileExists(full) {
			c.JSON(http.StatusNotFound, util.ErrorResponse{Error: "not found"})
			return
		}
		c.File(full)
	}
}
