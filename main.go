package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultFetchTimeout      = 10 * time.Second
	adminTokenDuration       = 8 * time.Hour
	devCORSOriginLocalhost   = "http://localhost:5173"
	devCORSOriginLoopback    = "http://127.0.0.1:5173"
	trustedProxyLoopbackIPv4 = "127.0.0.1"
	trustedProxyLoopbackIPv6 = "::1"
)

type Config struct {
	Addr             string
	Env              string
	AppSigningSecret string
	DatasetURL       string
	DatasetPath      string
	DatasetProvider  string
	FetchTimeout     time.Duration
	CORSOrigins      []string
}

type App struct {
	cfg      *Config
	log      *slog.Logger
	provider DatasetProvider
	dataset  *datasetState
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := &App{
		cfg:      cfg,
		log:      logger,
		provider: buildDatasetProvider(cfg),
		dataset:  &datasetState{},
	}

	logger.Info(
		"runtime configuration",
		"env", cfg.Env,
		"addr", cfg.Addr,
		"dataset_provider", cfg.DatasetProvider,
		"dataset_source", app.provider.Source(),
	)

	ctx := context.Background()
	if err := app.reloadDataset(ctx); err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			logger.Error("initial dataset load failed", "source", fetchErr.Source, "err", err)
		}
		os.Exit(1)
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := app.buildRouter()

	logger.Info("listening", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func (a *App) buildRouter() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		panic(err)
	}
	r.Use(gin.Recovery())
	r.Use(a.loggingMiddleware())
	r.Use(a.corsMiddleware())

	r.GET("/healthz", a.handleHealthz)

	api := r.Group("/api")
	{
		api.GET("/provinces", a.handleListProvinces)
		api.GET("/provinces/:id/regencies", a.handleListRegencies)
		api.GET("/regencies/:id/districts", a.handleListDistricts)

		api.GET("/selection", a.handleGetSelection)
		api.POST("/selection/province", a.handleSetProvince)
		api.POST("/selection/regency", a.handleSetRegency)
		api.POST("/selection/district", a.handleSetDistrict)
		api.POST("/selection/reset", a.handleResetSelection)

		admin := api.Group("/admin", a.requireAdmin())
		{
			admin.POST("/dataset/reload", a.handleDatasetReload)
			admin.GET("/dataset/status", a.handleDatasetStatus)
		}
	}

	return r
}

func buildDatasetProvider(cfg *Config) DatasetProvider {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	httpProvider := &HTTPDatasetProvider{URL: cfg.DatasetURL, Client: httpClient}
	fileProvider := &FileDatasetProvider{Path: cfg.DatasetPath}

	switch cfg.DatasetProvider {
	case "http":
		return httpProvider
	case "file":
		return fileProvider
	default:
		return &FallbackDatasetProvider{Primary: httpProvider, Secondary: fileProvider}
	}
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
		a.log.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if a.isAllowedCORSOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *App) isAllowedCORSOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range a.cfg.CORSOrigins {
		if origin == allowed {
			return true
		}
	}
	if a.cfg.Env == "development" {
		return origin == devCORSOriginLocalhost || origin == devCORSOriginLoopback
	}
	return false
}

func loadConfig() (*Config, error) {
	secret := strings.TrimSpace(os.Getenv("APP_SIGNING_SECRET"))
	if len(secret) < 16 {
		return nil, fmt.Errorf("APP_SIGNING_SECRET must be at least 16 characters")
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	datasetURL := strings.TrimSpace(os.Getenv("WILAYAH_DATASET_URL"))
	datasetPath := valueOrDefault("WILAYAH_DATASET_PATH", "data/regions.json")

	provider := valueOrDefault("WILAYAH_DATASET_PROVIDER", "fallback")
	switch provider {
	case "http", "file", "fallback":
	default:
		return nil, fmt.Errorf("WILAYAH_DATASET_PROVIDER must be http, file or fallback")
	}
	if provider == "http" && datasetURL == "" {
		return nil, fmt.Errorf("WILAYAH_DATASET_URL must be set for the http provider")
	}

	fetchTimeout := defaultFetchTimeout
	if raw := strings.TrimSpace(os.Getenv("WILAYAH_FETCH_TIMEOUT_S")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("WILAYAH_FETCH_TIMEOUT_S must be a positive integer")
		}
		fetchTimeout = time.Duration(parsed) * time.Second
	}

	var corsOrigins []string
	for _, origin := range strings.Split(os.Getenv("WILAYAH_CORS_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			corsOrigins = append(corsOrigins, strings.TrimRight(origin, "/"))
		}
	}

	return &Config{
		Addr:             valueOrDefault("GIN_ADDR", ":8080"),
		Env:              env,
		AppSigningSecret: secret,
		DatasetURL:       datasetURL,
		DatasetPath:      datasetPath,
		DatasetProvider:  provider,
		FetchTimeout:     fetchTimeout,
		CORSOrigins:      corsOrigins,
	}, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
