package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ougirez/volstat/internal/api/controller"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/access"
	"github.com/ougirez/volstat/internal/service/aggregation"
	"github.com/ougirez/volstat/internal/service/auth"
	"github.com/ougirez/volstat/internal/service/deletion"
	"github.com/ougirez/volstat/internal/service/export"
	"github.com/ougirez/volstat/internal/service/statistics"
	"github.com/ougirez/volstat/internal/service/upload"
)

type Dependencies struct {
	Store    *statistics.Store
	Engine   *aggregation.Engine
	Uploads  *upload.Registry
	Cascade  *deletion.Cascade
	Exporter *export.Exporter
	Files    controller.FileCatalog
	Auth     *auth.Service
}

type Options struct {
	AllowedOrigins []string
	// BodyLimit uses echo's size notation, e.g. "16MB".
	BodyLimit string
	// MaxUploadSize caps the uploaded spreadsheet in bytes; 0 means no cap.
	MaxUploadSize int64
}

type APIService struct {
	router      *echo.Echo
	authService *auth.Service
}

func (svc *APIService) Serve(addr string) error {
	err := svc.router.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func NewAPIService(deps Dependencies, opts Options) (*APIService, error) {
	svc := &APIService{router: echo.New(), authService: deps.Auth}

	svc.router.HideBanner = true
	svc.router.HidePort = true
	svc.router.JSONSerializer = sonicSerializer{}
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = httpErrorHandler

	svc.router.Use(middleware.Recover())
	svc.router.Use(RequestContext)
	svc.router.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Infof(c.Request().Context(), "%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	if opts.BodyLimit != "" {
		svc.router.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	cntrl := controller.NewController(deps.Store, deps.Engine, deps.Uploads, deps.Cascade, deps.Exporter, deps.Files, opts.MaxUploadSize)

	api := svc.router.Group("/api/v1", svc.AuthMiddleware)
	api.GET("/me", cntrl.GetMe)

	stats := api.Group("/statistics", RequirePermission(access.PermViewStatistics))
	stats.GET("/current", cntrl.GetCurrentStatistics)
	stats.GET("/dashboard", cntrl.GetDashboard)
	stats.GET("/regions/:region", cntrl.GetRegionStatistics)
	stats.DELETE("/regions/:region", cntrl.DeleteRegionStatistics, RequirePermission(access.PermDelete))
	stats.GET("/events", cntrl.StreamEvents)
	stats.GET("/export", cntrl.ExportStatistics, RequirePermission(access.PermExportStatistics))

	uploads := api.Group("/uploads", RequirePermission(access.PermUpload))
	uploads.POST("", cntrl.CreateUpload)
	uploads.GET("/:id", cntrl.GetUpload)
	uploads.POST("/:id/analyze", cntrl.AnalyzeUpload)
	uploads.POST("/:id/confirm", cntrl.ConfirmUpload)
	uploads.DELETE("/:id", cntrl.CancelUpload)

	files := api.Group("/files")
	files.GET("", cntrl.ListFiles, RequirePermission(access.PermUpload))
	files.GET("/:id", cntrl.GetFile, RequirePermission(access.PermUpload))
	files.DELETE("/:id", cntrl.DeleteFile, RequirePermission(access.PermDelete))

	return svc, nil
}
