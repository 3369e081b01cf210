// Package main runs the maintenance order HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/condoops/backend/config"
	"github.com/condoops/backend/internal/activity"
	"github.com/condoops/backend/internal/auth"
	"github.com/condoops/backend/internal/dashboard"
	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/internal/orders"
	"github.com/condoops/backend/internal/roles"
	"github.com/condoops/backend/internal/tenants"
	"github.com/condoops/backend/internal/users"
	"github.com/condoops/backend/internal/vendors"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/queue"
	"github.com/condoops/backend/pkg/redis"
	"github.com/condoops/backend/pkg/response"
	"github.com/condoops/backend/pkg/storage"
)

const emailQueueKey = "emails"

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		AttachmentsBucket:    cfg.AWS.AttachmentsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	emailQueue := queue.New(rdb, emailQueueKey)

	// Notification plumbing
	emailLogRepo := emaillog.NewRepository(pool)
	notifier := emaillog.NewNotifier(emailLogRepo, emailQueue, cfg.App.Name, logger)

	// Audit trail
	activityRepo := activity.NewRepository(pool)
	activityHandler := activity.NewHandler(activityRepo, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, notifier, activityRepo, cfg.App.BaseURL, logger)

	// Users
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, notifier, activityRepo, logger)

	// Roles
	roleRepo := roles.NewRepository(pool)
	roleHandler := roles.NewHandler(roleRepo, logger)

	// Companies, condominiums, areas
	tenantRepo := tenants.NewRepository(pool)
	tenantHandler := tenants.NewHandler(tenantRepo, logger)

	// Vendors
	vendorRepo := vendors.NewRepository(pool)
	vendorHandler := vendors.NewHandler(vendorRepo, logger)

	// Orders
	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo)
	orderHandler := orders.NewHandler(orderService, orderRepo, s3Client, notifier, emailLogRepo, activityRepo, logger)

	// Dashboard
	dashboardRepo := dashboard.NewRepository(pool)
	dashboardHandler := dashboard.NewHandler(dashboardRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Protected API (JWT + resolved scope)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService), middleware.Scope(authRepo))
	{
		api.GET("/auth/me", authHandler.Me)

		// Condominiums and areas (read, scoped)
		api.GET("/condominiums", tenantHandler.ListCondominiums)
		api.GET("/condominiums/:id", tenantHandler.GetCondominium)
		api.GET("/condominiums/:id/areas", tenantHandler.ListAreas)
		api.GET("/condominiums/:id/users", userHandler.Members)

		// Vendors (read)
		api.GET("/vendors", vendorHandler.List)
		api.GET("/vendors/:id", vendorHandler.Get)

		// Orders
		api.POST("/orders", middleware.RequirePermission(models.PermCreateOrder), orderHandler.Create)
		api.GET("/orders", orderHandler.List)
		api.GET("/orders/:id", orderHandler.Get)
		api.PUT("/orders/:id", middleware.RequirePermission(models.PermEditOrder), orderHandler.Update)
		api.DELETE("/orders/:id", middleware.RequirePermission(models.PermDeleteOrder), orderHandler.Delete)
		api.POST("/orders/:id/status", middleware.RequirePermission(models.PermEditOrder), orderHandler.ChangeStatus)
		api.GET("/orders/:id/comments", orderHandler.ListComments)
		api.POST("/orders/:id/comments", orderHandler.AddComment)
		api.GET("/orders/:id/attachments", orderHandler.ListAttachments)
		api.POST("/orders/:id/attachments", middleware.RequirePermission(models.PermEditOrder), orderHandler.UploadAttachment)
		api.GET("/orders/:id/attachments/:attachment_id/download", orderHandler.DownloadAttachment)
		api.DELETE("/orders/:id/attachments/:attachment_id", middleware.RequirePermission(models.PermEditOrder), orderHandler.DeleteAttachment)
		api.GET("/orders/:id/emails", orderHandler.ListEmails)

		// Dashboard (view_reports, short cache)
		dash := api.Group("/dashboard", middleware.RequirePermission(models.PermViewReports), middleware.CacheControl(300))
		{
			dash.GET("/summary", dashboardHandler.Summary)
			dash.GET("/charts", dashboardHandler.Charts)
		}

		// Admin
		admin := api.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/summary", dashboardHandler.AdminSummary)

			admin.GET("/users", userHandler.List)
			admin.GET("/users/:id", userHandler.Get)
			admin.PUT("/users/:id", userHandler.Update)
			admin.POST("/users/:id/approve", userHandler.Approve)
			admin.PUT("/users/:id/assignments", userHandler.Assign)
			admin.DELETE("/users/:id", userHandler.Delete)

			admin.GET("/roles", roleHandler.List)
			admin.GET("/roles/:id", roleHandler.Get)
			admin.POST("/roles", roleHandler.Create)
			admin.PUT("/roles/:id", roleHandler.Update)
			admin.DELETE("/roles/:id", roleHandler.Delete)

			admin.GET("/companies", tenantHandler.ListCompanies)
			admin.POST("/companies", tenantHandler.CreateCompany)
			admin.PUT("/companies/:id", tenantHandler.UpdateCompany)
			admin.DELETE("/companies/:id", tenantHandler.DeleteCompany)

			admin.POST("/condominiums", tenantHandler.CreateCondominium)
			admin.PUT("/condominiums/:id", tenantHandler.UpdateCondominium)
			admin.DELETE("/condominiums/:id", tenantHandler.DeleteCondominium)
			admin.POST("/condominiums/:id/areas", tenantHandler.CreateArea)
			admin.PUT("/areas/:id", tenantHandler.UpdateArea)
			admin.DELETE("/areas/:id", tenantHandler.DeleteArea)

			admin.POST("/vendors", vendorHandler.Create)
			admin.PUT("/vendors/:id", vendorHandler.Update)
			admin.DELETE("/vendors/:id", vendorHandler.Delete)

			admin.GET("/activity", activityHandler.List)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
