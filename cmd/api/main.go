package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bakery-platform/batching-service/pkg/api"
	"github.com/bakery-platform/batching-service/pkg/errors"
	"github.com/bakery-platform/batching-service/pkg/kafka"
	"github.com/bakery-platform/batching-service/pkg/logging"
	"github.com/bakery-platform/batching-service/pkg/metrics"
	"github.com/bakery-platform/batching-service/pkg/middleware"
	"github.com/bakery-platform/batching-service/pkg/mongodb"

	"github.com/bakery-platform/batching-service/internal/application"
	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/internal/infrastructure/clients"
	kafkaAdapter "github.com/bakery-platform/batching-service/internal/infrastructure/kafka"
	mongoRepo "github.com/bakery-platform/batching-service/internal/infrastructure/mongodb"
)

const serviceName = "batching-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting batching-service API")

	config := loadConfig()
	ctx := context.Background()

	// Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Kafka producer
	kafkaProducer := kafka.NewProducer(config.Kafka)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Repositories and providers
	batchRepo := mongoRepo.NewBatchRepository(mongoClient.Database(), m)
	tierProvider := mongoRepo.NewTierProvider(mongoClient.Database(), logger)
	stockTaskProvider := mongoRepo.NewStockTaskProvider(mongoClient.Database(), logger)

	// Staff service client (implements domain.StaffProvider)
	staffClient := clients.NewStaffServiceClient(config.StaffServiceURL)
	logger.Info("Staff service client initialized", "url", config.StaffServiceURL)

	// Event publisher (implements domain.EventPublisher)
	eventPublisher := kafkaAdapter.NewEventPublisher(kafkaProducer, config.BatchEventsTopic, m)
	logger.Info("Event publisher initialized", "topic", config.BatchEventsTopic)

	// Domain configuration
	configProvider := domain.NewStaticConfigProvider(domain.DefaultBatchTypeConfigs())
	resolver := recipeResolver(config.RecipeIdentityMode, logger)
	factors := config.FrostingFactors

	// Application services
	batchService := application.NewBatchService(
		batchRepo,
		tierProvider,
		stockTaskProvider,
		staffClient,
		eventPublisher,
		resolver,
		configProvider,
		factors,
		m,
		logger,
	)
	groupingEngine := application.NewGroupingEngine(tierProvider, stockTaskProvider, resolver, factors, logger)
	scheduler := application.NewScheduler(configProvider, m, logger)
	planningService := application.NewPlanningService(
		groupingEngine, scheduler, batchService, batchRepo, configProvider, logger)

	// Gin router with middleware
	router := gin.New()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Correlation-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Correlation-ID"},
		AllowCredentials: true,
	}))

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	apiGroup := router.Group("/api/v1")
	{
		batches := apiGroup.Group("/batches")
		{
			batches.POST("", createBatchHandler(batchService, logger))
			batches.GET("", listBatchesHandler(batchService, logger))
			batches.GET("/:batchId", getBatchHandler(batchService, logger))
			batches.PATCH("/:batchId", updateBatchHandler(batchService, logger))
			batches.DELETE("/:batchId", deleteBatchHandler(batchService, logger))

			batches.POST("/:batchId/reschedule", rescheduleBatchHandler(batchService, logger))
			batches.POST("/:batchId/merge", mergeBatchesHandler(batchService, logger))
			batches.DELETE("/:batchId/members", removeMembersHandler(batchService, logger))
		}

		planning := apiGroup.Group("/planning")
		{
			planning.GET("/groups", listGroupsHandler(planningService, logger))
			planning.GET("/suggestions", suggestScheduleHandler(planningService, logger))
			planning.POST("/apply", applySuggestionsHandler(planningService, logger))
			planning.POST("/reconcile", reconcileHandler(batchService, logger))
		}
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr         string
	MongoDB            *mongodb.Config
	Kafka              *kafka.Config
	StaffServiceURL    string
	BatchEventsTopic   string
	CORSOrigins        []string
	RecipeIdentityMode string
	FrostingFactors    domain.FrostingFactors
}

func loadConfig() *Config {
	factors := domain.DefaultFrostingFactors()
	factors.LightGPerCm2 = parseFloat(getEnv("FROSTING_FACTOR_LIGHT", ""), factors.LightGPerCm2)
	factors.MediumGPerCm2 = parseFloat(getEnv("FROSTING_FACTOR_MEDIUM", ""), factors.MediumGPerCm2)
	factors.HeavyGPerCm2 = parseFloat(getEnv("FROSTING_FACTOR_HEAVY", ""), factors.HeavyGPerCm2)

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8004"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "bakery_production"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		StaffServiceURL:    getEnv("STAFF_SERVICE_URL", "http://localhost:8006"),
		BatchEventsTopic:   getEnv("BATCH_EVENTS_TOPIC", "bakery.batches.events"),
		CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
		RecipeIdentityMode: getEnv("RECIPE_IDENTITY_MODE", "name"),
	}
}

// recipeResolver picks the grouping identity strategy. Resolved-name
// equality is canonical; id mode is the stricter opt-in.
func recipeResolver(mode string, logger *logging.Logger) domain.IdentityResolver {
	if mode == "id" {
		logger.Info("Using recipe id grouping identity")
		return domain.RecipeIDResolver{}
	}
	return domain.ResolvedNameResolver{}
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

type createBatchRequest struct {
	BatchType    string   `json:"batchType" binding:"required"`
	RecipeID     string   `json:"recipeId"`
	RecipeName   string   `json:"recipeName"`
	Fallback     string   `json:"fallback"`
	Date         *string  `json:"date" binding:"omitempty,dateonly"`
	TierIDs      []string `json:"tierIds"`
	StockTaskIDs []string `json:"stockTaskIds"`
	AssignedTo   string   `json:"assignedTo"`
	Notes        string   `json:"notes"`
}

func createBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		cmd := application.CreateBatchCommand{
			BatchType: req.BatchType,
			Recipe: domain.RecipeRef{
				RecipeID:   req.RecipeID,
				RecipeName: req.RecipeName,
				Fallback:   req.Fallback,
			},
			TierIDs:      req.TierIDs,
			StockTaskIDs: req.StockTaskIDs,
			AssignedTo:   req.AssignedTo,
			Notes:        req.Notes,
		}
		if req.Date != nil {
			date, err := time.Parse(time.DateOnly, *req.Date)
			if err != nil {
				responder.RespondBadRequest("date must be YYYY-MM-DD")
				return
			}
			cmd.Date = &date
		}

		batch, err := service.CreateBatch(c.Request.Context(), cmd)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, batch)
	}
}

func listBatchesHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		query := application.ListBatchesQuery{
			Status:   c.Query("status"),
			TierID:   c.Query("tierId"),
			Page:     page.Page,
			PageSize: page.PageSize,
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse(time.DateOnly, fromStr)
			if err != nil {
				responder.RespondBadRequest("from must be YYYY-MM-DD")
				return
			}
			query.From = &from
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse(time.DateOnly, toStr)
			if err != nil {
				responder.RespondBadRequest("to must be YYYY-MM-DD")
				return
			}
			query.To = &to
		}
		if (query.From == nil) != (query.To == nil) {
			responder.RespondBadRequest("from and to must be provided together")
			return
		}

		batches, total, err := service.ListBatches(c.Request.Context(), query)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(batches, page.Page, page.PageSize, total))
	}
}

func getBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		batch, err := service.GetBatch(c.Request.Context(), application.GetBatchQuery{BatchID: c.Param("batchId")})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}

func updateBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			DurationDays *int    `json:"durationDays"`
			Notes        *string `json:"notes"`
			AssignedTo   *string `json:"assignedTo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		batch, err := service.UpdateBatchAttributes(c.Request.Context(), application.UpdateBatchAttributesCommand{
			BatchID:      c.Param("batchId"),
			DurationDays: req.DurationDays,
			Notes:        req.Notes,
			AssignedTo:   req.AssignedTo,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}

func deleteBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		err := service.DeleteBatch(c.Request.Context(), application.DeleteBatchCommand{
			BatchID: c.Param("batchId"),
			Reason:  c.Query("reason"),
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func rescheduleBatchHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Date         string `json:"date" binding:"required,dateonly"`
			DurationDays int    `json:"durationDays"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			responder.RespondBadRequest("date must be YYYY-MM-DD")
			return
		}

		result, err := service.RescheduleBatch(c.Request.Context(), application.RescheduleBatchCommand{
			BatchID:      c.Param("batchId"),
			Date:         date,
			DurationDays: req.DurationDays,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func mergeBatchesHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			SourceBatchID string `json:"sourceBatchId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		batch, err := service.MergeBatches(c.Request.Context(), application.MergeBatchesCommand{
			SourceBatchID: req.SourceBatchID,
			TargetBatchID: c.Param("batchId"),
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, batch)
	}
}

func removeMembersHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			TierIDs []string `json:"tierIds" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		result, err := service.RemoveMembers(c.Request.Context(), application.RemoveMembersCommand{
			BatchID: c.Param("batchId"),
			TierIDs: req.TierIDs,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func listGroupsHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		window, ok := parseWindow(c, responder)
		if !ok {
			return
		}

		groups, err := service.ListGroups(c.Request.Context(), window)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, groups)
	}
}

func suggestScheduleHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		window, ok := parseWindow(c, responder)
		if !ok {
			return
		}

		suggestions, err := service.SuggestSchedule(c.Request.Context(), window)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, suggestions)
	}
}

func applySuggestionsHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			From string `json:"from" binding:"required,dateonly"`
			To   string `json:"to" binding:"required,dateonly"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		from, _ := time.Parse(time.DateOnly, req.From)
		to, _ := time.Parse(time.DateOnly, req.To)
		if to.Before(from) {
			responder.RespondBadRequest("to must not be before from")
			return
		}

		result, err := service.ApplySuggestions(c.Request.Context(), application.PlanningWindow{From: from, To: to})
		if err != nil {
			respondError(responder, err)
			return
		}

		// Partial failures are reported per suggestion, not as an error
		status := http.StatusOK
		if result.Failed > 0 && result.Succeeded > 0 {
			status = http.StatusMultiStatus
		}
		c.JSON(status, result)
	}
}

func reconcileHandler(service *application.BatchService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		window, ok := parseWindow(c, responder)
		if !ok {
			return
		}

		actions, err := service.Reconcile(c.Request.Context(), window)
		if err != nil {
			respondError(responder, err)
			return
		}

		merges := make([]gin.H, 0, len(actions))
		for _, a := range actions {
			merges = append(merges, gin.H{
				"sourceBatchId": a.SourceBatchID,
				"targetBatchId": a.TargetBatchID,
			})
		}
		c.JSON(http.StatusOK, gin.H{"merges": merges})
	}
}

func parseWindow(c *gin.Context, responder *middleware.ErrorResponder) (application.PlanningWindow, bool) {
	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		responder.RespondBadRequest("from must be YYYY-MM-DD")
		return application.PlanningWindow{}, false
	}
	to, err := time.Parse(time.DateOnly, c.Query("to"))
	if err != nil {
		responder.RespondBadRequest("to must be YYYY-MM-DD")
		return application.PlanningWindow{}, false
	}
	if to.Before(from) {
		responder.RespondBadRequest("to must not be before from")
		return application.PlanningWindow{}, false
	}
	return application.PlanningWindow{From: from, To: to}, true
}

func respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}
