package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sigea-edu/sigea-api/api/swagger"
	"github.com/sigea-edu/sigea-api/internal/handler"
	"github.com/sigea-edu/sigea-api/internal/middleware"
	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/repository"
	"github.com/sigea-edu/sigea-api/internal/service"
	"github.com/sigea-edu/sigea-api/pkg/cache"
	"github.com/sigea-edu/sigea-api/pkg/config"
	"github.com/sigea-edu/sigea-api/pkg/database"
	"github.com/sigea-edu/sigea-api/pkg/export"
	"github.com/sigea-edu/sigea-api/pkg/logger"
	corsmiddleware "github.com/sigea-edu/sigea-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sigea-edu/sigea-api/pkg/middleware/requestid"
)

// @title SIGEA API
// @version 1.0.0
// @description Enrollment and grade-finalization service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	ruleRepo := repository.NewCapacityRuleRepository(db)
	assignmentRepo := repository.NewTeachingAssignmentRepository(db)
	preEnrollRepo := repository.NewPreEnrollmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	criterionRepo := repository.NewCriterionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	finalGradeRepo := repository.NewFinalGradeRepository(db)
	actaRepo := repository.NewActaRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sigea-api",
	})
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	preEnrollSvc := service.NewPreEnrollmentService(preEnrollRepo, studentRepo, periodRepo, catalogRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, periodRepo, catalogRepo, assignmentRepo, ruleRepo, preEnrollRepo, userRepo, validate, logr)
	gradeSvc := service.NewGradeService(scoreRepo, finalGradeRepo, enrollmentRepo, userRepo, validate, logr)
	criterionSvc := service.NewCriterionService(criterionRepo, assignmentRepo, actaRepo, validate, logr)
	actaSvc := service.NewActaService(actaRepo, assignmentRepo, finalGradeRepo, userRepo, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr)
	reportSvc := service.NewReportService(reportRepo, studentRepo, assignmentRepo, cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, assignmentRepo, validate, logr)
	ruleSvc := service.NewCapacityRuleService(ruleRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	preEnrollHandler := handler.NewPreEnrollmentHandler(preEnrollSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	criterionHandler := handler.NewCriterionHandler(criterionSvc)
	actaHandler := handler.NewActaHandler(actaSvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	ruleHandler := handler.NewCapacityRuleHandler(ruleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	periods := protected.Group("/periods")
	{
		periods.GET("", periodHandler.List)
		periods.GET("/active", periodHandler.GetActive)
		periods.GET("/:id", periodHandler.Get)
		periods.POST("", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, "PERIOD_CREATE", "periods"), periodHandler.Create)
		periods.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, "PERIOD_UPDATE", "periods"), periodHandler.Update)
		periods.PUT("/:id/activate", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, "PERIOD_ACTIVATE", "periods"), periodHandler.Activate)
	}

	preEnrollments := protected.Group("/pre-enrollments")
	{
		preEnrollments.GET("", preEnrollHandler.List)
		preEnrollments.GET("/:id", preEnrollHandler.Get)
		preEnrollments.POST("", preEnrollHandler.Create)
		preEnrollments.PUT("/:id/review", middleware.RequireRoles(models.RoleAdmin), preEnrollHandler.Review)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.GET("/:id/lines", enrollmentHandler.GetLines)
		enrollments.POST("", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Create)
		enrollments.POST("/promote", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Promote)
		enrollments.PUT("/:id/status", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.UpdateStatus)
	}

	grading := protected.Group("")
	grading.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		grading.GET("/lines/:lineId/scores", gradeHandler.GetLineScores)
		grading.POST("/scores", gradeHandler.RecordScore)
		grading.POST("/scores/batch", gradeHandler.RecordScores)
		grading.POST("/lines/:lineId/finalize", gradeHandler.FinalizeLine)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("", catalogHandler.ListAssignments)
		assignments.POST("", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, "ASSIGNMENT_CREATE", "teaching_assignments"), catalogHandler.CreateAssignment)
		assignments.GET("/:id", catalogHandler.GetAssignment)
		assignments.GET("/:id/criteria", criterionHandler.List)
		assignments.PUT("/:id/criteria", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), middleware.Audit(userRepo, "CRITERIA_REPLACE", "evaluation_criteria"), criterionHandler.Replace)
	}

	actas := protected.Group("/actas")
	{
		actas.GET("", actaHandler.List)
		actas.GET("/:id", actaHandler.Get)
		actas.GET("/:id/export", actaHandler.Export)
		actas.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), actaHandler.Close)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/assignments/:id/roster", reportHandler.Roster)
		reports.GET("/students/:id/transcript", reportHandler.Transcript)
	}

	catalog := protected.Group("/catalog")
	{
		catalog.GET("/programs", catalogHandler.ListPrograms)
		catalog.GET("/shifts", catalogHandler.ListShifts)
		catalog.GET("/course-units", catalogHandler.ListCourseUnits)
		catalog.GET("/course-units/:id", catalogHandler.GetCourseUnit)
	}

	rules := protected.Group("/capacity-rules")
	rules.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		rules.GET("", ruleHandler.List)
		rules.POST("", middleware.Audit(userRepo, "CAPACITY_RULE_CREATE", "capacity_rules"), ruleHandler.Create)
		rules.PUT("/:id", middleware.Audit(userRepo, "CAPACITY_RULE_UPDATE", "capacity_rules"), ruleHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
