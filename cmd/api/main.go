package main

import (
	"context"
	"os"
	"strconv"
	"strings"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/cache"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/logger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// @title           Inventory Valuation & Order Pricing API
// @version         1.0
// @description     Weighted-average stock valuation, order pricing and payment tracking for the warehouse dashboard.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// The file is a development convenience; deployment sets real env vars.
	_ = godotenv.Load("configs/.env")

	env := os.Getenv("GIN_MODE")
	log, err := logger.New(env)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewConnection(buildDSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Redis is optional: without REDIS_ADDR report reads go straight to the DB.
	var reportCache cache.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		rc, err := cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
			reportCache = cache.NewMemoryCache()
		} else {
			log.Info("connected to Redis", zap.String("addr", addr))
			reportCache = rc
		}
	} else {
		reportCache = cache.NewMemoryCache()
	}
	defer func() { _ = reportCache.Close() }()

	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)
	txManager := repository.NewTransactionManager(db)

	// Services
	pricingEngine := service.NewPricingEngine(pricingConfigFromEnv(log))
	authService := service.NewAuthService(userRepo, middleware.GetJWTSecret())
	partnerService := service.NewPartnerService(partnerRepo)
	articleService := service.NewArticleService(articleRepo, auditRepo, txManager, log)
	stockService := service.NewStockService(articleRepo, stockRepo, movementRepo, partnerRepo, auditRepo, txManager, wsHub, log)
	orderService := service.NewOrderService(orderRepo, paymentRepo, articleRepo, partnerRepo, auditRepo, stockService, pricingEngine, txManager, wsHub, log)
	pricingService := service.NewPricingService(articleRepo, pricingEngine)
	reportService := service.NewReportService(reportRepo, reportCache, log)
	auditService := service.NewAuditService(auditRepo)

	bootstrapAdmin(userRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	articleHandler := handler.NewArticleHandler(articleService)
	stockHandler := handler.NewStockHandler(stockService)
	orderHandler := handler.NewOrderHandler(orderService)
	pricingHandler := handler.NewPricingHandler(pricingService)
	reportHandler := handler.NewReportHandler(reportService)
	auditHandler := handler.NewAuditHandler(auditService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = corsOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	api := router.Group("")
	authHandler.RegisterRoutes(api)
	partnerHandler.RegisterRoutes(api)
	articleHandler.RegisterRoutes(api)
	stockHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	pricingHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func buildDSN() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	host := get("DB_HOST", "localhost")
	port := get("DB_PORT", "5432")
	user := get("DB_USER", "postgres")
	password := get("DB_PASSWORD", "postgres")
	name := get("DB_NAME", "postgres")
	sslMode := get("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

// pricingConfigFromEnv starts from the default rules and lets the deployment
// override the VAT rate and the discount category sets.
func pricingConfigFromEnv(log *zap.Logger) service.PricingConfig {
	cfg := service.DefaultPricingConfig()

	if raw := os.Getenv("PRICING_VAT_RATE"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			log.Warn("invalid PRICING_VAT_RATE, keeping default", zap.String("value", raw))
		} else {
			cfg.VATRate = rate
		}
	}
	if raw := os.Getenv("DISCOUNT_CATEGORIES"); raw != "" {
		cfg.DiscountableCategories = splitCategories(raw)
	}
	if raw := os.Getenv("DISCOUNT_EXCLUDED_CATEGORIES"); raw != "" {
		cfg.ExcludedCategories = splitCategories(raw)
	}
	return cfg
}

func splitCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func corsOrigins() []string {
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		return splitCategories(raw)
	}
	return []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"}
}

// bootstrapAdmin seeds the first admin account on an empty user table so the
// API is usable right after the initial migration.
func bootstrapAdmin(userRepo repository.UserRepository, log *zap.Logger) {
	ctx := context.Background()

	count, err := userRepo.Count(ctx)
	if err != nil {
		log.Warn("could not check user count, skipping admin bootstrap", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" {
		username = "admin"
	}
	if password == "" {
		if os.Getenv("GIN_MODE") == "release" {
			log.Warn("no users exist and ADMIN_PASSWORD is unset, skipping admin bootstrap")
			return
		}
		password = "admin123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash bootstrap admin password", zap.Error(err))
		return
	}

	admin := &model.User{Username: username, Password: string(hash), Role: "admin"}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Error("failed to create bootstrap admin", zap.Error(err))
		return
	}
	log.Info("bootstrap admin created", zap.String("username", username))
}
