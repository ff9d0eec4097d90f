package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/cache"
	"github.com/AhmedAbdelmoaty/Assessment/internal/config"
	"github.com/AhmedAbdelmoaty/Assessment/internal/db"
	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/handlers"
	"github.com/AhmedAbdelmoaty/Assessment/internal/llm"
	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/repository"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
	"github.com/AhmedAbdelmoaty/Assessment/pkg/discovery"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()
	mongoClient, err := db.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Disconnect(mongoClient)
	database := mongoClient.Database(cfg.MongoDB.Database)

	// Redis session cache is optional; without it every read goes to Mongo.
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis not reachable, running without session cache: %v", err)
			redisClient = nil
		}
	}
	sessionCache := cache.NewSessionCache(redisClient, cfg.Redis.SessionTTL)

	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	if cfg.Consul.Enabled {
		registry, rerr := discovery.NewServiceRegistry(cfg)
		if rerr != nil {
			log.Fatalf("Service discovery init failed: %v", rerr)
		}
		if rerr := registry.Register(); rerr != nil {
			log.Fatalf("Service registration failed: %v", rerr)
		}
		defer registry.Deregister()
	}

	sessionRepo := repository.NewSessionRepository(database)
	messageRepo := repository.NewMessageRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	resultRepo := repository.NewResultRepository(database)
	idemRepo := repository.NewIdempotencyRepository(database)
	if err := idemRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure idempotency indexes: %v", err)
	}

	llmClient := llm.NewClient(cfg.LLM)
	generator := llm.NewGenerator(llmClient)
	engine := assessment.NewEngine()

	sessionService := service.NewSessionService(sessionRepo, messageRepo, profileRepo, sessionCache, publisher)
	intakeService := service.NewIntakeService(sessionService, profileRepo)
	assessService := service.NewAssessService(sessionService, engine, generator, idemRepo, resultRepo, publisher)
	reportService := service.NewReportService(sessionService, generator, idemRepo, publisher)
	teachService := service.NewTeachService(sessionService, generator, publisher)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	intakeHandler := handlers.NewIntakeHandler(intakeService)
	assessHandler := handlers.NewAssessHandler(assessService)
	reportHandler := handlers.NewReportHandler(reportService, resultRepo)
	teachHandler := handlers.NewTeachHandler(teachService)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.Server.ServiceName,
			"llm":     llmClient.IsConnected(),
		})
	})

	api := r.Group("/api", middleware.Auth(cfg.JWT.Secret))
	{
		api.GET("/chat/current", sessionHandler.GetCurrent)
		api.POST("/session/new", sessionHandler.StartNew)
		api.GET("/sessions", sessionHandler.History)

		api.POST("/intake/next", intakeHandler.Next)

		api.POST("/assess/next", assessHandler.Next)
		api.POST("/assess/answer", assessHandler.Answer)

		api.POST("/report", reportHandler.Build)
		api.GET("/results", reportHandler.Results)

		api.POST("/teach/start", teachHandler.Start)
		api.POST("/teach/message", teachHandler.Message)
	}

	log.Printf("Server running on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
