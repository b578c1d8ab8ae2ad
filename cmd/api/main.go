package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nearbuy-chat/internal/config"
	"nearbuy-chat/internal/domain"
	"nearbuy-chat/internal/handler"
	"nearbuy-chat/internal/middleware"
	"nearbuy-chat/internal/redis"
	"nearbuy-chat/internal/repository"
	"nearbuy-chat/internal/services"
	"nearbuy-chat/internal/storage"
	ws "nearbuy-chat/internal/websocket"
	"nearbuy-chat/pkg/database"
	"nearbuy-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Server.Environment)
	defer log.Logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Errorf("database connection failed: %v", err)
		return
	}
	if err := db.AutoMigrate(
		&domain.Conversation{},
		&domain.ConversationUnread{},
		&domain.Message{},
		&domain.Attachment{},
		&domain.MessageRead{},
		&domain.OutboxEvent{},
	); err != nil {
		log.Errorf("migration failed: %v", err)
		return
	}

	redisClient := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	presence := redis.NewPresenceStore(redisClient, 5*time.Minute)
	publisher := redis.NewPublisher(redisClient)
	subscriber := redis.NewSubscriber(redisClient)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	chat := services.NewChatService(db, convRepo, msgRepo, outboxRepo, cfg.Chat)
	auth := services.NewAuthService(cfg.Auth, presence)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry)
	chat.SetPresence(hub)
	gateway := ws.NewGateway(hub, chat)
	wsHandler := ws.NewHandler(auth, hub, gateway, presence, log)

	worker := services.NewDispatchWorker(outboxRepo, convRepo, publisher, services.NewLogNotifier(log), log)
	worker.Start()
	defer worker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bridge := ws.NewBridge(subscriber, hub, log)
	go bridge.Run(ctx)

	var uploads *services.UploadS3Service
	if cfg.S3.Bucket != "" {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PublicBase: cfg.S3.PublicBase,
			PresignTTL: cfg.S3.PresignTTL,
		})
		if err != nil {
			log.Errorf("s3 client init failed: %v", err)
			return
		}
		uploads = services.NewUploadS3Service(s3Client, 0)
	}

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", wsHandler.Connect)

	conversationHandler := handler.NewConversationHandler(chat)
	messageHandler := handler.NewMessageHandler(chat, hub)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(auth))
	{
		v1.POST("/conversations", conversationHandler.Open)
		v1.GET("/conversations", conversationHandler.List)
		v1.GET("/conversations/:id", conversationHandler.GetByID)
		v1.POST("/conversations/:id/archive", conversationHandler.Archive)
		v1.POST("/conversations/:id/read", conversationHandler.MarkRead)
		v1.GET("/conversations/:id/messages", messageHandler.List)

		v1.POST("/messages", middleware.MessageRateLimitMiddleware(limiter), messageHandler.Send)
		v1.PATCH("/messages/:id", messageHandler.Edit)
		v1.DELETE("/messages/:id", messageHandler.Delete)

		if uploads != nil {
			uploadHandler := handler.NewUploadHandler(uploads)
			v1.POST("/uploads/presign", uploadHandler.Presign)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infof("starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}
