package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"skillscape-chat/internal/auth"
	"skillscape-chat/internal/broker"
	"skillscape-chat/internal/config"
	"skillscape-chat/internal/db"
	"skillscape-chat/internal/handlers"
	"skillscape-chat/internal/logging"
	"skillscape-chat/internal/middleware"
	"skillscape-chat/internal/observability"
	"skillscape-chat/internal/presence"
	"skillscape-chat/internal/repositories"
	"skillscape-chat/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Setup(cfg.Logger)

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.SetupTracing(context.Background(), cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to set up tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	var tracker presence.Tracker
	if cfg.Redis.Addr != "" {
		redisTracker, err := presence.NewRedisTracker(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisTracker.Close()
		tracker = redisTracker
	} else {
		log.Println("redis not configured, using in-memory presence")
		tracker = presence.NewLocalTracker()
	}

	instanceID := uuid.NewString()
	bus := broker.NewBus(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, instanceID)
	defer bus.Close()

	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Minute)

	hub := ws.NewHub()
	relay := ws.NewRelay(hub, chatRepo, messageRepo, friendRepo, tracker, bus, instanceID)
	gateway := ws.NewGateway(hub, relay, issuer)

	if err := broker.Subscribe(bus, relay.ApplyRemote); err != nil {
		log.Fatalf("failed to start broker consumer: %v", err)
	}

	authHandler := handlers.NewAuthHandler(userRepo, issuer)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, tracker)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, friendRepo, userRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("skillscape-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(issuer)

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	router.GET("/friends", authMiddleware, friendHandler.ListFriends)
	router.GET("/friends/requests", authMiddleware, friendHandler.ListIncoming)
	router.POST("/friends/requests", authMiddleware, friendHandler.SendRequest)
	router.POST("/friends/requests/:request_id/accept", authMiddleware, friendHandler.Accept)
	router.POST("/friends/requests/:request_id/reject", authMiddleware, friendHandler.Reject)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/:friend_id", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)

	router.GET("/ws", gateway.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
