package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskboard/config"
	"taskboard/handler"
	"taskboard/recurrence"
	"taskboard/repository"
	"taskboard/services"
	"taskboard/usecase"
	"taskboard/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)
	utils.InitValidator()

	// Initialize MongoDB connection
	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	client, err := utils.ConnectMongo(connectCtx, cfg.Database.ClientOptions())
	cancel()
	if err != nil {
		log.Fatalf("%v", err)
	}

	tasksRepo := repository.GetTasksRepo(client, cfg.Database.DatabaseName, cfg.Database.TasksCollection)
	if err := repository.SetupIndexes(context.Background(), tasksRepo.MongoCollection); err != nil {
		log.Fatalf("%v", err)
	}

	dueCache, err := services.NewDueCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize deadline cache: %v", err)
	}

	tasksService := usecase.NewTasksService(tasksRepo, dueCache,
		usecase.WithResolver(recurrence.NewResolver(cfg.Recurrence.ResolverOptions()...)),
		usecase.WithCacheTTL(cfg.Cache.TTL),
		usecase.WithPreviewLimit(cfg.Recurrence.PreviewLimit),
		usecase.WithDeadlineWindow(cfg.Recurrence.DeadlineWindow),
	)

	checks := map[string]handler.HealthCheck{
		"mongo": func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
	redisCache, usesRedis := dueCache.(*services.RedisDueCache)
	if usesRedis {
		checks["redis"] = func(ctx context.Context) error {
			return redisCache.Client.Ping(ctx).Err()
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Service:        tasksService,
		Server:         cfg.Server,
		Auth:           cfg.Auth,
		HealthChecks:   checks,
		CalendarMaxAge: cfg.Cache.TTL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	log.Printf("Caught signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if usesRedis {
		if err := redisCache.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	utils.DisconnectMongo(ctx)
	log.Println("Server shutdown complete")
}
