package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/cache"
	"ticket-booking-engine/internal/database"
	"ticket-booking-engine/internal/handler"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/internal/scheduler"
	"ticket-booking-engine/internal/service"
	"ticket-booking-engine/internal/token"
	"ticket-booking-engine/internal/worker"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log := logger.WithComponent("main")
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories and engine collaborators.
	eventRepo := repository.NewEventRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	tokens := token.NewGenerator(cfg.Booking.VerificationSecret)
	statsCache := cache.NewStatsCache(rdb, cfg.Booking.StatsCacheTTL)

	notifyQueue, err := queue.NewRedisStreamNotificationQueue(rdb, "", nil)
	if err != nil {
		log.Fatal("failed to initialize notification queue", zap.Error(err))
	}

	// Services.
	bookingService := service.NewBookingService(pool, bookingRepo, eventRepo, tokens, notifyQueue, statsCache, cfg.Booking)
	eventService := service.NewEventService(eventRepo)
	statsService := service.NewStatsService(bookingRepo, statsCache)
	verificationService := service.NewVerificationService(bookingRepo, eventRepo, tokens)

	// Background reconciliation.
	sched := scheduler.New(cfg.Scheduler.Enabled,
		scheduler.NewExpireBookingsJob(pool, bookingRepo, eventRepo, notifyQueue, statsCache, cfg.Scheduler),
		scheduler.NewProcessRefundsJob(pool, bookingRepo, eventRepo, notifyQueue, cfg.Booking, cfg.Scheduler),
		scheduler.NewSendConfirmationsJob(bookingRepo, notifyQueue, cfg.Scheduler),
		scheduler.NewSendRemindersJob(bookingRepo, notifyQueue, cfg.Scheduler),
		scheduler.NewArchiveRecordsJob(bookingRepo, eventRepo, cfg.Scheduler),
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	notificationWorker := worker.NewNotificationWorker(worker.LogNotifier{}, notifyQueue)
	if err := notificationWorker.Start(workerCtx); err != nil {
		log.Fatal("failed to start notification worker", zap.Error(err))
	}

	sched.Start(workerCtx)

	// HTTP surface.
	router := gin.Default()
	router.Use(metrics.PrometheusMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.NewBookingHandler(bookingService).RegisterRoutes(router)
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewVerificationHandler(verificationService).RegisterRoutes(router)
	handler.NewAdminHandler(sched, statsService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server is running", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, then stop background
	// mutation, then drain the worker.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	sched.Stop()
	stopWorker()

	log.Info("server stopped")
}
