package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sehyun-park/clinicbook/internal/availability"
	"github.com/sehyun-park/clinicbook/internal/events"
	"github.com/sehyun-park/clinicbook/internal/handlers"
	"github.com/sehyun-park/clinicbook/internal/notify"
	"github.com/sehyun-park/clinicbook/internal/sms"
	"github.com/sehyun-park/clinicbook/internal/storage"
	"github.com/sehyun-park/clinicbook/libs/config"
	"github.com/sehyun-park/clinicbook/libs/db"
	"github.com/sehyun-park/clinicbook/libs/httpx"
	"github.com/sehyun-park/clinicbook/libs/kafkax"
	otelx "github.com/sehyun-park/clinicbook/libs/otel"
	"github.com/sehyun-park/clinicbook/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "clinicbook")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	adminSecret, err := config.RequiredString("ADMIN_SECRET")
	if err != nil {
		panic(err)
	}
	slots := config.List("CLINIC_SLOTS", availability.DefaultSlots)

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewAppointmentRepository(pool)
	if err := repo.Init(ctx); err != nil {
		logger.Error("schema init failed", "err", err)
		panic(err)
	}

	smsCfg := sms.ProviderConfig{
		APIURL:     config.String("SMS_API_URL", ""),
		AccountID:  config.String("SMS_ACCOUNT_ID", ""),
		AuthToken:  config.String("SMS_AUTH_TOKEN", ""),
		FromNumber: config.String("SMS_FROM_NUMBER", ""),
	}
	var sender sms.Sender
	if smsCfg.Complete() {
		sender = sms.NewProviderSender(smsCfg)
		logger.Info("sms confirmations enabled", "provider", sender.ProviderID())
	} else {
		sender = sms.NewNoopSender()
		logger.Info("sms credentials absent; confirmations disabled")
	}
	notifier := notify.NewDispatcher(sender, logger, 3*time.Second)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	publisher := events.NewPublisher(kafkaBrokers, logger)
	defer publisher.Close()

	bookingHandler := handlers.NewBookingHandler(repo, slots, notifier, publisher, logger)
	adminHandler := handlers.NewAdminHandler(repo, slots, adminSecret, publisher, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var rateLimitMW httpx.Middleware
	redisAddr := config.String("REDIS_ADDR", "")
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", redisAddr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/v1/public/slots", httpx.Chain(http.HandlerFunc(bookingHandler.Slots), rateLimitMW))
	mux.Handle("/api/v1/public/book", httpx.Chain(http.HandlerFunc(bookingHandler.Book), rateLimitMW))
	mux.Handle("/api/v1/public/appointments", httpx.Chain(http.HandlerFunc(bookingHandler.List), rateLimitMW))
	mux.Handle("/api/v1/admin/appointments", adminHandler.RequireSecret(http.HandlerFunc(adminHandler.List)))
	mux.Handle("/api/v1/admin/appointments/reschedule", adminHandler.RequireSecret(http.HandlerFunc(adminHandler.Reschedule)))
	mux.Handle("/api/v1/admin/appointments/cancel", adminHandler.RequireSecret(http.HandlerFunc(adminHandler.Cancel)))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", nil),
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-Id", handlers.AdminSecretHeader},
			AllowCredentials: false,
			MaxAge:           10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinicbook")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
