package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/BitGladiator/Vistagram/configs"
	"github.com/BitGladiator/Vistagram/internal/events"
	"github.com/BitGladiator/Vistagram/internal/feed"
	"github.com/BitGladiator/Vistagram/internal/identity"
	"github.com/BitGladiator/Vistagram/internal/posts"
	"github.com/BitGladiator/Vistagram/internal/ranking"
	"github.com/BitGladiator/Vistagram/internal/ratelimit"
	"github.com/BitGladiator/Vistagram/internal/shared/db"
	"github.com/BitGladiator/Vistagram/internal/shared/httpx"
	"github.com/BitGladiator/Vistagram/internal/shared/redisx"
	"github.com/BitGladiator/Vistagram/internal/social"
)

func initOTEL(ctx context.Context) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "otel-collector:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		log.Fatalf("otel exporter: %v", err)
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(os.Getenv("OTEL_SERVICE_NAME")),
		attribute.String("deployment.environment", os.Getenv("ENV")),
	))
	ratio := 1.0
	if s := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f >= 0 && f <= 1 {
			ratio = f
		}
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func main() {
	cfg := configs.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOTEL := initOTEL(ctx)
	defer func() {
		c, cancelOTEL := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelOTEL()
		_ = shutdownOTEL(c)
	}()

	// Feed cache + rate limiter
	rdb := redisx.Open(cfg.RedisAddr(), cfg.RedisPass)
	defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
	cache := feed.NewRedisCache(rdb)
	limiter := ratelimit.New(rdb)

	// Stores: posts and social graph live in independently owned databases.
	postsDB, err := db.Open(cfg.PostsDSN())
	if err != nil {
		log.Fatalf("posts db: %v", err)
	}
	socialDB, err := db.Open(cfg.SocialDSN())
	if err != nil {
		log.Fatalf("social db: %v", err)
	}

	svc := feed.NewService(
		cache,
		posts.NewRepository(postsDB),
		social.NewRepository(socialDB),
		identity.NewClient(cfg.UserServiceURL),
		feed.WithParams(ranking.Params{
			WeightRecency:    cfg.WeightRecency,
			WeightEngagement: cfg.WeightEngagement,
			WeightAffinity:   cfg.WeightAffinity,
			WeightContent:    cfg.WeightContent,
			DecayPerHour:     cfg.DecayPerHour,
			EngagementCap:    cfg.EngagementCap,
			AffinityDefault:  cfg.AffinityDefault,
			ContentDefault:   cfg.ContentDefault,
		}),
		feed.WithWindows(cfg.HomeWindow, cfg.ExploreWindow),
		feed.WithPoolSize(cfg.CandidatePoolSize),
		feed.WithTTLs(cfg.HomeTTL, cfg.ProfileTTL),
	)

	// Invalidation consumer, decoupled from request handling.
	consumer := events.NewConsumer(
		cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, cache,
		events.WithProfilePages(cfg.ProfileInvalidatePages),
		events.WithBackoff(cfg.ConsumerBackoff),
	)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Printf("invalidation consumer stopped: %v", err)
		}
	}()

	h := feed.NewHandler(svc, cfg.DefaultPageSize)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, map[string]string{"status": "ok", "service": "feed-service"}, http.StatusOK)
	})

	// Public:
	mux.Handle("GET /users/{user_id}/feed", httpx.Wrap(h.GetUserFeed))

	// Protected:
	protect := func(pattern string, handler http.Handler) {
		mux.Handle(pattern, httpx.AuthMiddleware(handler))
	}
	protect("GET /feed", httpx.Wrap(h.GetHomeFeed))
	protect("GET /feed/explore", httpx.Wrap(h.GetExploreFeed))

	clearLimit := limiter.LimitHTTP(1, 60*time.Second, func(r *http.Request) (string, error) {
		return httpx.UserFromCtx(r)
	}, httpx.Wrap(h.ClearCache))
	protect("DELETE /feed/cache", clearLimit)

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(mux, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-exit
		log.Println("shutting down feed service...")
		cancel()
		c, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSrv()
		_ = srv.Shutdown(c)
	}()

	log.Printf("feed-service listening on %s", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}
