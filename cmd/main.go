/**
 * @description
 * This is the main entry point for the monzo-mcp service. It loads configuration,
 * builds the Monzo API client, wires the optional Redis rate limiter and RabbitMQ
 * audit publisher into the tool registry, starts the credential probe, and serves
 * the tool endpoints over HTTP until it receives SIGINT or SIGTERM.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/redis/go-redis/v9: Shared rate-limit counters.
 * - internal/api, internal/app, internal/config: Internal packages for the service.
 * - pkg/monzoclient: Client for the Monzo API.
 * - pkg/rabbitmq: Audit event publishing.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benfdking/monzo-mcp/internal/api"
	"github.com/benfdking/monzo-mcp/internal/app"
	"github.com/benfdking/monzo-mcp/internal/config"
	"github.com/benfdking/monzo-mcp/pkg/monzoclient"
	"github.com/benfdking/monzo-mcp/pkg/rabbitmq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; using process environment\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.MonzoAccessToken) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"monzo access token must be configured\" env=MONZO_ACCESS_TOKEN")
	}

	log.Printf("level=info component=bootstrap msg=\"starting monzo-mcp\" port=%s monzo_api=%s", cfg.ServerPort, cfg.MonzoAPIBaseURL)

	monzoClient, err := monzoclient.NewClient(monzoclient.Config{
		BaseURL:     cfg.MonzoAPIBaseURL,
		AccessToken: cfg.MonzoAccessToken,
		Timeout:     cfg.MonzoHTTPTimeout(),
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"monzo client init failed\" err=%v", err)
	}

	registry := app.NewRegistry(monzoClient)

	if cfg.ToolRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; tool rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; tool rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient := redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				pingErr := redisClient.Ping(pingCtx).Err()
				cancelPing()
				if pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; tool rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
				} else {
					defer redisClient.Close()
					registry.SetRateLimiter(app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix, cfg.ToolRateLimitPerMinute))
					log.Printf("level=info component=bootstrap msg=\"redis connected\" tool_calls_per_minute=%d", cfg.ToolRateLimitPerMinute)
				}
			}
		}
	}

	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=info component=bootstrap msg=\"rabbitmq url not set; audit events disabled\"")
	} else {
		producer, producerErr := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.AuditExchange)
		if producerErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", producerErr)
		} else {
			defer producer.Close()
			registry.SetPublisher(producer)
			log.Printf("level=info component=bootstrap msg=\"rabbitmq producer connected\" exchange=%s", cfg.AuditExchange)
		}
	}

	probe := app.NewCredentialProbe(monzoClient, cfg.CredentialProbeSchedule)
	if err := probe.Start(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"credential probe schedule invalid\" err=%v", err)
	}

	handlers := api.NewToolHandlers(registry, probe)
	router := api.NewRouter(handlers, api.RouterConfig{
		InternalAPIKey:   cfg.InternalAPIKey,
		JWTSigningSecret: cfg.JWTSigningSecret,
		AllowedOrigins:   cfg.AllowedOrigins(),
	})
	if strings.TrimSpace(cfg.InternalAPIKey) == "" && strings.TrimSpace(cfg.JWTSigningSecret) == "" {
		log.Println("level=warn component=bootstrap msg=\"no caller authentication configured; tool endpoints are open\" env=INTERNAL_API_KEY,JWT_SIGNING_SECRET")
	}

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	select {
	case <-probe.Stop().Done():
	case <-ctx.Done():
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
