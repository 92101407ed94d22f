package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/nitesh/blogsmith/internal/api"
	"github.com/nitesh/blogsmith/internal/billing"
	"github.com/nitesh/blogsmith/internal/llm"
	"github.com/nitesh/blogsmith/internal/pipeline"
	"github.com/nitesh/blogsmith/internal/service"
	"github.com/nitesh/blogsmith/internal/store"
)

func envOrDefault(key, d string) string {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	return v
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	dbHost := envOrDefault("DB_HOST", "localhost")
	dbPort := envOrDefault("DB_PORT", "5432")
	dbName := envOrDefault("DB_NAME", "blogsmith_db")
	dbUser := envOrDefault("DB_USER", "blogsmith_user")
	dbPass := envOrDefault("DB_PASS", "blogsmith")
	redisAddr := envOrDefault("REDIS_ADDR", "localhost:6379")
	frontendOrigin := envOrDefault("FRONTEND_ORIGIN", "*")
	port := envOrDefault("PORT", "8080")

	pgURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPass, dbHost, dbPort, dbName)
	db, err := sql.Open("postgres", pgURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	// simple ping + wait (db might be starting in docker)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Printf("waiting for db: attempt %d, err: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("could not connect to db: %v", err)
	}

	if err := store.RunMigrations(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warning: redis ping failed, webhook replay suppression disabled: %v", err)
	}

	// missing provider API keys are fatal at startup
	writer, err := llm.NewWriterFromEnv()
	if err != nil {
		log.Fatalf("llm writer: %v", err)
	}
	verifier, err := llm.NewVerifierFromEnv()
	if err != nil {
		log.Fatalf("llm verifier: %v", err)
	}

	repo := store.NewPgStore(db)
	pipe := pipeline.New(writer, verifier)
	svc := service.NewService(repo, pipe)
	bill := billing.New(billing.Config{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}, repo, rdb)

	handler := api.NewHandler(pipe, svc, bill)

	router := gin.Default()
	corsCfg := cors.DefaultConfig()
	if frontendOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{frontendOrigin}
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Stripe-Signature")
	router.Use(cors.New(corsCfg))
	api.RegisterRoutes(router, handler)

	log.Printf("listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
