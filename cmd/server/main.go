package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/taskhub/api/internal/adapters/handler/http"
	repo "github.com/taskhub/api/internal/adapters/repository/postgres"
	"github.com/taskhub/api/internal/config"
	"github.com/taskhub/api/internal/core/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	userRepo := repo.NewUserRepository(db)
	taskRepo := repo.NewTaskRepository(db)

	issuer := services.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	authSvc := services.NewAuthService(userRepo, issuer, cfg.BcryptCost)
	userSvc := services.NewUserService(userRepo, cfg.BcryptCost)
	taskSvc := services.NewTaskService(taskRepo)

	cookies := http.NewCookieManager(cfg.Production(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	gate := http.NewAuthenticator(issuer)

	authHandler := http.NewAuthHandler(authSvc, userSvc, cookies)
	taskHandler := http.NewTaskHandler(taskSvc)
	userHandler := http.NewUserHandler(userSvc)

	handler := http.NewHandler(authHandler, taskHandler, userHandler, gate)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
