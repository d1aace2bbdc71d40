// Command seedadmin provisions an admin principal, replacing the name and
// password of an existing admin with the same email.
//
// Usage:
//
//	seedadmin -email admin@fgtintas.com.br -name "Administrador" -password '...'
//
// The password may also be supplied through SEED_ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/config"
	"github.com/fgtintas/referral-service/internal/observability"
	"github.com/fgtintas/referral-service/internal/persistence"
	"github.com/fgtintas/referral-service/internal/repository"
	"github.com/fgtintas/referral-service/internal/service"
)

func main() {
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Administrador", "admin display name")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required to seed an admin")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool := pg.PoolHandle()
	credentials := service.NewCredentialStore(repository.NewAdminRepository(pool), repository.NewProfessionalRepository(pool), cfg.Auth.BcryptCost)
	admin, err := credentials.ProvisionAdmin(ctx, *email, *name, *password)
	if err != nil {
		logger.Fatal("failed to provision admin", zap.Error(err))
	}
	logger.Info("admin provisioned", zap.String("id", admin.ID), zap.String("email", admin.Email))
}
