// Command seed loads the sample catalog and, when configured, the admin account.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/auth"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/config"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/ariefcatur/go-chipstore/internal/postgres"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//go:embed products.json
var productsJSON []byte

func main() {
	reset := flag.Bool("reset", false, "delete existing products before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logx.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	var inputs []catalog.ProductInput
	if err := json.Unmarshal(productsJSON, &inputs); err != nil {
		logger.Fatal("decode products.json", zap.Error(err))
	}

	repo := &catalog.Repo{DB: db}
	svc := catalog.NewService(repo, logger)

	if *reset {
		if _, err := db.Exec(ctx, `DELETE FROM products`); err != nil {
			logger.Fatal("reset products", zap.Error(err))
		}
		logger.Info("products cleared")
	} else if n, err := svc.Count(ctx); err != nil {
		logger.Fatal("count products", zap.Error(err))
	} else if n > 0 {
		logger.Info("catalog already seeded, use -reset to reseed", zap.Int("products", n))
		inputs = nil
	}

	for _, in := range inputs {
		p, err := svc.CreateProduct(ctx, in)
		if err != nil {
			logger.Fatal("seed product", zap.String("name", in.Name), zap.Error(err))
		}
		logger.Info("seeded", zap.String("name", p.Name), zap.Float64("rating", p.Rating))
	}

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		u, err := auth.SeedAdmin(ctx, &auth.Repo{DB: db}, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			logger.Fatal("seed admin", zap.Error(err))
		}
		logger.Info("admin ready", zap.String("email", u.Email))
	}
}
