package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"shopapp/internal/auth"
	"shopapp/internal/cache"
	"shopapp/internal/config"
	"shopapp/internal/database"
	"shopapp/internal/email"
	"shopapp/internal/logging"
	redisx "shopapp/internal/redis"
	"shopapp/internal/server"
	"shopapp/internal/store"
)

const logMaxBytes = 10 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogFile != "" {
		fileWriter, err := logging.NewRotatingWriter(cfg.LogFile, logMaxBytes)
		if err != nil {
			log.Fatalf("log setup error: %v", err)
		}
		defer fileWriter.Close()
		logOutput = io.MultiWriter(os.Stdout, fileWriter)
	}
	log.SetOutput(logOutput)
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lshortfile)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	redisClient, err := redisx.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer redisClient.Close()

	users := auth.NewPostgresRepository(db)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	otpService := auth.NewOTPService(users, cfg.OTPTTL)
	mailer := email.NewSender(cfg.Email)
	products := store.NewPostgresProductRepository(db)
	categories := store.NewPostgresCategoryRepository(db)
	catalogCache := cache.NewCatalog(redisClient, cfg.CacheTTL)

	if err := bootstrapAdmin(cfg, users, hasher); err != nil {
		log.Fatalf("admin bootstrap error: %v", err)
	}

	api := server.NewServer(cfg, users, hasher, otpService, mailer, products, categories, catalogCache)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// bootstrapAdmin creates the default admin account once, if configured.
// Reruns are no-ops: the check-then-create is backed by a uniqueness
// constraint on the admin role.
func bootstrapAdmin(cfg config.Config, users auth.Repository, hasher auth.PasswordHasher) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Printf("admin bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	hashed, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := users.EnsureAdmin(ctx, &auth.User{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hashed,
	})
	if err != nil {
		return err
	}
	if created {
		log.Printf("Default admin created: %s", cfg.AdminEmail)
	} else {
		log.Printf("Admin already exists")
	}
	return nil
}
