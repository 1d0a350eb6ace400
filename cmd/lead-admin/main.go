// This program performs administrative tasks for the lead-capture service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/phbpx/haojia"
	"github.com/phbpx/haojia/auth"
	"github.com/phbpx/haojia/pkg/database"
	"github.com/phbpx/haojia/postgres"
	"go.uber.org/zap"
)

const usage = `Usage: lead-admin [flags] <command> [args]

Commands:
  migrate                   apply the embedded database migrations
  useradd <email> <passwd>  create an operator allowed to sign in to /admin`

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log.Sugar()); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Println("ERROR", err)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

type config struct {
	Args conf.Args
	DB   struct {
		User       string `conf:"default:haojia"`
		Password   string `conf:"default:haojia,mask"`
		Host       string `conf:"default:localhost"`
		Name       string `conf:"default:haojia"`
		DisableTLS bool   `conf:"default:true"`
	}
}

func run(log *zap.SugaredLogger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg config

	help, err := conf.Parse("LEAD", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			fmt.Println(usage)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	return processCommands(cfg, log)
}

func processCommands(cfg config, log *zap.SugaredLogger) error {
	dbConfig := database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	}

	switch cfg.Args.Num(0) {
	case "migrate":
		if err := migrate(dbConfig, log); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

	case "useradd":
		email, password := cfg.Args.Num(1), cfg.Args.Num(2)
		if err := userAdd(dbConfig, email, password, log); err != nil {
			return fmt.Errorf("adding operator: %w", err)
		}

	default:
		fmt.Println(usage)
		return errUsage
	}

	return nil
}

func migrate(cfg database.Config, log *zap.SugaredLogger) error {
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	log.Infow("migrate", "status", "schema up to date", "database", cfg.Name)
	return nil
}

func userAdd(cfg database.Config, email, password string, log *zap.SugaredLogger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		fmt.Println(usage)
		return errUsage
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	op := haojia.Operator{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := postgres.NewOperatorService(db).Create(ctx, op); err != nil {
		if errors.Is(err, haojia.ErrDuplicatedOperator) {
			return fmt.Errorf("%s: %w", email, err)
		}
		return err
	}

	log.Infow("useradd", "status", "operator created", "email", email)
	return nil
}
