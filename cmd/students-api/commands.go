package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aanand-mishra/student-management-api/internal/auth"
	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/storage/migrate"
)

const commandTimeout = 2 * time.Minute

// runMigrate handles "migrate up|down|status". It returns the exit code.
func runMigrate(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "Path to the configuration YAML file")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: students-api migrate up|down|status [--config=path]")
		fs.PrintDefaults()
	}
	if len(args) == 0 {
		fs.Usage()
		return 2
	}
	action := args[0]
	_ = fs.Parse(args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := setupLogger(cfg.Env)

	db, dialect, err := openMigrationDB(cfg)
	if err != nil {
		log.Error("failed to open database", slog.String("error", err.Error()))
		return 1
	}
	defer db.Close()

	runner, err := migrate.New(db, dialect, log)
	if err != nil {
		log.Error("failed to create migration runner", slog.String("error", err.Error()))
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch action {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "status":
		err = runner.Status(ctx)
	default:
		fs.Usage()
		return 2
	}
	if err != nil {
		log.Error("migration failed", slog.String("action", action), slog.String("error", err.Error()))
		return 1
	}

	if v, err := runner.Version(ctx); err == nil {
		log.Info("migration finished", slog.String("action", action), slog.Int64("version", v))
	}
	return 0
}

// runSeedUser handles "seed-user". Users have no registration endpoint, so
// this is how accounts get created. The password is hashed when
// auth.password_mode is bcrypt.
func runSeedUser(args []string) int {
	fs := flag.NewFlagSet("seed-user", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "Path to the configuration YAML file")
	username := fs.String("username", "", "Username of the new user")
	password := fs.String("password", "", "Password of the new user")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: students-api seed-user --username=name --password=secret [--config=path]")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := setupLogger(cfg.Env)

	mode, err := auth.ParsePasswordMode(cfg.Auth.PasswordMode)
	if err != nil {
		log.Error("invalid password mode", slog.String("error", err.Error()))
		return 1
	}
	stored, err := mode.Hash(*password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return 1
	}
	defer store.Close()

	id, err := store.CreateUser(ctx, *username, stored)
	if err != nil {
		log.Error("failed to create user", slog.String("username", *username), slog.String("error", err.Error()))
		return 1
	}
	log.Info("user created", slog.Int64("id", id), slog.String("username", *username))
	return 0
}
