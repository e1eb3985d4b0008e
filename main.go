package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "github.com/example/petauth/internal/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type App struct {
	DB             DB
	Tokens         *TokenCodec
	log            logrus.FieldLogger
	allowedOrigins []string
	now            func() time.Time
}

func NewApp(db DB, tokens *TokenCodec, log logrus.FieldLogger, allowedOrigins []string) *App {
	return &App{
		DB:             db,
		Tokens:         tokens,
		log:            log,
		allowedOrigins: allowedOrigins,
		now:            time.Now,
	}
}

func openDB(c *cfg.Config, log logrus.FieldLogger) (DB, error) {
	switch c.DBAdapter {
	case "sqlite":
		s, err := NewSQLiteDB(c.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
		return s, nil
	case "postgres":
		log.Info("applying database migrations")
		if err := ApplyMigrations(c.PostgresDSN, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		p, err := NewPostgresDB(c.PostgresDriver, c.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		log.WithField("driver", c.PostgresDriver).Info("connected to PostgreSQL database")
		return p, nil
	case "memory":
		log.Warn("using in-memory database (not recommended for production)")
		return NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
	}
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	c, err := cfg.New()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := newLogger(c.LogLevel, c.LogFormat)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	db, err := openDB(c, log)
	if err != nil {
		log.Fatal(err)
	}
	if err := ensureAdmin(context.Background(), db, c.AdminName, c.AdminPassword, log); err != nil {
		log.Fatal(err)
	}

	app := NewApp(db, NewTokenCodec([]byte(c.JwtSecret), c.TokenTTL), log, c.AllowedOrigins)
	srv := &http.Server{Handler: app.Router(), Addr: ":" + c.Port, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}

	go func() {
		log.WithField("port", c.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed:%+v", err)
	}
	if closer, ok := app.DB.(interface{ close() error }); ok {
		_ = closer.close()
	}
	log.Info("server exited properly")
}
