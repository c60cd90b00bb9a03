package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/lborres/linkid"
	fiberadapter "github.com/lborres/linkid/adapters/fiber"
	oidcadapter "github.com/lborres/linkid/adapters/oidc"
	pgxadapter "github.com/lborres/linkid/adapters/pgx"
	redisadapter "github.com/lborres/linkid/adapters/redis"
	"github.com/lborres/linkid/config"
)

const (
	serviceName     = "linkid"
	purgeInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}:${port}",

		// Request details, never the body or cookies
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("linkid: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warnw("tracing shutdown failed", "error", err)
		}
	}()

	if err := pgxadapter.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	pool, err := pgxadapter.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// without redis the in-memory flash store only works on a single instance
	var flash linkid.FlashStore
	if cfg.RedisURL != "" {
		client, err := redisadapter.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		flash = redisadapter.NewFlashStore(client, cfg.FlashTTL)
	}

	clients := make([]oidcadapter.Client, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		clients = append(clients, oidcadapter.Client{Issuer: p.Issuer, ClientID: p.ClientID, ClientSecret: p.ClientSecret})
	}
	rp, err := oidcadapter.New(oidcadapter.Config{
		Secret:      cfg.Secret,
		CallbackURL: cfg.OIDCCallbackURL,
		Clients:     clients,
		StateTTL:    cfg.OIDCStateTTL,
	})
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{AppName: serviceName})
	app.Use(recoverer.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     logFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))

	l, err := linkid.New(linkid.Config{
		Secret:           cfg.Secret,
		BasePath:         cfg.BasePath,
		RegisterPath:     cfg.RegisterPath,
		Database:         pgxadapter.New(pool),
		HTTP:             fiberadapter.New(app),
		RelyingParty:     rp,
		FlashStore:       flash,
		FlashTTL:         cfg.FlashTTL,
		SessionConfig:    &linkid.SessionConfig{MaxAge: cfg.SessionMaxAge},
		UsersCanRegister: cfg.UsersCanRegister,
		Claims:           cfg.ProfileClaims,
		CookieSecure:     cfg.CookieSecure,
	})
	if err != nil {
		return err
	}

	go l.Sessions.RunPurger(ctx, purgeInterval)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
