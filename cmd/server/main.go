package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/graphkart/storefront/internal/config"
	"github.com/graphkart/storefront/internal/events"
	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/httpserver"
	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/mail"
	authmw "github.com/graphkart/storefront/internal/middleware/auth"
	"github.com/graphkart/storefront/internal/middleware/csrf"
	loggingmw "github.com/graphkart/storefront/internal/middleware/logging"
	"github.com/graphkart/storefront/internal/repo"
	"github.com/graphkart/storefront/internal/search"
	"github.com/graphkart/storefront/internal/service"
	"github.com/graphkart/storefront/internal/tokenstore"
	"github.com/graphkart/storefront/internal/validate"
)

const csrfHeader = "X-CSRF-Token"

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ready := map[string]httpserver.Check{}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var store service.Repository
	switch cfg.GraphBackend {
	case "memory":
		logger.Warn("using in-memory graph store; data is lost on exit")
		store = repo.NewMemoryRepo()
	case "neo4j":
		exec, err := graph.Open(startCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			log.Fatalf("neo4j open: %v", err)
		}
		defer exec.Close(context.Background())
		if err := graph.EnsureSchema(startCtx, exec); err != nil {
			log.Fatalf("neo4j schema: %v", err)
		}
		store = &repo.GraphRepo{Runner: exec}
		ready["neo4j"] = exec.Verify
	default:
		log.Fatalf("unknown GRAPH_BACKEND %q", cfg.GraphBackend)
	}

	tokens, err := tokenstore.Open(startCtx, cfg.TokenDBDriver, cfg.TokenDBURL)
	if err != nil {
		log.Fatalf("token db open: %v", err)
	}
	defer tokens.Close()
	ready["tokens"] = tokens.Ping

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	var mailer mail.Mailer = mail.LogMailer{VerifyURL: cfg.VerifyURL, Log: logger}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.VerifyURL)
	}

	catalogSvc := &service.CatalogService{Products: store, Categories: store, Events: publisher}
	if cfg.ESURL != "" {
		es, err := search.NewClient(startCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, nil)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index := search.NewIndex(es, cfg.ESIndex, logger)
		catalogSvc.Search = index
		ready["elasticsearch"] = index.Ping
	}

	authSvc := &service.AuthService{
		Users:         store,
		Tokens:        tokens,
		Mailer:        mailer,
		Events:        publisher,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		AdminEmails:   cfg.AdminEmails,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, csrfHeader},
		ExposeHeaders:    []string{csrfHeader},
		AllowCredentials: true,
	}))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			HeaderName:     csrfHeader,
			Secure:         true,
			AllowedOrigins: cfg.CORSOrigins,
			SkipPaths: []string{
				"/api/user/login",
				"/api/user/register",
				"/api/user/verify",
				"/api/user/resend-verification",
				"/api/products/register",
			},
		}))
	}
	if cfg.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
			Root:  cfg.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/health/")
			},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc},
		Auth:     &httpserver.AuthHTTP{Svc: authSvc},
		Activity: &httpserver.ActivityHTTP{Svc: &service.ActivityService{Wishlists: store, Views: store, Events: publisher}},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Carts: store, Events: publisher}},
		AuthMW:   authmw.New(cfg.JWTAccessSecret, authSvc),
		Ready:    ready,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "graph_backend", cfg.GraphBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("storefront stopped")
}
