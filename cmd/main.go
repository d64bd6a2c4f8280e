package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/dtroode/accounts-server/internal/api/http/context"
	"github.com/dtroode/accounts-server/internal/api/http/handler"
	"github.com/dtroode/accounts-server/internal/api/http/router"
	httpServer "github.com/dtroode/accounts-server/internal/api/http/server"
	"github.com/dtroode/accounts-server/internal/api/http/session"
	"github.com/dtroode/accounts-server/internal/config"
	"github.com/dtroode/accounts-server/internal/hash"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/mailer"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/repository/postgres"
	"github.com/dtroode/accounts-server/internal/server"
	"github.com/dtroode/accounts-server/internal/service"
	"github.com/dtroode/accounts-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	hasher := hash.NewBcrypt()
	deriver := token.NewDeriver(cfg.Auth.TokenSecret, cfg.Auth.ResetTokenTTL)
	sessions := token.NewJWT(cfg.Auth.CookieSecret, cfg.Auth.SessionTTL)
	cookie := session.NewCookie(cfg.Auth.CookieName, cfg.HTTP.EnableHTTPS, cfg.Auth.SessionTTL)
	ctxMgr := httpctx.NewManager()

	smtpMailer, err := mailer.NewSMTP(cfg.SMTP, logger)
	if err != nil {
		logger.Fatal("failed to create mailer", "error", err)
	}
	defer smtpMailer.Close()

	credentialService := service.NewCredential(userRepo, hasher, deriver, smtpMailer, logger, cfg.Auth.RootDomain)

	authHandler := handler.NewAuth(credentialService, sessions, cookie, ctxMgr, logger)
	r := router.New(authHandler, sessions, cookie, ctxMgr, logger, cfg.HTTP.StaticDir)

	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), httpServer.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
