package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	authservice "github.com/deskradar/clients-api/domains/auth/service"
	clientsservice "github.com/deskradar/clients-api/domains/clients/service"
	signupservice "github.com/deskradar/clients-api/domains/signup/service"
	usersservice "github.com/deskradar/clients-api/domains/users/service"
	webhooksservice "github.com/deskradar/clients-api/domains/webhooks/service"

	authhandler "github.com/deskradar/clients-api/domains/auth/handler"
	clientshandler "github.com/deskradar/clients-api/domains/clients/handler"
	myhandler "github.com/deskradar/clients-api/domains/my/handler"
	signuphandler "github.com/deskradar/clients-api/domains/signup/handler"
	usershandler "github.com/deskradar/clients-api/domains/users/handler"
	webhookshandler "github.com/deskradar/clients-api/domains/webhooks/handler"

	"github.com/deskradar/clients-api/jobs"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/messaging"
	"github.com/deskradar/clients-api/platform/persistence"
	"github.com/deskradar/clients-api/platform/validation"
)

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Component: "clients-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if err := persistence.Bootstrap(ctx, pool); err != nil {
		logger.Fatal("bootstrap database schema", zap.Error(err))
	}

	userStore, err := persistence.NewUserStore(pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	clientStore, err := persistence.NewClientStore(pool)
	if err != nil {
		logger.Fatal("init client store", zap.Error(err))
	}
	tokenStore, err := persistence.NewTokenStore(pool)
	if err != nil {
		logger.Fatal("init token store", zap.Error(err))
	}
	webhookLogStore, err := persistence.NewWebhookLogStore(pool)
	if err != nil {
		logger.Fatal("init webhook log store", zap.Error(err))
	}

	snsClient, err := messaging.NewSNSClient(ctx)
	if err != nil {
		logger.Fatal("init sns client", zap.Error(err))
	}
	publisher, err := messaging.NewSNSPublisher(snsClient)
	if err != nil {
		logger.Fatal("init sns publisher", zap.Error(err))
	}

	deployer, err := messaging.NewDeployer(publisher, cfg.DeployTopicARN)
	if err != nil {
		logger.Fatal("init deployer", zap.Error(err))
	}
	mailer, err := messaging.NewMailer(publisher, cfg.CommunicateTopicARN)
	if err != nil {
		logger.Fatal("init mailer", zap.Error(err))
	}
	notifier, err := messaging.NewNotifier(publisher, cfg.UpdatesTopicARN, cfg.Env)
	if err != nil {
		logger.Fatal("init notifier", zap.Error(err))
	}

	verifier, err := validation.NewSignatureVerifier([]byte(cfg.PaddlePublicKey))
	if err != nil {
		logger.Fatal("init paddle signature verifier", zap.Error(err))
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	principals := &principalStore{UserStore: userStore, ClientStore: clientStore}
	resolver := &principalResolver{users: userStore, clients: clientStore}

	authSvc := authservice.New(principals, tokenStore, issuer, mailer, notifier, logger)
	signupSvc := signupservice.New(clientStore, tokenStore, mailer, notifier, cfg.EmailVerificationURLTemplate, logger)
	usersSvc := usersservice.New(userStore, logger)
	clientsSvc := clientsservice.New(clientStore, deployer, logger)
	webhooksSvc := webhooksservice.New(clientStore, webhookLogStore, deployer, notifier, logger)

	router := newRouter(cfg, logger, issuer, resolver, handlers{
		auth:     authhandler.New(authSvc, logger),
		signup:   signuphandler.New(signupSvc, logger),
		users:    usershandler.New(usersSvc, logger),
		clients:  clientshandler.New(clientsSvc, logger),
		my:       myhandler.New(clientsSvc, logger),
		webhooks: webhookshandler.New(webhooksSvc, verifier, logger),
	})

	runner := jobs.NewRunner(cfg.JobsInterval, logger,
		jobs.NewUpdateClientsJob(clientStore, deployer, logger))
	runner.Start()
	defer runner.Stop()

	server := newServer(cfg, router)

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
