package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaign"
	"outreach-platform/internal/config"
	"outreach-platform/internal/contact"
	"outreach-platform/internal/content"
	"outreach-platform/internal/dispatch"
	"outreach-platform/internal/executor"
	"outreach-platform/internal/funnel"
	"outreach-platform/internal/httpapi"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/media"
	"outreach-platform/internal/stats"
	"outreach-platform/internal/user"
	"outreach-platform/pkg/logger"
	"outreach-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Repositories
	graphStore := funnel.NewPostgresStore(db)
	templateRepo := funnel.NewPostgresTemplateRepo(db)
	versionRepo := funnel.NewPostgresVersionRepo(db)
	contentRepo := content.NewPostgresRepo(db)
	campaignRepo := campaign.NewPostgresRepo(db)
	contactRepo := contact.NewPostgresRepo(db)
	inboxRepo := inbox.NewPostgresRepo(db)
	userRepo := user.NewPostgresRepo(db)
	statsRepo := stats.NewPostgresRepo(db)
	blobs := media.NewRedisStore(rdb, cfg.Media.TTL)

	// Dispatch adapters
	smsSender := dispatch.NewSMSSender(cfg.SMS, log)
	mailer := dispatch.NewMailer(cfg.SMTP, userRepo, log)
	voicemail := dispatch.NewVoicemailDropper(cfg.Voicemail, log)
	tts := dispatch.NewElevenLabs(cfg.TTS, nil, log)

	// Services
	authService := auth.NewService(userRepo, authManager)
	funnelService := funnel.NewService(templateRepo, versionRepo, graphStore, campaignRepo)
	campaignService := campaign.NewService(campaignRepo, graphStore)
	contactService := contact.NewService(contactRepo, inboxRepo, log)
	contentResolver := content.NewResolver(contentRepo, log)
	statsService := stats.NewService(statsRepo)

	exec := executor.New(executor.Config{
		Campaigns:  campaignRepo,
		Contacts:   contactRepo,
		Users:      userRepo,
		Graphs:     graphStore,
		Resolver:   contentResolver,
		Inbox:      inboxRepo,
		SMS:        smsSender,
		Email:      mailer,
		Voicemail:  voicemail,
		TTS:        tts,
		Blobs:      blobs,
		PublicBase: cfg.App.PublicBaseURL,
		Logger:     log,
	})

	h := httpapi.Handlers{
		Log:               log,
		Auth:              authService,
		Funnels:           funnelService,
		Content:           contentRepo,
		Campaigns:         campaignService,
		Contacts:          contactService,
		Inbox:             inboxRepo,
		Users:             userRepo,
		Stats:             statsService,
		Exec:              exec,
		SMS:               smsSender,
		Email:             mailer,
		Voicemail:         voicemail,
		TTS:               tts,
		Blobs:             blobs,
		PublicBase:        cfg.App.PublicBaseURL,
		BonzoWebhookToken: cfg.SMS.Bonzo.WebhookToken,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
