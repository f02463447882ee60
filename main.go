package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bali-advisory/config"
	"bali-advisory/database"
	adminapi "bali-advisory/internal/api/admin"
	advisorapi "bali-advisory/internal/api/advisor"
	authapi "bali-advisory/internal/api/auth"
	"bali-advisory/internal/api/billing"
	kycapi "bali-advisory/internal/api/kyc"
	leadsapi "bali-advisory/internal/api/leads"
	propertiesapi "bali-advisory/internal/api/properties"
	stripewebhooks "bali-advisory/internal/api/stripewebhook"
	usersapi "bali-advisory/internal/api/users"
	"bali-advisory/internal/api/xenditwebhook"
	routes "bali-advisory/internal/app/http"
	"bali-advisory/internal/app/http/middleware"
	"bali-advisory/internal/infra/cache"
	"bali-advisory/internal/infra/fxrate"
	"bali-advisory/internal/infra/mailer"
	"bali-advisory/internal/infra/odoo"
	"bali-advisory/internal/infra/queue"
	"bali-advisory/internal/infra/receipt"
	"bali-advisory/internal/infra/storage"
	stripeinfra "bali-advisory/internal/infra/stripe"
	"bali-advisory/internal/infra/telegram"
	"bali-advisory/internal/infra/xendit"
	"bali-advisory/internal/notify"
	"bali-advisory/internal/repository"
	"bali-advisory/internal/service"
	"bali-advisory/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Env: "production"})
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg.DB.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	kycRepo := repository.NewKYCRepository(db)

	// Exchange-rate cache: Redis when configured, in-process otherwise.
	var rateCache cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory rate cache")
		} else {
			defer rdb.Close()
			rateCache = rdb
		}
	}

	// Odoo doubles as the CRM and the live USD/IDR rate source.
	var crm notify.CRM
	var rateSource fxrate.Source
	if cfg.Odoo.Enabled() {
		client := odoo.NewClient(odoo.Config{
			URL:      cfg.Odoo.URL,
			DB:       cfg.Odoo.DB,
			Username: cfg.Odoo.Username,
			APIKey:   cfg.Odoo.APIKey,
			Timeout:  cfg.Odoo.Timeout,
		}, log)
		crm = client
		rateSource = client
	} else {
		log.Warn().Msg("odoo not configured, CRM sync disabled")
	}
	rates := fxrate.New(rateCache, rateSource, cfg.Payment.FallbackRate, log)

	var sender mailer.Sender
	if cfg.SMTP.Enabled() {
		sender = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
	} else {
		log.Warn().Msg("SMTP not configured, emails are written to the log")
		sender = mailer.NewConsole(log)
	}
	mail := mailer.New(sender, cfg.SMTP.From, cfg.App.URL)

	var alerts notify.Alerter
	if cfg.Telegram.BotToken != "" {
		n, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.SalesChat)
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerts disabled")
		} else {
			alerts = n
		}
	}

	// Side-effect jobs: one router, executed either by RabbitMQ consumers or
	// by the in-process pool.
	router := queue.NewRouter(log)
	workers := &notify.Workers{
		CRM:        crm,
		Mail:       mail,
		Alerts:     alerts,
		Receipts:   receipt.NewGenerator(),
		Users:      userRepo,
		Leads:      leadRepo,
		SalesInbox: cfg.SMTP.SalesInbox,
		Brand:      "Bali Invest Advisory",
		Log:        log,
	}
	workers.Register(router)

	publisher, closeQueue := startQueue(cfg, router, log)
	defer closeQueue()
	dispatcher := notify.NewDispatcher(publisher, log)

	var provider service.PaymentProvider
	var xenditHandler *xenditwebhook.Handler
	var stripeHandler *stripewebhooks.Handler
	fulfillment := service.NewFulfillmentService(userRepo, paymentRepo, dispatcher, log)
	switch cfg.Payment.Provider {
	case stripeinfra.ProviderName:
		provider = stripeinfra.NewCheckout(cfg.Stripe.SecretKey)
		stripeHandler = stripewebhooks.NewHandler(cfg.Stripe.WebhookSecret, fulfillment, userRepo, log)
	default:
		provider = xendit.NewClient(cfg.Xendit.SecretKey, cfg.Xendit.BaseURL, cfg.Payment.Timeout)
		xenditHandler = xenditwebhook.NewHandler(cfg.Xendit.CallbackToken, fulfillment, log)
	}
	log.Info().Str("provider", provider.Name()).Msg("payment provider selected")

	checkout := service.NewCheckoutService(provider, rates, paymentRepo, cfg.Payment.Currency, cfg.App.URL, log)
	leadService := service.NewLeadService(leadRepo, dispatcher, log)

	var uploader kycapi.Uploader
	if cfg.S3.Enabled() {
		u, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3.Endpoint,
			Region:        cfg.S3.Region,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Bucket:        cfg.S3.Bucket,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			UsePathStyle:  cfg.S3.UsePathStyle,
		})
		if err != nil {
			log.Warn().Err(err).Msg("KYC uploads disabled")
		} else {
			uploader = u
		}
	}

	google := authapi.NewGoogle(authapi.GoogleConfig{
		ClientID:         cfg.Google.ClientID,
		ClientSecret:     cfg.Google.ClientSecret,
		RedirectURL:      cfg.Google.RedirectURL,
		FrontendRedirect: cfg.Google.FrontendRedirect,
		SecureCookie:     cfg.IsProduction(),
	})

	handlers := routes.Handlers{
		Auth:       authapi.NewHandler(userRepo, tokenRepo, dispatcher, cfg.JWT.Secret, cfg.JWT.TTL, google, log),
		Users:      usersapi.NewHandler(userRepo, paymentRepo, log),
		Billing:    billing.NewHandler(checkout, rates, userRepo, paymentRepo, log),
		Xendit:     xenditHandler,
		Stripe:     stripeHandler,
		Leads:      leadsapi.NewHandler(leadService),
		Advisor:    advisorapi.NewHandler(leadService, log),
		Properties: propertiesapi.NewHandler(propertyRepo, leadService, log),
		KYC:        kycapi.NewHandler(uploader, kycRepo, userRepo, dispatcher, log),
		Admin:      adminapi.NewHandler(userRepo, paymentRepo, log),
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.HTTP.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, handlers, routes.Deps{
		JWTSecret: cfg.JWT.Secret,
		Users:     userRepo,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

// startQueue picks RabbitMQ when AMQP_URL is set and falls back to the local
// worker pool when it is not, or when the broker cannot be reached.
func startQueue(cfg *config.Config, router *queue.Router, log zerolog.Logger) (queue.Publisher, func()) {
	if cfg.AMQP.URL != "" {
		mq, err := queue.NewRabbitMQ(queue.RabbitMQConfig{
			URL:      cfg.AMQP.URL,
			Queue:    cfg.AMQP.Queue,
			Prefetch: 8,
		}, router, log)
		if err == nil {
			if err = mq.Consume(8); err == nil {
				return mq, func() { _ = mq.Close() }
			}
			_ = mq.Close()
		}
		log.Warn().Err(err).Msg("rabbitmq unavailable, running jobs in-process")
	}

	local := queue.NewLocal(router, 4, 256, time.Minute)
	local.Start()
	return local, func() { _ = local.Close() }
}
