// File: villamar/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"villamar/config"
	"villamar/cron"
	"villamar/database"
	bookingRepo "villamar/database/repository/booking"
	paymentRepo "villamar/database/repository/payment"
	"villamar/handlers"
	"villamar/middleware"
	"villamar/routes"
	"villamar/services/admin"
	"villamar/services/checkout"
	"villamar/services/notify"
	"villamar/services/quote"
	"villamar/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	if err := bookingRepo.EnsureBookingIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := paymentRepo.EnsurePaymentIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure payment indexes: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	payments := paymentRepo.NewMongoPaymentRepo()

	// dispatchers. The FCM topic carries post-payment automation; email goes
	// through the transactional webhook, or the log stand-in outside prod.
	automation := notify.NewFCMAutomationDispatcher(config.AppConfig.AutomationTopic, logger)
	var email notify.EmailDispatcher
	if config.AppConfig.EmailWebhookURL != "" {
		email = notify.NewWebhookEmailDispatcher(config.AppConfig.EmailWebhookURL, logger)
	} else {
		email = &notify.LogEmailDispatcher{Logger: logger}
	}

	// services.
	quoteService := quote.NewHTTPQuoteService(config.AppConfig.QuoteServiceURL, logger)
	cardProcessor := checkout.NewStripeCardProcessor(logger)
	refs := checkout.NewReferenceGenerator()

	sessionStore := checkout.NewRedisSessionStore(
		utils.GetCheckoutCacheClient(),
		utils.GetLockCacheClient(),
		time.Duration(config.AppConfig.CheckoutSessionTTLMin)*time.Minute,
	)

	pipeline := &checkout.SideEffectPipeline{
		Bookings:   bookings,
		Automation: automation,
		Email:      email,
		Logger:     logger,
	}

	rails := map[string]checkout.PaymentRail{
		"card": &checkout.CardRail{Processor: cardProcessor},
		"sepa": &checkout.SepaRail{
			Store: payments,
			Refs:  refs,
			Config: checkout.SepaConfig{
				IBAN:          config.AppConfig.SepaIBAN,
				BIC:           config.AppConfig.SepaBIC,
				AccountHolder: config.AppConfig.SepaAccountHolder,
				BankName:      config.AppConfig.SepaBankName,
				ExpiryDays:    config.AppConfig.SepaExpiryDays,
			},
			Logger: logger,
		},
		"cash": &checkout.CashRail{
			Store:           payments,
			Refs:            refs,
			PaymentLocation: config.AppConfig.CashPaymentLocation,
			Logger:          logger,
		},
	}

	checkoutService := &checkout.DefaultCheckoutService{
		Sessions:    sessionStore,
		Quotes:      quoteService,
		Bookings:    bookings,
		Payments:    payments,
		Cards:       cardProcessor,
		Rails:       rails,
		Pipeline:    pipeline,
		QuoteMaxAge: time.Duration(config.AppConfig.QuoteMaxAgeMin) * time.Minute,
		Logger:      logger,
	}

	approvalService := &admin.DefaultApprovalService{
		Payments:   payments,
		Bookings:   bookings,
		Automation: automation,
		Email:      email,
		Logger:     logger,
	}

	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, logger)
	adminHandler := handlers.NewAdminPaymentHandler(approvalService, logger)

	routes.RegisterCheckoutRoutes(router, checkoutHandler)
	routes.RegisterAdminRoutes(router, adminHandler)
	routes.RegisterHealthRoutes(router)

	// Background expiry sweep for overdue bank-transfer records.
	cron.InitExpireSweepWorker(cron.SweepDeps{
		Payments:   payments,
		Bookings:   bookings,
		Automation: automation,
		Logger:     logger,
	})

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCheckoutCacheClient(), utils.GetLockCacheClient()},
		database.MongoClient,
	)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
