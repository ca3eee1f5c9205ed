package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"storefront/accounts"
	"storefront/analytics"
	"storefront/auth"
	"storefront/cart"
	"storefront/catalog"
	"storefront/config"
	"storefront/globals"
	"storefront/livefeed"
	"storefront/middleware"
	"storefront/mq"
	"storefront/notify"
	"storefront/offline"
	"storefront/orders"
	"storefront/ratelim"
	"storefront/rdx"
	"storefront/routes"
	"storefront/store"
	"storefront/store/memstore"
	"storefront/store/mongostore"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("took", time.Since(start)))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.Store == "memory" {
		log.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), nil
	}
	return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB, log)
}

// events picks the order event publisher. The live feed hub always
// receives events: directly, or relayed from the redis channel so that
// every replica's dashboards see every order.
func events(ctx context.Context, cfg *config.Config, redisClient *rdx.Client, hub *livefeed.Hub, log *zap.Logger) (mq.Publisher, func(), error) {
	switch cfg.Events {
	case "redis":
		go mq.Listen(ctx, redisClient.Conn, log, hub.Deliver)
		return mq.NewRedisPublisher(redisClient.Conn), func() {}, nil
	case "amqp":
		p, err := mq.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			return nil, nil, err
		}
		return mq.Fanout{p, hub}, func() { _ = p.Close() }, nil
	default:
		return hub, func() {}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := openStore(startCtx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	redisClient, err := rdx.Connect(startCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	cancel()

	hub := livefeed.NewHub(log)
	go hub.Run()

	publisher, closeEvents, err := events(ctx, cfg, redisClient, hub, log)
	if err != nil {
		log.Fatal("events backend", zap.String("backend", cfg.Events), zap.Error(err))
	}

	var sender notify.Sender = notify.LogSender{Log: log}
	if cfg.MailEnabled() {
		sender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}

	tokens := auth.NewManager(cfg.VendorSecret, cfg.CustomerSecret, cfg.TokenTTL)
	mw := middleware.New(tokens, log)

	rateLimiter := ratelim.NewRateLimiter(20, 5)
	sweepStop := make(chan struct{})
	go rateLimiter.Run(time.Minute, sweepStop)

	accountSvc := accounts.NewService(st, redisClient, tokens, sender, log, cfg.OTPTTL)
	handlers := routes.Handlers{
		Cart: cart.NewHandler(cart.NewService(st, log), log),
		Orders: orders.NewHandler(orders.NewService(st, publisher, sender, log, orders.Options{
			StrictTransitions: cfg.StrictTransitions,
			SupportContact:    cfg.SupportEmail,
		}), log),
		Offline:   offline.NewHandler(offline.NewService(st, log, offline.Options{StrictReturns: cfg.StrictTransitions}), log),
		Catalog:   catalog.NewHandler(catalog.NewService(st, log), log),
		Customers: accounts.NewHandler(accountSvc, log, globals.RoleCustomer),
		Vendors:   accounts.NewHandler(accountSvc, log, globals.RoleVendor),
		Analytics: analytics.NewHandler(analytics.NewService(st), log),
		Hub:       hub,
	}

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, handlers, mw, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(log, securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Info("stopping live feed hub")
		hub.Stop()
	})

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Port), zap.String("store", cfg.Store), zap.String("events", cfg.Events))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	stop()
	close(sweepStop)
	closeEvents()
	if err := redisClient.Close(); err != nil {
		log.Warn("close redis", zap.Error(err))
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Warn("close store", zap.Error(err))
	}
	log.Info("server stopped cleanly")
}
