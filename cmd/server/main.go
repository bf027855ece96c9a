package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"product-studio/internal/agent"
	"product-studio/internal/config"
	"product-studio/internal/document"
	"product-studio/internal/flow"
	"product-studio/internal/handler"
	"product-studio/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load config: %v", err)
	}
	log.Printf("[INFO] Starting Product Studio env=%s content_model=%s image_model=%s",
		cfg.Env, cfg.ContentModel, cfg.ImageModel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gens, err := agent.NewGenerators(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Gemini client: %v", err)
	}
	log.Println("[INFO] Generators initialized successfully")

	store := flow.NewStore(gens.Content, gens.Cover, flow.Options{
		SessionTTL:        cfg.SessionTTL,
		GenerationTimeout: cfg.GenerationTimeout,
	})
	defer store.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Security headers (before CORS)
	r.Use(middleware.SecurityHeaders())

	allowedOrigins := []string{}
	if gin.Mode() != gin.ReleaseMode {
		allowedOrigins = append(allowedOrigins, "http://localhost:5173")
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Accept-Language"},
			ExposeHeaders:    []string{"Content-Disposition", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	ipLimiter := middleware.NewIPRateLimiter(rate.Every(cfg.RateLimitInterval), cfg.RateLimitBurst)
	dailyQuota := middleware.NewDailyQuota(cfg.DailyQuota)
	log.Printf("[INFO] Rate limiting enabled interval=%v burst=%d daily_quota=%d",
		cfg.RateLimitInterval, cfg.RateLimitBurst, cfg.DailyQuota)

	// Limiters idle past their refill time are full again
	go ipLimiter.Cleanup(ctx, time.Minute, max(ipLimiter.RefillTime(), time.Minute))

	h := handler.New(store, document.NewRenderer("Product Studio"), cfg.IsProduction())
	limits := &handler.Limits{IP: ipLimiter, Quota: dailyQuota}
	if err := h.RegisterRoutes(r, limits); err != nil {
		log.Fatalf("[FATAL] Failed to register routes: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[INFO] Server ready port=%s allowed_origins=%v", cfg.Port, allowedOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[INFO] Shutting down")
	// Readiness reports not_ready from here on while in-flight requests drain
	store.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Server shutdown: %v", err)
	}
}
