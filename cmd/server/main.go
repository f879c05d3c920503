package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pricetrack/internal/api"
	"pricetrack/internal/config"
	"pricetrack/internal/notify"
	"pricetrack/internal/oracle"
	"pricetrack/internal/store"
	"pricetrack/internal/tracker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var st store.Store
	switch cfg.StoreBackend {
	case "sqlite":
		st, err = store.NewSQLite(cfg.DataDir)
	default:
		st, err = store.NewJSON(cfg.DataDir)
	}
	if err != nil {
		log.Fatalf("Failed to open store (%s): %v", cfg.StoreBackend, err)
	}
	defer st.Close()

	orc := oracle.NewClient(cfg.OracleBaseURL, cfg.OracleUserAgent, cfg.OracleTimeout)

	push := notify.NewPushService(cfg.PushAPIURL)
	email := notify.NewEmailService(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPPort)
	dispatcher := notify.NewDispatcher(push, email)

	svc := tracker.New(st, orc, dispatcher, tracker.WithSnapshotKey(cfg.SnapshotKey))
	if err := svc.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize tracking service: %v", err)
	}

	scheduler := tracker.NewScheduler(svc, cfg.RefreshInterval)
	scheduler.Start()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(corsMiddleware(cfg.CORSOrigins))
	api.SetupRoutes(r, svc)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := svc.Release(ctx); err != nil {
		log.Printf("Failed to flush final snapshot: %v", err)
	}
	log.Println("Shutdown complete")
}

// corsMiddleware allows the configured origins
func corsMiddleware(origins string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
