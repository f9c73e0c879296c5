package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concerndesk/internal/auth"
	"concerndesk/internal/concern"
	"concerndesk/internal/config"
	"concerndesk/internal/httpmiddleware"
	"concerndesk/internal/metrics"
	"concerndesk/internal/notify"
	"concerndesk/internal/roster"
	"concerndesk/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	projects, err := roster.Load()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	var broker notify.Broker
	if cfg.FeedBackend == "memory" {
		broker = notify.NewInMemory()
	} else {
		broker = notify.NewRedisBroker(redisClient.Client, "concerndesk:concerns")
	}

	repo := concern.NewRepository(db.Client)
	submissions := concern.NewService(repo, projects)
	verifier := auth.NewVerifier(db.Client)
	sessions := auth.NewSessions(db.Client, cfg.SessionTTL)
	feed := concern.NewFeed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial dashboard load; a failed fetch leaves the feed empty and the
	// first refresh fills it in.
	if rows, err := repo.ListAll(ctx); err != nil {
		log.Printf("initial concern load failed: %v", err)
	} else {
		feed.Replace(rows)
	}

	go runFeed(ctx, broker, feed)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/login", func(c *gin.Context) {
		var req struct {
			LoginID  string `json:"login_id" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "login id and password are required"})
			return
		}

		admin, err := verifier.VerifyAdmin(c.Request.Context(), req.LoginID, req.Password)
		if err != nil {
			log.Printf("credential lookup failed: %v", err)
			metrics.Logins.WithLabelValues("error").Inc()
			c.JSON(http.StatusBadGateway, gin.H{"error": "an error occurred during login, please try again"})
			return
		}

		if admin != nil {
			sess, err := sessions.Create(c.Request.Context(), admin.ID)
			if err != nil {
				// No session record means no admin session. Logging in
				// without a verifiable session would defeat the backend
				// check, so the login fails here.
				log.Printf("session creation failed: %v", err)
				metrics.Logins.WithLabelValues("error").Inc()
				c.JSON(http.StatusBadGateway, gin.H{"error": "an error occurred during login, please try again"})
				return
			}
			metrics.Logins.WithLabelValues("admin").Inc()
			c.JSON(http.StatusOK, gin.H{
				"role":          auth.RoleAdmin,
				"session_token": sess.Token,
				"admin_id":      admin.ID,
				"expires_at":    sess.ExpiresAt,
			})
			return
		}

		// Any other credentials land on the user path.
		token, exp, err := auth.IssueUserToken(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.UserTokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		metrics.Logins.WithLabelValues("user").Inc()
		c.JSON(http.StatusOK, gin.H{
			"role":       auth.RoleUser,
			"token":      token,
			"expires_at": exp,
		})
	})

	r.POST("/v1/logout", func(c *gin.Context) {
		if token := c.GetHeader(auth.SessionHeader); token != "" {
			if err := sessions.Delete(c.Request.Context(), token); err != nil {
				log.Printf("session delete failed: %v", err)
			}
		}
		// Logout always succeeds; the client discards its tokens either way.
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	})

	userGroup := r.Group("/v1", auth.RequireRole(auth.RoleUser, cfg.JWTSigningKey, cfg.JWTIssuer))

	userGroup.GET("/projects", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"projects": projects.Search(c.Query("q"))})
	})

	userGroup.POST("/concerns", func(c *gin.Context) {
		var req struct {
			ProjectTitle       string `json:"project_title"`
			ConcernDescription string `json:"concern_description"`
			PreferredMentor    string `json:"preferred_mentor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		stored, err := submissions.Submit(c.Request.Context(), req.ProjectTitle, req.ConcernDescription, req.PreferredMentor)
		if err != nil {
			var verr *concern.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason, "field": verr.Field})
				return
			}
			log.Printf("concern insert failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to submit your request, please try again"})
			return
		}

		metrics.ConcernsSubmitted.Inc()
		if err := broker.Publish(c.Request.Context(), stored); err != nil {
			// The record is durable; live dashboards catch up on refresh.
			log.Printf("publish insert event failed: %v", err)
		}
		c.JSON(http.StatusCreated, gin.H{"concern": stored})
	})

	adminGroup := r.Group("/v1/admin", auth.AdminAuth(sessions))

	adminGroup.GET("/concerns", func(c *gin.Context) {
		rows := feed.Filter(c.Query("q"))
		c.JSON(http.StatusOK, gin.H{
			"concerns":  rows,
			"total":     feed.Len(),
			"showing":   len(rows),
			"new_count": feed.NewCount(),
			"live":      feed.Connected(),
		})
	})

	adminGroup.POST("/concerns/refresh", func(c *gin.Context) {
		rows, err := repo.ListAll(c.Request.Context())
		if err != nil {
			// Keep showing the previous list rather than clearing it.
			log.Printf("refresh failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load project concerns, please try again"})
			return
		}
		feed.Replace(rows)
		c.JSON(http.StatusOK, gin.H{"total": feed.Len(), "new_count": 0, "live": feed.Connected()})
	})

	adminGroup.GET("/concerns/stream", func(c *gin.Context) {
		events, release, err := broker.Subscribe(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed unavailable"})
			return
		}
		defer release()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		metrics.ActiveStreams.Inc()
		defer metrics.ActiveStreams.Dec()

		writeSSE(c, flusher, "snapshot", gin.H{"concerns": feed.Snapshot(), "new_count": feed.NewCount()})

		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()

		reqCtx := c.Request.Context()
		for {
			select {
			case <-reqCtx.Done():
				return
			case <-keepalive.C:
				fmt.Fprint(c.Writer, ": keep-alive\n\n")
				flusher.Flush()
			case evt, ok := <-events:
				if !ok {
					return
				}
				writeSSE(c, flusher, "insert", gin.H{"concern": evt})
			}
		}
	})

	adminGroup.GET("/concerns/export", func(c *gin.Context) {
		rows := feed.Filter(c.Query("q"))
		data, err := concern.ExportCSV(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		filename := concern.ExportFilename(time.Now())
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// runFeed keeps the dashboard feed fed from the broker, re-subscribing when
// the subscription drops. The connected flag drives the live/offline badge.
func runFeed(ctx context.Context, broker notify.Broker, feed *concern.Feed) {
	for {
		events, release, err := broker.Subscribe(ctx)
		if err != nil {
			feed.SetConnected(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}
		feed.SetConnected(true)

		for evt := range events {
			if feed.Push(evt) {
				metrics.LiveEvents.Inc()
			}
		}

		release()
		feed.SetConnected(false)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func writeSSE(c *gin.Context, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+auth.SessionHeader)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
