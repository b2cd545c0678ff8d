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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mealhub/internal/auth"
	"mealhub/internal/live"
	"mealhub/internal/meals"
	"mealhub/internal/requests"
	"mealhub/internal/upcoming"
	"mealhub/pkg/database"
	"mealhub/pkg/keymutex"
	"mealhub/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg := database.DefaultConfig()
	client, db := database.MustOpen(ctx, cfg)
	defer database.Close(client)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		slog.Error("ensure indexes failed", "error", err)
		os.Exit(1)
	}

	router := gin.Default()

	// silence gin's trusted-all-proxies warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := live.NewHub()
	router.GET("/ws", live.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Name})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.Clients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.Clients,
		})
	})

	locks := keymutex.New()

	mealsRepo := meals.NewRepo(db.Collection(database.MealsCollection), locks)
	upcomingRepo := upcoming.NewRepo(
		db.Collection(database.UpcomingCollection),
		db.Collection(database.MealsCollection),
		locks,
	)
	requestsRepo := requests.NewRepo(db.Collection(database.RequestsCollection))

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokens := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db.Collection(database.UsersCollection))
	authHandler := auth.NewHandler(authRepo, tokens)
	authHandler.RegisterRoutes(router.Group("/auth"))

	authMW := auth.AuthMiddleware(tokens, authRepo)

	// Meals (published pool)
	mealsHandler := meals.NewHandler(mealsRepo, hub)
	mealsHandler.RegisterPublicRoutes(router.Group("/meals"))
	mealsHandler.RegisterMemberRoutes(router.Group("/meals", authMW))

	// Upcoming pool
	upcomingHandler := upcoming.NewHandler(upcomingRepo, hub)
	upcomingHandler.RegisterPublicRoutes(router.Group("/upcomming-meals"))
	upcomingHandler.RegisterMemberRoutes(router.Group("/upcomming-meals", authMW))

	// Delivery requests
	requestsHandler := requests.NewHandler(requestsRepo, hub)
	requestsHandler.RegisterMemberRoutes(router.Group("/meals", authMW))

	user := router.Group("/user", authMW)
	mealsHandler.RegisterUserReviewRoutes(user.Group("/reviews"))
	requestsHandler.RegisterUserRoutes(user)

	// Staff moderation
	admin := router.Group("/", authMW, auth.RequireAdmin())
	mealsHandler.RegisterAdminRoutes(admin)
	upcomingHandler.RegisterAdminRoutes(admin)
	requestsHandler.RegisterAdminRoutes(admin)
	authHandler.RegisterAdminRoutes(admin)

	addr := os.Getenv("MEALHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
