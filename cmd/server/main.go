package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kalim4k/luminagame/internal/auth"
	"github.com/kalim4k/luminagame/internal/db"
	"github.com/kalim4k/luminagame/internal/games"
	"github.com/kalim4k/luminagame/internal/gate"
	appmw "github.com/kalim4k/luminagame/internal/middleware"
	"github.com/kalim4k/luminagame/internal/notify"
	"github.com/kalim4k/luminagame/internal/push"
	"github.com/kalim4k/luminagame/internal/social"
	"github.com/kalim4k/luminagame/internal/stats"
	"github.com/kalim4k/luminagame/internal/user"
	"github.com/kalim4k/luminagame/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	// Init subsystems
	db.Init()

	repo := stats.NewPostgresRepo(db.Conn)
	engine := stats.NewEngine(repo, stats.DefaultPullInterval)
	journal := games.NewPgJournal(db.Conn)

	pushClient := push.NewClientFromEnv()
	subs := push.NewPgSubscriptionStore(db.Conn)

	notifier := notify.Init(notify.Deps{
		Repo:    repo,
		Engine:  engine,
		Journal: journal,
		Push:    pushClient,
		Subs:    subs,
	})
	defer notifier.Close()
	social.SetChatAlerter(notifier)

	manager := games.NewManager(engine, journal, notifier)
	gateSvc := gate.New(db.Conn, os.Getenv("GATE_ACCESS_CODE"))
	flow := wallet.NewFlow(engine, repo)

	statsHandler := stats.NewHandler(engine)
	gamesHandler := games.NewHandler(manager, gateSvc)
	walletHandler := wallet.NewHandler(flow)
	gateHandler := gate.NewHandler(gateSvc)
	pushHandler := push.NewHandler(subs, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Re-enqueue rewards stranded by a previous crash before serving traffic.
	if err := manager.RecoverPending(ctx); err != nil {
		log.Printf("[server] pending reward recovery failed: %v", err)
	}
	go engine.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Conn.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database unreachable"})
		}
		return c.String(http.StatusOK, "ok")
	})

	// Public auth routes
	authLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10))
	e.POST("/auth/signup", auth.Signup, authLimiter)
	e.POST("/auth/login", auth.Login, authLimiter)

	// Public game catalog for the landing page
	e.GET("/games", gamesHandler.List)

	// Authenticated group
	g := e.Group("")
	g.Use(appmw.JWTMiddleware)

	g.GET("/auth/me", auth.Me)
	g.GET("/user/profile", user.GetProfile)
	g.PATCH("/user/profile", user.UpdateProfile)

	// Stats
	g.GET("/stats", statsHandler.Get)
	g.POST("/stats/refresh", statsHandler.Refresh)
	g.POST("/stats/recalculate", statsHandler.Recalculate)

	// Gate
	g.GET("/gate", gateHandler.Status)
	g.POST("/gate/unlock", gateHandler.Unlock)

	// Game sessions
	g.POST("/games/:id/play", gamesHandler.Play)
	g.GET("/games/session", gamesHandler.Current)
	g.POST("/games/session/collect", gamesHandler.Collect)
	g.DELETE("/games/session", gamesHandler.Close)

	// Wallet
	g.POST("/wallet/withdraw", walletHandler.Withdraw)
	g.GET("/wallet/transactions", wallet.GetUserTransactions)

	// Push subscriptions
	g.POST("/push/subscribe", pushHandler.Subscribe)
	g.DELETE("/push/subscribe", pushHandler.Unsubscribe)

	// Community feed
	g.GET("/social/messages", social.ListMessages)
	g.POST("/social/messages", social.SendMessage)
	g.GET("/social/ws", social.FeedWS)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWTMiddleware)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.POST("/notifications/broadcast", pushHandler.Broadcast)
	adminGroup.POST("/stats/rollover", statsHandler.Rollover)
	adminGroup.POST("/wallet/credit", wallet.AdminCredit)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API server listening on :%s", port)
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
