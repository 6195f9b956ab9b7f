package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fanguan/pos-app/catalog"
	"github.com/fanguan/pos-app/config"
	"github.com/fanguan/pos-app/kds"
	"github.com/fanguan/pos-app/middlewares"
	"github.com/fanguan/pos-app/replication"
	"github.com/fanguan/pos-app/router"
	"github.com/fanguan/pos-app/store"
	"github.com/fanguan/pos-app/utils"
)

func main() {
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.JWTSecret != "" {
		os.Setenv("POS_JWT_SECRET", cfg.JWTSecret)
	}
	utils.InitJWT()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to open state database: %v", err)
	}

	local, err := replication.NewLocal(db, cfg.PollInterval)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to init local replication: %v", err)
	}

	var repl replication.Replicator = local
	if cfg.SyncMode == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		repl = replication.NewRedis(client, cfg.RedisKey, cfg.RedisChannel, local)
		utils.InfoLogger.Printf("Replication: redis at %s", cfg.RedisAddr)
	} else {
		utils.InfoLogger.Printf("Replication: on-device store, poll every %s", cfg.PollInterval)
	}
	defer repl.Close()

	st := store.New(repl)

	// Every snapshot, local or remote, goes out to the connected
	// displays; the alert monitor rings the kitchen on new pendings.
	st.Observe(kds.BroadcastDocument)
	alert := kds.NewAlertMonitor(kds.BroadcastOrderAlert)
	st.Observe(alert.Observe)

	cat := catalog.Load(cfg.MenuPath)

	r, err := router.SetupRouter(st, cat, cfg.OperatorPassword)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up router: %v", err)
	}

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
