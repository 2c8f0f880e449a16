// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/auth"
	"github.com/zabiza830/Ethio-Safeguard/internal/config"
	httptransport "github.com/zabiza830/Ethio-Safeguard/internal/http"
	"github.com/zabiza830/Ethio-Safeguard/internal/infra"
	"github.com/zabiza830/Ethio-Safeguard/internal/logger"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/dispatch"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/registry"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logger.Setup(cfg.Log.File, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := infra.NewMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		logrus.WithError(err).Fatal("mongo init failed")
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	redisClient := infra.NewRedis(cfg.Redis.Addr)

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	hub := ws.NewHub()
	fleetRegistry := registry.New(hub)

	notifyStore := notify.NewMongoStore(db)
	notifySvc := notify.NewService(notifyStore, hub)

	userStore := user.NewMongoStore(db)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		logrus.WithError(err).Fatal("user index creation failed")
	}
	userSvc := user.NewService(userStore, tokens, notifySvc)

	dispatchStore := dispatch.NewMongoStore(db)
	dispatchSvc := dispatch.NewService(dispatchStore, userSvc, notifySvc, fleetRegistry)

	wsHandler := ws.NewHandler(hub, fleetRegistry, tokens)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Users:         userSvc,
		Dispatch:      dispatchSvc,
		Notify:        notifySvc,
		WS:            wsHandler,
		Verifier:      tokens,
		Redis:         redisClient,
		RatePerMinute: cfg.RateLimit.PerMinute,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logrus.WithField("addr", cfg.HTTP.Addr).Info("safeguard api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Fatal(err)
	}
}
