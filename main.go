package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jinzhu/copier"
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/core/sql"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/feed"
	"github.com/saveblush/reraw-feeds/pgk/cron"
	"github.com/saveblush/reraw-feeds/pgk/diagnostics"
	"github.com/saveblush/reraw-feeds/pgk/eventstore"
	"github.com/saveblush/reraw-feeds/pgk/nips/nip09"
	"github.com/saveblush/reraw-feeds/pgk/policies"
	"github.com/saveblush/reraw-feeds/pgk/profiles"
	"github.com/saveblush/reraw-feeds/pgk/source"
	"github.com/saveblush/reraw-feeds/server"
)

func main() {
	flag.Parse()

	// Init logger
	logger.InitLogger(false)

	// Init configuration
	err := config.InitConfig()
	if err != nil {
		logger.Log.Panicf("init configuration error: %s", err)
	}
	if config.CF.App.Debug {
		logger.InitLogger(true)
	}

	// Init connection database, the event cache is optional
	var store eventstore.Service
	cfdb := config.CF.Database.CacheSQL
	if cfdb.Enabled {
		session, err := sql.InitConnection(&sql.Configuration{
			Host:         cfdb.Host,
			Port:         cfdb.Port,
			Username:     cfdb.Username,
			Password:     cfdb.Password,
			DatabaseName: cfdb.DatabaseName,
			MaxIdleConns: cfdb.MaxIdleConns,
			MaxOpenConns: cfdb.MaxOpenConns,
			MaxLifetime:  cfdb.MaxLifetime,
		})
		if err != nil {
			logger.Log.Panicf("init connection db error: %s", err)
		}

		// Set to global variable database
		sql.Database = session.Database

		// Debug db
		if !config.CF.App.Environment.Production() {
			sql.DebugDatabase()
		}

		// Migration db
		_ = sql.Migration(sql.Database)

		store = eventstore.NewService()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Policies, the configured part follows config reloads
	policy := policies.NewService(config.CF.Policy, store)
	config.OnChange(func(cf *config.Configs) {
		policy.Apply(cf.Policy)
	})

	// Upstream relays
	reporter := diagnostics.NewReporter()
	pool := source.NewPool(ctx, config.CF.Relays)
	pool.OnMalformed(func(_ *nostr.Event, err error) {
		reporter.MalformedRecord("", err)
	})
	pool.Connect()

	// Feeds
	opts := feed.Options{}
	if err := copier.Copy(&opts, &config.CF.Feed); err != nil {
		logger.Log.Panicf("copy feed options error: %s", err)
	}

	deps := feed.Deps{
		Source:    pool,
		Profiles:  profiles.NewService(ctx, config.CF.Profile, pool),
		Policy:    policy,
		Reporter:  reporter,
		Deletions: nip09.NewService(store),
	}
	if store != nil {
		deps.Cache = store
	}

	controller := feed.New(opts, deps)
	controller.Start(ctx)

	// Cron
	var cleaner cron.Cleaner
	if store != nil {
		cleaner = store
	}
	cr := cron.NewService(controller, cleaner, policy)
	cr.Start()

	// Start app
	srv := server.NewServer(ctx, controller, config.CF.Server)
	addr := flag.String("addr", fmt.Sprintf(":%d", config.CF.App.Port), "http service address")
	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Serve(),
	}
	httpServer.SetKeepAlivesEnabled(true)

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Panicf("App start error: %s", err)
		}
	}()
	logger.Log.Infof("App start on: %s", *addr)

	// Shutdown app
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownRelease()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		logger.Log.Errorf("App shutdown error: %s", err)
	}

	// Close feeds
	controller.Close()
	cancel()
	logger.Log.Info("Feeds closed")

	// Close cron
	cr.Stop()
	logger.Log.Info("Cron closed")

	// Close db
	_ = sql.CloseConnection(sql.Database)
	logger.Log.Info("Database connection closed")

	logger.Log.Info("Gracefully shutting down")
}
