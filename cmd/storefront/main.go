package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/photos"
	"storefront/internal/referral"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
	cfg.Log()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DBDSN
	if cfg.Storage == "redis" {
		dsn = cfg.RedisURL
	}
	store, err := storage.Open(cfg.Storage, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	shutdownTracing, err := telemetry.Setup(ctx, "storefront", cfg.OTelExporter, cfg.OTelEndpoint)
	if err != nil {
		log.Fatal(err)
	}

	pics := photos.Resolver{BaseURL: cfg.MediaBaseURL}
	client := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		APIURL:  cfg.APIURL,
		Timeout: cfg.BackendTimeout,
		Photos:  pics,
	})

	sessions := session.NewRegistry(store, client)
	go sessions.Run(ctx, time.Minute, cfg.SessionIdle)

	reporter := referral.NewReporter(client, 10*time.Second)
	app := handlers.NewApp(handlers.Options{
		Backend:  client,
		Photos:   pics,
		Sessions: sessions,
		Reporter: reporter,
		Secure:   cfg.Production(),
	})

	go func() {
		<-ctx.Done()
		log.Printf("[shutdown] draining")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[shutdown] %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[listen] %v", err)
	}

	reporter.Wait()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("[shutdown] tracing: %v", err)
	}
}
