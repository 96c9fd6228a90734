// Command api serves the marketplace REST API, the websocket hub and the
// notification event consumer.
//
//	@title						Craftmandu Marketplace API
//	@version					1.0
//	@description				Multi-vendor marketplace: catalog, checkout, payments, reviews, chat and notifications.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/config"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/storage"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[api] config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var r repos
	switch cfg.DataStore {
	case "memory":
		log.Printf("[api] using in-memory store; data is lost on exit")
		r = memRepos(memstore.New())
	default:
		pool, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("[api] postgres: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("[api] migrate: %v", err)
		}
		r = pgRepos(pool)
	}

	var d deps
	if cfg.RabbitMQURL != "" {
		bus, err := events.DialAMQP(cfg.RabbitMQURL, cfg.EventsExchange, cfg.EventsQueue)
		if err != nil {
			log.Fatalf("[api] rabbitmq: %v", err)
		}
		defer bus.Close()
		d.publisher = bus
	}
	if cfg.UserSvcAddr != "" {
		dir, conn, err := user.DialDirectory(cfg.UserSvcAddr)
		if err != nil {
			log.Fatalf("[api] user directory: %v", err)
		}
		defer conn.Close()
		d.flags = dir
	}
	if cfg.JWKSURL != "" {
		jwks, err := auth.NewJWKS(ctx, cfg.JWKSURL)
		if err != nil {
			log.Fatalf("[api] jwks: %v", err)
		}
		d.jwks = jwks
	}
	if cfg.StripeSecretKey != "" {
		d.processor = payment.NewStripe(cfg.StripeSecretKey)
	}
	var localUploads string
	if cfg.StorageURL != "" {
		d.store = storage.NewHTTPStore(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
	} else {
		disk := storage.NewDiskStore(cfg.StorageLocalDir, cfg.PublicBaseURL+"/uploads")
		localUploads = disk.Dir()
		d.store = disk
	}

	a := newApp(cfg, r, d)
	a.bootstrapAdmin(ctx)

	if bus, ok := d.publisher.(*events.AMQP); ok {
		go func() {
			if err := bus.Consume(ctx, a.notifications.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[events] consumer stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router(localUploads),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[api] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[api] listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[api] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[api] shutdown: %v", err)
	}
}
