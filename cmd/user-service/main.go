// Command user-service exposes the user directory over gRPC so other
// processes can read identity and moderation flags without database access.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/config"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo user.Repository
	if cfg.DataStore == "memory" {
		log.Printf("[user-service] using in-memory store")
		repo = memstore.New().Users
	} else {
		pool, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("[user-service] postgres: %v", err)
		}
		defer pool.Close()
		repo = user.NewPGRepo(pool)
	}

	l, err := net.Listen("tcp", cfg.UserSvcListen)
	if err != nil {
		log.Fatalf("[user-service] listen: %v", err)
	}

	srv := grpc.NewServer()
	user.NewDirectoryServer(repo).Register(srv)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		log.Printf("[user-service] shutting down")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	log.Printf("[user-service] listening on %s", cfg.UserSvcListen)
	if err := srv.Serve(l); err != nil {
		log.Fatalf("[user-service] serve: %v", err)
	}
}
