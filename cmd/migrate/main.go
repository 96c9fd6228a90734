// Command migrate applies the embedded schema and optionally creates or
// promotes an administrator.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/config"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
)

func main() {
	cfg := config.Load()
	email := flag.String("admin-email", cfg.AdminEmail, "administrator email to create or promote")
	password := flag.String("admin-password", cfg.AdminPassword, "password used when the administrator is created")
	name := flag.String("admin-name", "", "administrator full name")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[migrate] postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[migrate] %v", err)
	}
	log.Printf("[migrate] schema up to date")

	if *email == "" {
		return
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	u, err := user.NewService(user.NewPGRepo(pool), issuer).EnsureAdmin(ctx, *email, *password, *name)
	if err != nil {
		log.Fatalf("[migrate] admin: %v", err)
	}
	log.Printf("[migrate] %s is an administrator", u.Email)
}
