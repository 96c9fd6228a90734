package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/admin"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/chat"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/config"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/events"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/httpx"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/moderation"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/notification"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/realtime"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/review"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/storage"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// repos is one implementation of every repository.
type repos struct {
	users         user.Repository
	vendors       vendor.Repository
	products      product.Repository
	inventory     inventory.Repository
	orders        order.Repository
	payments      payment.Repository
	reviews       review.Repository
	chat          chat.Repository
	notifications notification.Repository
	admin         admin.Repository
}

func pgRepos(pool *pgxpool.Pool) repos {
	return repos{
		users:         user.NewPGRepo(pool),
		vendors:       vendor.NewPGRepo(pool),
		products:      product.NewPGRepo(pool),
		inventory:     inventory.NewPGRepo(pool),
		orders:        order.NewPGRepo(pool),
		payments:      payment.NewPGRepo(pool),
		reviews:       review.NewPGRepo(pool),
		chat:          chat.NewPGRepo(pool),
		notifications: notification.NewPGRepo(pool),
		admin:         admin.NewPGRepo(pool),
	}
}

func memRepos(st *memstore.Store) repos {
	return repos{
		users:         st.Users,
		vendors:       st.Vendors,
		products:      st.Products,
		inventory:     st.Inventory,
		orders:        st.Orders,
		payments:      st.Payments,
		reviews:       st.Reviews,
		chat:          st.Chat,
		notifications: st.Notifications,
		admin:         st.Admin,
	}
}

// deps are the optional collaborators chosen from configuration.
type deps struct {
	// publisher carries domain events. Nil means events are handed to the
	// notification service in process.
	publisher events.Publisher
	// flags overrides where moderation reads user flags, e.g. the gRPC
	// directory. Nil means the user repository.
	flags     moderation.Source
	// jwks enables provider-issued RS256 tokens.
	jwks      *auth.JWKS
	processor payment.Processor
	store     storage.Store
}

type app struct {
	cfg      config.Config
	verifier *auth.Verifier
	hub      *realtime.Hub
	gate     *moderation.Gate
	uploads  *storage.Uploader
	events   events.Publisher

	users         *user.Service
	vendors       *vendor.Service
	products      *product.Service
	inventory     *inventory.Service
	orders        *order.Service
	payments      *payment.Service
	reviews       *review.Service
	chat          *chat.Service
	notifications *notification.Service
	admin         *admin.Service
}

func newApp(cfg config.Config, r repos, d deps) *app {
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	var opts []auth.VerifierOption
	if d.jwks != nil {
		opts = append(opts, auth.WithProvider(d.jwks, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTRoleClaim))
	}

	a := &app{cfg: cfg, verifier: auth.NewVerifier(issuer, opts...), hub: realtime.NewHub(httpx.OriginPolicy(cfg.CORSOrigins))}
	a.users = user.NewService(r.users, issuer)
	a.vendors = vendor.NewService(r.vendors)
	a.products = product.NewService(r.products, a.vendors)
	a.inventory = inventory.NewService(r.inventory, a.products)
	a.notifications = notification.NewService(r.notifications, a.hub, notification.NewLookup(a.users, r.vendors))

	a.events = d.publisher
	if a.events == nil {
		a.events = events.NewLocal(a.notifications.HandleEvent)
	}

	a.orders = order.NewService(r.orders, r.products, r.vendors, a.events, order.Options{
		ShippingFlatCents: cfg.ShippingFlatCents,
		TaxRateBPS:        cfg.TaxRateBPS,
		Currency:          cfg.Currency,
		StrictTransitions: cfg.StrictOrderTransitions,
	})
	a.payments = payment.NewService(r.payments, a.orders, d.processor, a.events, cfg.StripeWebhookSecret, cfg.Currency)
	a.orders.SetPaymentStarter(a.payments)
	a.reviews = review.NewService(r.reviews, a.orders, a.products)
	a.chat = chat.NewService(r.chat, r.vendors, a.hub)
	a.admin = admin.NewService(r.admin)

	flags := d.flags
	if flags == nil {
		flags = r.users
	}
	a.gate = moderation.NewGate(flags)

	if d.store != nil {
		a.uploads = storage.NewUploader(d.store, cfg.UploadMaxBytes, cfg.UploadAllowedMIME)
	}
	return a
}

// bootstrapAdmin makes sure the configured administrator exists.
func (a *app) bootstrapAdmin(ctx context.Context) {
	if a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
		return
	}
	u, err := a.users.EnsureAdmin(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword, "")
	if err != nil {
		log.Printf("[api] admin bootstrap failed: %v", err)
		return
	}
	log.Printf("[api] admin account %s ready", u.Email)
}
