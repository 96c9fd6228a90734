// Package memstore implements every repository in process memory. It backs
// DATA_STORE=memory and the service and handler tests.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/chat"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/notification"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/order"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/payment"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/review"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// state is shared by all repositories so cross-table operations (checkout,
// vendor approval, product deletion) stay atomic under one lock.
type state struct {
	mu   sync.Mutex
	last time.Time
	seq  int64

	users         map[string]*user.User
	vendors       map[string]*vendor.Vendor
	categories    map[string]*product.Category
	products      map[string]*product.Product
	stock         map[string]*inventory.Level
	orders        map[string]*order.Order
	payments      map[string]*payment.Payment
	reviews       map[string]*review.Review
	conversations map[string]*chat.Conversation
	messages      []chat.Message
	notifications map[string]*notification.Notification

	// pos records insertion order per id, used for stable sorting.
	pos map[string]int64
}

// Store groups the repositories. Each field satisfies the Repository
// interface of the package it is named after.
type Store struct {
	Users         *Users
	Vendors       *Vendors
	Products      *Products
	Inventory     *Inventory
	Orders        *Orders
	Payments      *Payments
	Reviews       *Reviews
	Chat          *Chat
	Notifications *Notifications
	Admin         *Admin
}

func New() *Store {
	s := &state{
		users:         map[string]*user.User{},
		vendors:       map[string]*vendor.Vendor{},
		categories:    map[string]*product.Category{},
		products:      map[string]*product.Product{},
		stock:         map[string]*inventory.Level{},
		orders:        map[string]*order.Order{},
		payments:      map[string]*payment.Payment{},
		reviews:       map[string]*review.Review{},
		conversations: map[string]*chat.Conversation{},
		notifications: map[string]*notification.Notification{},
		pos:           map[string]int64{},
	}
	return &Store{
		Users:         &Users{s},
		Vendors:       &Vendors{s},
		Products:      &Products{s},
		Inventory:     &Inventory{s},
		Orders:        &Orders{s},
		Payments:      &Payments{s},
		Reviews:       &Reviews{s},
		Chat:          &Chat{s},
		Notifications: &Notifications{s},
		Admin:         &Admin{s},
	}
}

// now returns a strictly increasing timestamp. Callers hold mu.
func (s *state) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// track records id's insertion position. Callers hold mu.
func (s *state) track(id string) {
	s.seq++
	s.pos[id] = s.seq
}

// newestFirst sorts items by insertion order, newest first.
func newestFirst[T any](s *state, items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return s.pos[id(items[i])] > s.pos[id(items[j])] })
}

func oldestFirst[T any](s *state, items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return s.pos[id(items[i])] < s.pos[id(items[j])] })
}

// window applies limit and offset. A non-positive limit means no limit.
func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
