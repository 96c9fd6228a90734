package memstore

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type Users struct{ s *state }

var _ user.Repository = (*Users)(nil)

func (r *Users) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if e.Email == u.Email {
			return user.ErrAlreadyExist
		}
	}
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.track(u.ID)
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

// mutate applies fn to the stored user under the lock.
func (r *Users) mutate(id string, fn func(u *user.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = r.s.now()
	return nil
}

func (r *Users) Update(_ context.Context, id string, p user.Patch) error {
	return r.mutate(id, func(u *user.User) {
		u.FullName = p.FullName.OrElse(u.FullName)
		u.Phone = p.Phone.OrElse(u.Phone)
		u.AvatarURL = p.AvatarURL.OrElse(u.AvatarURL)
		u.PasswordHash = p.PasswordHash.OrElse(u.PasswordHash)
	})
}

func (r *Users) List(_ context.Context, q user.Query) ([]user.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(q.Q)
	var out []user.User
	for _, u := range r.s.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.FullName), needle) {
			continue
		}
		out = append(out, *u)
	}
	newestFirst(r.s, out, func(u user.User) string { return u.ID })
	return window(out, q.Limit, q.Offset), len(out), nil
}

func (r *Users) SetBanned(_ context.Context, id string, banned bool) error {
	return r.mutate(id, func(u *user.User) { u.IsBanned = banned })
}

func (r *Users) SetCapabilities(_ context.Context, id string, c user.Capabilities) error {
	return r.mutate(id, func(u *user.User) {
		u.CanChat = c.CanChat.OrElse(u.CanChat)
		u.CanOrder = c.CanOrder.OrElse(u.CanOrder)
		u.CanReview = c.CanReview.OrElse(u.CanReview)
	})
}

func (r *Users) SetRole(_ context.Context, id string, role auth.Role) error {
	return r.mutate(id, func(u *user.User) { u.Role = role })
}

func (r *Users) ListIDsByRole(_ context.Context, role auth.Role) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := lo.Filter(lo.Values(r.s.users), func(u *user.User, _ int) bool {
		return (role == "" || u.Role == role) && !u.IsBanned
	})
	ids := lo.Map(users, func(u *user.User, _ int) string { return u.ID })
	oldestFirst(r.s, ids, func(id string) string { return id })
	return ids, nil
}

type Vendors struct{ s *state }

var _ vendor.Repository = (*Vendors)(nil)

func (r *Vendors) Create(_ context.Context, v *vendor.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.vendors {
		if e.UserID == v.UserID {
			return vendor.ErrAlreadyExist
		}
		if e.Slug == v.Slug {
			return vendor.ErrSlugTaken
		}
	}
	v.CreatedAt = r.s.now()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	r.s.vendors[v.ID] = &cp
	r.s.track(v.ID)
	return nil
}

func (r *Vendors) find(match func(v *vendor.Vendor) bool) (*vendor.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vendors {
		if match(v) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, vendor.ErrNotFound
}

func (r *Vendors) GetByID(_ context.Context, id string) (*vendor.Vendor, error) {
	return r.find(func(v *vendor.Vendor) bool { return v.ID == id })
}

func (r *Vendors) GetByUserID(_ context.Context, userID string) (*vendor.Vendor, error) {
	return r.find(func(v *vendor.Vendor) bool { return v.UserID == userID })
}

func (r *Vendors) GetBySlug(_ context.Context, sl string) (*vendor.Vendor, error) {
	return r.find(func(v *vendor.Vendor) bool { return v.Slug == sl })
}

func (r *Vendors) Update(_ context.Context, id string, p vendor.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return vendor.ErrNotFound
	}
	v.ShopName = p.ShopName.OrElse(v.ShopName)
	v.Description = p.Description.OrElse(v.Description)
	v.LogoURL = p.LogoURL.OrElse(v.LogoURL)
	v.UpdatedAt = r.s.now()
	return nil
}

func (r *Vendors) List(_ context.Context, q vendor.Query) ([]vendor.Vendor, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []vendor.Vendor
	for _, v := range r.s.vendors {
		if q.Status == "" || v.Status == q.Status {
			out = append(out, *v)
		}
	}
	newestFirst(r.s, out, func(v vendor.Vendor) string { return v.ID })
	return window(out, q.Limit, q.Offset), len(out), nil
}

func (r *Vendors) SetStatus(_ context.Context, id string, status vendor.Status, ownerRole auth.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return vendor.ErrNotFound
	}
	now := r.s.now()
	v.Status, v.UpdatedAt = status, now
	if u, ok := r.s.users[v.UserID]; ok && u.Role != auth.RoleAdmin {
		u.Role, u.UpdatedAt = ownerRole, now
	}
	return nil
}
