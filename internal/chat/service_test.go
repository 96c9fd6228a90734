package chat_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/chat"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

type push struct {
	userID string
	event  string
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []push
}

func (f *fakePusher) Push(userID, event string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, push{userID, event})
}

func TestConversationFlow(t *testing.T) {
	st := memstore.New()
	pusher := &fakePusher{}
	svc := chat.NewService(st.Chat, st.Vendors, pusher)
	ctx := context.Background()

	owner := st.SeedUser("shop@example.com", auth.RoleCustomer)
	shop := st.SeedVendor(&owner, "Shop", vendor.StatusApproved)
	bowl := st.SeedProduct(shop.ID, "bowl", 4500, 1)
	buyer := st.SeedUser("buyer@example.com", auth.RoleCustomer)
	stranger := st.SeedUser("stranger@example.com", auth.RoleCustomer)

	c, err := svc.Open(ctx, buyer, chat.OpenConversationRequest{VendorID: shop.ID, ProductID: &bowl.ID})
	require.NoError(t, err)
	again, err := svc.Open(ctx, buyer, chat.OpenConversationRequest{VendorID: shop.ID, ProductID: &bowl.ID})
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID, "open is idempotent per product")

	general, err := svc.Open(ctx, buyer, chat.OpenConversationRequest{VendorID: shop.ID})
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, general.ID)

	_, err = svc.Open(ctx, owner, chat.OpenConversationRequest{VendorID: shop.ID})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	_, err = svc.Open(ctx, buyer, chat.OpenConversationRequest{VendorID: "00000000-0000-0000-0000-000000000000"})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	m, err := svc.Send(ctx, buyer, c.ID, "  Is this available in blue?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is this available in blue?", m.Body)
	_, err = svc.Send(ctx, owner, c.ID, "Yes!")
	require.NoError(t, err)
	assert.Equal(t, []push{{owner.UserID, "chat.message"}, {buyer.UserID, "chat.message"}}, pusher.pushed)

	_, err = svc.Send(ctx, stranger, c.ID, "hi")
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))
	_, _, err = svc.Messages(ctx, stranger, c.ID, 0, 0)
	assert.Equal(t, http.StatusForbidden, apperr.StatusOf(err))

	msgs, total, err := svc.Messages(ctx, owner, c.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Yes!", msgs[1].Body)

	convs, total, err := svc.ListConversations(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, c.ID, convs[0].ID, "most recent activity first")

	convs, _, err = svc.ListConversations(ctx, stranger, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestSendLength(t *testing.T) {
	st := memstore.New()
	svc := chat.NewService(st.Chat, st.Vendors, &fakePusher{})
	ctx := context.Background()
	owner := st.SeedUser("shop@example.com", auth.RoleCustomer)
	shop := st.SeedVendor(&owner, "Shop", vendor.StatusApproved)
	buyer := st.SeedUser("buyer@example.com", auth.RoleCustomer)
	c, err := svc.Open(ctx, buyer, chat.OpenConversationRequest{VendorID: shop.ID})
	require.NoError(t, err)

	_, err = svc.Send(ctx, buyer, c.ID, "   ")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	_, err = svc.Send(ctx, buyer, c.ID, strings.Repeat("न", chat.MaxBodyLen+1))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	_, err = svc.Send(ctx, buyer, c.ID, strings.Repeat("न", chat.MaxBodyLen))
	assert.NoError(t, err, "the limit counts characters, not bytes")
}
