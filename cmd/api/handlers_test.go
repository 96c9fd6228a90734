package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/config"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/memstore"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/storage"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/vendor"
)

// smallest valid PNG header is enough for sniffing
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}

type testEnv struct {
	t      *testing.T
	st     *memstore.Store
	app    *app
	router http.Handler
	issuer *auth.Issuer
}

func testConfig() config.Config {
	return config.Config{
		Env:                    "test",
		JWTSecret:              "test-secret",
		JWTIssuer:              "craftmandu",
		JWTAccessTTL:           time.Minute,
		JWTRefreshTTL:          time.Hour,
		Currency:               "usd",
		StrictOrderTransitions: true,
		CORSOrigins:            []string{"*"},
		UploadMaxBytes:         1024,
		UploadAllowedMIME:      []string{"image/png"},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	st := memstore.New()
	a := newApp(cfg, memRepos(st), deps{store: storage.NewDiskStore(t.TempDir(), "/uploads")})
	return &testEnv{
		t:      t,
		st:     st,
		app:    a,
		router: a.router(""),
		issuer: auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
	}
}

func (e *testEnv) token(p auth.Principal) string {
	e.t.Helper()
	toks, err := e.issuer.Issue(p.UserID, p.Role)
	require.NoError(e.t, err)
	return toks.AccessToken
}

// do sends body as JSON (or nothing when nil) with an optional bearer token.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func expect(t *testing.T, w *httptest.ResponseRecorder, code int) gjson.Result {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	return gjson.Parse(w.Body.String())
}

// shop seeds an approved vendor owning one active product.
func (e *testEnv) shop(price int64, stock int) (auth.Principal, *vendor.Vendor, *product.Product) {
	owner := e.st.SeedUser(fmt.Sprintf("shop-%d@example.com", time.Now().UnixNano()), auth.RoleCustomer)
	v := e.st.SeedVendor(&owner, "Himalayan Crafts", vendor.StatusApproved)
	p := e.st.SeedProduct(v.ID, "Felt Slippers", price, stock)
	return owner, v, p
}

func checkoutBody(productID string, qty int) gin.H {
	return gin.H{
		"items": []gin.H{{"product_id": productID, "quantity": qty}},
		"shipping_address": gin.H{
			"name": "Asha Gurung", "line1": "Thamel Marg 12", "city": "Kathmandu", "country": "NP",
		},
		"payment_method": "cod",
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/healthz", "", nil)
	expect(t, w, http.StatusOK)
	assert.Equal(t, "ok", w.Body.String())

	w = env.do(http.MethodGet, "/metrics", "", nil)
	expect(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "marketplace_http_requests_total")
}

func TestRegisterLoginAndProfile(t *testing.T) {
	env := newTestEnv(t)
	reg := gin.H{"email": "Asha@Example.com", "password": "s3cure-pass", "full_name": "Asha Gurung"}

	res := expect(t, env.do(http.MethodPost, "/api/auth/register", "", reg), http.StatusCreated)
	assert.Equal(t, "asha@example.com", res.Get("user.email").String())
	assert.Equal(t, "CUSTOMER", res.Get("user.role").String())
	assert.NotEmpty(t, res.Get("tokens.access_token").String())

	res = expect(t, env.do(http.MethodPost, "/api/auth/register", "", reg), http.StatusBadRequest)
	assert.Equal(t, "Email already in use", res.Get("error").String())

	res = expect(t, env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "wrong-pass"}), http.StatusUnauthorized)
	assert.Equal(t, "Invalid credentials", res.Get("error").String())

	res = expect(t, env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "asha@example.com", "password": "s3cure-pass"}), http.StatusOK)
	access := res.Get("tokens.access_token").String()

	res = expect(t, env.do(http.MethodPatch, "/api/users/me", access, gin.H{"phone": "+977-1-4000000"}), http.StatusOK)
	assert.Equal(t, "+977-1-4000000", res.Get("phone").String())

	expect(t, env.do(http.MethodGet, "/api/users/me", "", nil), http.StatusUnauthorized)
	expect(t, env.do(http.MethodGet, "/api/users/me", "not-a-token", nil), http.StatusUnauthorized)
}

func TestProductCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	owner, _, _ := env.shop(1000, 1)
	tok := env.token(owner)

	expect(t, env.do(http.MethodPost, "/api/products", tok, gin.H{"name": "Mug", "price_cents": -1}), http.StatusBadRequest)
	expect(t, env.do(http.MethodPost, "/api/products", tok, gin.H{"name": "Mug"}), http.StatusBadRequest)

	res := expect(t, env.do(http.MethodPost, "/api/products", tok, gin.H{"name": "Mug", "price_cents": 1500}), http.StatusCreated)
	assert.Equal(t, "DRAFT", res.Get("status").String())
	draftID := res.Get("id").String()

	// Drafts stay out of the public catalog and are hidden from strangers.
	res = expect(t, env.do(http.MethodGet, "/api/products", "", nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("total").Int())
	expect(t, env.do(http.MethodGet, "/api/products/"+draftID, "", nil), http.StatusNotFound)
	expect(t, env.do(http.MethodGet, "/api/products/"+draftID, tok, nil), http.StatusOK)

	res = expect(t, env.do(http.MethodGet, "/api/products/mine", tok, nil), http.StatusOK)
	assert.Equal(t, int64(2), res.Get("total").Int())

	expect(t, env.do(http.MethodGet, "/api/products?min_price=abc", "", nil), http.StatusBadRequest)

	stranger := env.st.SeedUser("stranger@example.com", auth.RoleCustomer)
	expect(t, env.do(http.MethodPost, "/api/products", env.token(stranger), gin.H{"name": "Mug", "price_cents": 100}), http.StatusNotFound)
}

func TestCheckoutTotalsAndStock(t *testing.T) {
	env := newTestEnv(t)
	owner, _, prod := env.shop(2599, 5)
	buyer := env.st.SeedUser("buyer@example.com", auth.RoleCustomer)

	res := expect(t, env.do(http.MethodPost, "/api/orders/checkout", env.token(buyer), checkoutBody(prod.ID, 2)), http.StatusCreated)
	require.Equal(t, int64(1), res.Get("orders.#").Int())
	o := res.Get("orders.0")
	assert.Equal(t, "PENDING", o.Get("status").String())
	assert.Equal(t, int64(5198), o.Get("subtotal_cents").Int())
	assert.Equal(t, int64(5198), o.Get("total_cents").Int())
	assert.Equal(t, int64(2599), o.Get("items.0.unit_price_cents").Int())
	assert.Equal(t, int64(5198), o.Get("items.0.line_total_cents").Int())

	res = expect(t, env.do(http.MethodGet, "/api/products/"+prod.ID+"/inventory", "", nil), http.StatusOK)
	assert.Equal(t, int64(3), res.Get("quantity").Int())

	expect(t, env.do(http.MethodPost, "/api/orders/checkout", env.token(buyer), checkoutBody(prod.ID, 4)), http.StatusConflict)

	// The shop owner was told about the order in process.
	res = expect(t, env.do(http.MethodGet, "/api/notifications/unread-count", env.token(owner), nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("count").Int())

	res = expect(t, env.do(http.MethodGet, "/api/orders/"+o.Get("id").String()+"/payments", env.token(buyer), nil), http.StatusOK)
	assert.Equal(t, "PENDING", res.Get("0.status").String())
	assert.Equal(t, "cod", res.Get("0.provider").String())
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner, _, prod := env.shop(1000, 5)
	buyer := env.st.SeedUser("buyer@example.com", auth.RoleCustomer)
	vtok, btok := env.token(owner), env.token(buyer)

	res := expect(t, env.do(http.MethodPost, "/api/orders/checkout", btok, checkoutBody(prod.ID, 1)), http.StatusCreated)
	id := res.Get("orders.0.id").String()
	status := "/api/orders/" + id + "/status"

	expect(t, env.do(http.MethodPatch, status, vtok, gin.H{"status": "PROCESSING"}), http.StatusOK)
	res = expect(t, env.do(http.MethodPatch, status, vtok, gin.H{"status": "PROCESSING"}), http.StatusOK)
	assert.Equal(t, "PROCESSING", res.Get("status").String())

	// Customers may only cancel while the order is pending.
	expect(t, env.do(http.MethodPost, "/api/orders/"+id+"/cancel", btok, nil), http.StatusForbidden)

	expect(t, env.do(http.MethodPatch, status, vtok, gin.H{"status": "SHIPPED"}), http.StatusOK)
	expect(t, env.do(http.MethodPatch, status, vtok, gin.H{"status": "DELIVERED"}), http.StatusOK)
	expect(t, env.do(http.MethodPatch, status, vtok, gin.H{"status": "PENDING"}), http.StatusUnprocessableEntity)

	res = expect(t, env.do(http.MethodGet, "/api/orders/vendor", vtok, nil), http.StatusOK)
	assert.Equal(t, "DELIVERED", res.Get("items.0.status").String())

	res = expect(t, env.do(http.MethodGet, "/api/notifications", btok, nil), http.StatusOK)
	assert.Equal(t, int64(3), res.Get("total").Int())

	// A delivered order unlocks the review.
	review := gin.H{"order_id": id, "product_id": prod.ID, "rating": 4, "comment": "Warm"}
	expect(t, env.do(http.MethodPost, "/api/reviews", btok, review), http.StatusCreated)
	expect(t, env.do(http.MethodPost, "/api/reviews", btok, review), http.StatusConflict)
	res = expect(t, env.do(http.MethodGet, "/api/products/"+prod.ID+"/reviews", "", nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("summary.count").Int())
	assert.Equal(t, 4.0, res.Get("summary.average").Float())
}

func TestCancelRestocks(t *testing.T) {
	env := newTestEnv(t)
	_, _, prod := env.shop(1000, 2)
	buyer := env.st.SeedUser("buyer@example.com", auth.RoleCustomer)
	btok := env.token(buyer)

	res := expect(t, env.do(http.MethodPost, "/api/orders/checkout", btok, checkoutBody(prod.ID, 2)), http.StatusCreated)
	id := res.Get("orders.0.id").String()

	res = expect(t, env.do(http.MethodPost, "/api/orders/"+id+"/cancel", btok, nil), http.StatusOK)
	assert.Equal(t, "CANCELLED", res.Get("status").String())

	res = expect(t, env.do(http.MethodGet, "/api/products/"+prod.ID+"/inventory", "", nil), http.StatusOK)
	assert.Equal(t, int64(2), res.Get("quantity").Int())
}

func TestBannedUserIsBlocked(t *testing.T) {
	env := newTestEnv(t)
	_, v, prod := env.shop(1000, 5)
	buyer := env.st.SeedUser("buyer@example.com", auth.RoleCustomer)
	root := env.st.SeedUser("root@example.com", auth.RoleAdmin)
	btok := env.token(buyer)

	res := expect(t, env.do(http.MethodPost, "/api/chat/conversations", btok, gin.H{"vendor_id": v.ID}), http.StatusOK)
	conv := res.Get("id").String()
	expect(t, env.do(http.MethodPost, "/api/chat/conversations/"+conv+"/messages", btok, gin.H{"body": "Hello"}), http.StatusCreated)

	expect(t, env.do(http.MethodPatch, "/api/admin/users/"+buyer.UserID+"/ban", env.token(root), gin.H{"banned": true}), http.StatusOK)

	// The token is still valid; the ban is enforced on every write.
	res = expect(t, env.do(http.MethodPost, "/api/chat/conversations/"+conv+"/messages", btok, gin.H{"body": "Hello again"}), http.StatusForbidden)
	assert.Equal(t, "Account is banned", res.Get("error").String())
	res = expect(t, env.do(http.MethodPost, "/api/orders/checkout", btok, checkoutBody(prod.ID, 1)), http.StatusForbidden)
	assert.Equal(t, "Account is banned", res.Get("error").String())
	expect(t, env.do(http.MethodPost, "/api/reviews", btok, gin.H{}), http.StatusForbidden)

	res = expect(t, env.do(http.MethodGet, "/api/chat/conversations/"+conv+"/messages", btok, nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("total").Int())
}

func TestCapabilityToggle(t *testing.T) {
	env := newTestEnv(t)
	_, _, prod := env.shop(1000, 5)
	buyer := env.st.SeedUser("buyer@example.com", auth.RoleCustomer)
	root := env.st.SeedUser("root@example.com", auth.RoleAdmin)

	res := expect(t, env.do(http.MethodPatch, "/api/admin/users/"+buyer.UserID+"/capabilities", env.token(root), gin.H{"can_order": false}), http.StatusOK)
	assert.False(t, res.Get("can_order").Bool())
	assert.True(t, res.Get("can_chat").Bool())

	expect(t, env.do(http.MethodPost, "/api/orders/checkout", env.token(buyer), checkoutBody(prod.ID, 1)), http.StatusForbidden)
}

func TestVendorApprovalCascadesRole(t *testing.T) {
	env := newTestEnv(t)
	applicant := env.st.SeedUser("maker@example.com", auth.RoleCustomer)
	root := env.st.SeedUser("root@example.com", auth.RoleAdmin)
	atok := env.token(root)

	res := expect(t, env.do(http.MethodPost, "/api/vendors", env.token(applicant), gin.H{"shop_name": "Himalayan Crafts"}), http.StatusCreated)
	assert.Equal(t, "PENDING", res.Get("status").String())
	assert.Equal(t, "himalayan-crafts", res.Get("slug").String())
	id := res.Get("id").String()

	res = expect(t, env.do(http.MethodGet, "/api/vendors", "", nil), http.StatusOK)
	assert.Equal(t, int64(0), res.Get("total").Int())

	expect(t, env.do(http.MethodPatch, "/api/admin/vendors/"+id+"/status", atok, gin.H{"status": "APPROVED"}), http.StatusOK)
	res = expect(t, env.do(http.MethodGet, "/api/admin/users/"+applicant.UserID, atok, nil), http.StatusOK)
	assert.Equal(t, "VENDOR", res.Get("role").String())

	expect(t, env.do(http.MethodPatch, "/api/admin/vendors/"+id+"/status", atok, gin.H{"status": "SUSPENDED"}), http.StatusOK)
	res = expect(t, env.do(http.MethodGet, "/api/admin/users/"+applicant.UserID, atok, nil), http.StatusOK)
	assert.Equal(t, "CUSTOMER", res.Get("role").String())

	res = expect(t, env.do(http.MethodGet, "/api/vendors/slug/himalayan-crafts", "", nil), http.StatusOK)
	assert.Equal(t, "SUSPENDED", res.Get("status").String())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	someone := env.st.SeedUser("someone@example.com", auth.RoleCustomer)
	root := env.st.SeedUser("root@example.com", auth.RoleAdmin)

	expect(t, env.do(http.MethodGet, "/api/admin/stats", env.token(someone), nil), http.StatusForbidden)
	res := expect(t, env.do(http.MethodGet, "/api/admin/stats", env.token(root), nil), http.StatusOK)
	assert.Equal(t, int64(2), res.Get("users").Int())

	res = expect(t, env.do(http.MethodPost, "/api/admin/notifications/broadcast", env.token(root), gin.H{"title": "Festival sale"}), http.StatusOK)
	assert.Equal(t, int64(2), res.Get("sent").Int())
	res = expect(t, env.do(http.MethodGet, "/api/notifications/unread-count", env.token(someone), nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("count").Int())
	res = expect(t, env.do(http.MethodPost, "/api/notifications/read-all", env.token(someone), nil), http.StatusOK)
	assert.Equal(t, int64(1), res.Get("updated").Int())
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	someone := env.st.SeedUser("someone@example.com", auth.RoleCustomer)

	send := func(data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "image.png")
		require.NoError(t, err)
		_, _ = fw.Write(data)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+env.token(someone))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	res := expect(t, send(pngBytes), http.StatusCreated)
	assert.Equal(t, "image/png", res.Get("mime").String())
	assert.True(t, strings.HasPrefix(res.Get("path").String(), someone.UserID+"/"))

	res = expect(t, send(bytes.Repeat([]byte{'a'}, 2048)), http.StatusBadRequest)
	assert.Equal(t, "file too large", res.Get("error").String())

	expect(t, send([]byte("plain text")), http.StatusBadRequest)
}
