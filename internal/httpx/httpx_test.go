package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
)

func newRouter(debug bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Errors(debug))
	r.GET("/notfound", func(c *gin.Context) { _ = c.Error(apperr.NotFound("order not found")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pool closed")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, PageFrom(c)) })
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestErrorsMapsStatus(t *testing.T) {
	w := get(newRouter(false), "/notfound")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestErrorsHidesDetailInProduction(t *testing.T) {
	w := get(newRouter(false), "/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = get(newRouter(true), "/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","detail":"pool closed"}`, w.Body.String())
}

func TestErrorsRecoversPanic(t *testing.T) {
	w := get(newRouter(false), "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPageClamp(t *testing.T) {
	w := get(newRouter(false), "/ok?page=0&limit=1000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"limit":100}`, w.Body.String())

	p := NewPage(3, 0)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 40, p.Offset())
}

func TestListNeverNull(t *testing.T) {
	l := NewList[int](nil, NewPage(1, 10), 0)
	assert.NotNil(t, l.Items)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://craftmandu.app"}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "https://craftmandu.app")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://craftmandu.app", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "requests without an Origin are not CORS")
}

func TestOriginPolicy(t *testing.T) {
	allow := OriginPolicy([]string{"https://craftmandu.app", "http://localhost:5173"})
	assert.True(t, allow("http://localhost:5173"))
	assert.False(t, allow("https://evil.example"))
	assert.True(t, OriginPolicy([]string{"*"})("https://anything.example"))
	assert.False(t, OriginPolicy(nil)("https://craftmandu.app"))
}
