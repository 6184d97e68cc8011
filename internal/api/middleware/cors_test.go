package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func corsRouter(allowed string) *gin.Engine {
	r := gin.New()
	r.Use(CORSMiddleware(allowed))
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func corsRequest(r http.Handler, method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware_AllowAll(t *testing.T) {
	w := corsRequest(corsRouter("*"), http.MethodGet, "http://example.com", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Vary"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_SpecificOrigin_Allowed(t *testing.T) {
	w := corsRequest(corsRouter("http://allowed.com,http://also-allowed.com"), http.MethodGet, "http://allowed.com", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://allowed.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_SpecificOrigin_NotAllowed(t *testing.T) {
	w := corsRequest(corsRouter("http://allowed.com"), http.MethodGet, "http://not-allowed.com", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	w := corsRequest(corsRouter("*"), http.MethodOptions, "http://example.com", map[string]string{
		"Access-Control-Request-Method": "POST",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, corsAllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSMiddleware_PreflightWithRequestHeaders(t *testing.T) {
	w := corsRequest(corsRouter("*"), http.MethodOptions, "http://example.com", map[string]string{
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "X-Custom-Header, X-Another",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "X-Custom-Header, X-Another", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSMiddleware_NoOriginHeader(t *testing.T) {
	w := corsRequest(corsRouter("http://allowed.com"), http.MethodGet, "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_EmptyAllowedOrigins(t *testing.T) {
	w := corsRequest(corsRouter(""), http.MethodGet, "http://example.com", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_WhitespaceInOrigins(t *testing.T) {
	w := corsRequest(corsRouter("  http://a.com  ,  http://b.com  "), http.MethodGet, "http://a.com", nil)

	assert.Equal(t, "http://a.com", w.Header().Get("Access-Control-Allow-Origin"))
}
