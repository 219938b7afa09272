package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTraceMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("trace_id")) })

	w := serve(r, http.MethodGet, "/", map[string]string{TraceHeader: "upstream-1"})
	assert.Equal(t, "upstream-1", w.Header().Get(TraceHeader))
	assert.Equal(t, "upstream-1", w.Body.String())

	w = serve(r, http.MethodGet, "/", map[string]string{TraceHeader: strings.Repeat("x", 100)})
	assert.Len(t, w.Header().Get(TraceHeader), 36)

	w = serve(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(TraceHeader))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://agora.example/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/", map[string]string{"Origin": "https://agora.example"})
	assert.Equal(t, "https://agora.example", w.Header().Get("Access-Control-Allow-Origin"))

	// cors 会把头名规范化为 X-Trace-Id
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), http.CanonicalHeaderKey(TraceHeader))

	w = serve(r, http.MethodGet, "/", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodOptions, "/", map[string]string{
		"Origin":                        "https://agora.example",
		"Access-Control-Request-Method": http.MethodDelete,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestCheckRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withRoles := func(roles ...string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set("roles", roles) }
	}

	for name, tc := range map[string]struct {
		roles []string
		want  string
	}{
		"admin":   {[]string{"USER", "ADMIN"}, "ok"},
		"user":    {[]string{"USER"}, `"code":403`},
		"no role": {nil, `"code":403`},
	} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", withRoles(tc.roles...), CheckRoles("ADMIN"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
			w := serve(r, http.MethodGet, "/", nil)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
}
