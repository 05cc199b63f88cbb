package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"pricing-service/pkg/jwt"
)

func newRouter(manager *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), Logger())

	admin := r.Group("/admin", AuthMiddleware(manager), AdminMiddleware())
	admin.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRole))
	})
	r.GET("/confirm", AuthMiddleware(manager), RequireRole(RoleService, RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRole))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func request(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoute(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	r := newRouter(manager)

	adminToken, err := manager.GenerateAccessToken(uuid.NewString(), "admin")
	require.NoError(t, err)
	customerToken, err := manager.GenerateAccessToken(uuid.NewString(), "customer")
	require.NoError(t, err)
	badSubject, err := manager.GenerateAccessToken("not-a-uuid", "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, request(r, "/admin/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "/admin/ping", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "/admin/ping", badSubject).Code)
	assert.Equal(t, http.StatusForbidden, request(r, "/admin/ping", customerToken).Code)

	w := request(r, "/admin/ping", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestConfirmRoute_RejectsCustomers(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	r := newRouter(manager)

	token := func(role string) string {
		tok, err := manager.GenerateAccessToken(uuid.NewString(), role)
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, http.StatusUnauthorized, request(r, "/confirm", "").Code)
	assert.Equal(t, http.StatusForbidden, request(r, "/confirm", token("customer")).Code)

	for _, role := range []string{RoleService, RoleAdmin} {
		w := request(r, "/confirm", token(role))
		assert.Equal(t, http.StatusOK, w.Code, role)
		assert.Equal(t, role, w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(jwt.NewManager("secret", time.Hour))

	w := request(r, "/admin/ping", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := newRouter(jwt.NewManager("secret", time.Hour))

	w := request(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_INTERNAL_ERROR")
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Tracing("pricing-test"))
	r.GET("/quote/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/quote/1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /quote/:id", spans[0].Name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
}
