package otel

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(Config{ServiceName: "test", Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, shutdown)
}

// Before Init the middleware must still pass requests through on the no-op
// tracer.
func TestGinMiddleware_PassThrough(t *testing.T) {
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("traceparent", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMQHeaderCarrier(t *testing.T) {
	carrier := NewMQHeaderCarrier(nil)
	carrier.Set("traceparent", "00-abc-def-01")

	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Contains(t, carrier.Keys(), "traceparent")
	assert.Equal(t, "", carrier.Get("missing"))

	// non-string header values are ignored
	carrier = NewMQHeaderCarrier(map[string]interface{}{"traceparent": 42})
	assert.Equal(t, "", carrier.Get("traceparent"))
}
