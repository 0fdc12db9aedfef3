package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediareport/pkg/logging"
)

type recordingLogger struct {
	debugs []string
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) DebugwCtx(_ context.Context, msg string, _ ...interface{}) {
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) WarnwCtx(_ context.Context, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) InfowCtx(_ context.Context, msg string, _ ...interface{}) {
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) ErrorwCtx(_ context.Context, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated when absent"},
		{name: "propagated when present", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(RequestIDMiddleware())
			r.GET("/", func(c *gin.Context) {
				seen = logging.GetRequestID(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	log := &recordingLogger{}
	r := gin.New()
	r.Use(RecoveryMiddleware(log))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.Equal(t, []string{"Panic recovered"}, log.errors)
}

func TestLoggerMiddlewareLevels(t *testing.T) {
	log := &recordingLogger{}
	r := gin.New()
	r.Use(LoggerMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ok", "/bad", "/fail", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Len(t, log.infos, 1)
	assert.Len(t, log.warns, 1)
	assert.Len(t, log.errors, 1)
	assert.Len(t, log.debugs, 1)
}
