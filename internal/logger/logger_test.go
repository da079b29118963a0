package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Init("loud", false))
}

func TestInitAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", " error "} {
		require.NoError(t, Init(level, true), level)
	}
	require.NotNil(t, L())
}

func TestWithRequestIDAppendsField(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	fields := withRequestID(ctx, []Field{String("a", "b")})
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[1].Key)
	assert.Equal(t, "req-1", fields[1].String)

	assert.Len(t, withRequestID(context.Background(), nil), 0)
}

func TestMiddlewarePassesThrough(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestPackageFuncsReportCallerSite(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := L()
	replace(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
	t.Cleanup(func() { replace(prev.z) })

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-2")
	Info(ctx, "info entry")
	Warn(ctx, "warn entry")
	Error(ctx, "error entry", ErrorF(assert.AnError))

	entries := logs.All()
	require.Len(t, entries, 3)
	for _, e := range entries {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "logger_test.go", filepath.Base(e.Caller.File), e.Message)
		assert.Equal(t, "req-2", e.ContextMap()["request_id"], e.Message)
	}
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
