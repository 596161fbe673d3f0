package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"resume-builder/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	telemetry.SetLogger(zap.New(core))
	defer telemetry.SetLogger(zap.NewNop())

	router := gin.New()
	router.Use(RequestID(), Auth(testSigner(t)), Logging())
	router.GET("/test/:id", func(c *gin.Context) {
		c.Set("documentId", "doc-1")
		c.Set("statusTransition", "draft->active")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test/doc-1", nil)
	req.Header.Set("X-Guest-Id", testGuestID)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request.complete entry, got %d", len(entries))
	}
	payload := entries[0].ContextMap()

	for _, key := range []string{"request_id", "user_id", "document_id", "duration_ms", "status", "status_transition", "route"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["user_id"] != "guest:"+testGuestID {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["route"] != "/test/:id" {
		t.Fatalf("unexpected route: %v", payload["route"])
	}
	if payload["status_transition"] != "draft->active" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
}
