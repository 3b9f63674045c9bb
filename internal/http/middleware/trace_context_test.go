package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyladder/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name      string
		requestID string
		keep      bool
	}{
		{"client id kept", "abc-123", true},
		{"blank replaced", "  ", false},
		{"oversized replaced", strings.Repeat("x", maxClientIDLen+1), false},
		{"control chars replaced", "bad\tid", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/x", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(headerRequestID, tc.requestID)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen == nil || seen.RequestID == "" || seen.TraceID == "" {
				t.Fatalf("trace data not attached: %+v", seen)
			}
			if got := rec.Header().Get(headerRequestID); got != seen.RequestID {
				t.Fatalf("echoed request id: want=%q got=%q", seen.RequestID, got)
			}
			if tc.keep && seen.RequestID != tc.requestID {
				t.Fatalf("request id: want=%q got=%q", tc.requestID, seen.RequestID)
			}
			if !tc.keep && seen.RequestID == tc.requestID {
				t.Fatalf("request id %q should have been replaced", tc.requestID)
			}
		})
	}
}
