package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-hatch-backend/internal/services"
)

func Test_fail_500_LogsAndHidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// simulate RequestID + request-scoped logger
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})

	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom", errors.New("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Success || resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if resp.Error != "internal server error" {
		t.Fatalf("500 body should not leak cause, got %q", resp.Error)
	}

	// the cause goes to the log instead
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "disk on fire") {
		t.Fatalf("expected error log with cause, got: %s", buf.String())
	}
}

func Test_Fail_404_And_SuccessHelper(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-404")
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope")
	})
	r.GET("/ok", func(c *gin.Context) {
		ok(c, http.StatusOK, gin.H{"success": true, "n": 1})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json 404: %v", err)
	}
	if er.RequestID != "rid-404" || er.Code != "not_found" || er.Message != "nope" || er.Error != "not found" {
		t.Fatalf("unexpected 404 body: %+v", er)
	}
	// success:false must be present, not omitted
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("missing success flag: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	var okBody map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &okBody); err != nil {
		t.Fatalf("json ok: %v", err)
	}
	if okBody["success"] != true || int(okBody["n"].(float64)) != 1 {
		t.Fatalf("unexpected ok body: %#v", okBody)
	}
}

func Test_serviceError_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("wrap: %w", services.ErrInvalidInput), http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", services.ErrEggNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"upstream", fmt.Errorf("egg image: %w: %w", services.ErrUpstream, errors.New("429")), http.StatusBadGateway, ErrCodeUpstream},
		{"download", fmt.Errorf("%w: status 403", services.ErrAssetDownload), http.StatusBadGateway, ErrCodeAssetDownload},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"other", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { serviceError(c, tc.err, "Failed") })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			var er ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &er)
			if er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}
