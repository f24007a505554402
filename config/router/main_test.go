package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/ratelimit"
)

func mountTestController(rs *RouterService) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(map[string]string{"ip": ctx.ClientIP()})
		})

		rs.AddGetHandler(c, nil, "ping", func(ctx *RequestContext) *ServiceResult {
			return OKResult(map[string]string{"status": "ok"})
		})

		rs.AddGetHandler(c, nil, "export", func(ctx *RequestContext) *ServiceResult {
			return AttachmentResult("text/csv; charset=utf-8", "export.csv", []byte("name,email,created_at"))
		})

		rs.AddPostHandler(c, ratelimit.NewInMemoryRateLimiter(1, time.Minute), "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad")
			}
			return OKResult(payload)
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T) *RouterService {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	return CreateRouterService(logger, nil, &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.IP != "10.0.0.2" {
		t.Fatalf("expected ClientIP to use RemoteAddr when trusted proxies disabled; got %q", resp.IP)
	}
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "*")

	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.IP != "1.1.1.1" {
		t.Fatalf("expected ClientIP to use X-Forwarded-For when trusted proxies enabled; got %q", resp.IP)
	}
}

func TestCORS_EchoesRequestOrigin(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://inboxparty.app")

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://inboxparty.app" {
		t.Fatalf("expected origin to be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Fatalf("unexpected Allow-Headers %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS, GET" {
		t.Fatalf("unexpected Allow-Methods %q", got)
	}
}

func TestCORS_WildcardForMissingAndNullOrigin(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	for _, origin := range []string{"", "null"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}

		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("expected wildcard for origin %q, got %q", origin, got)
		}
	}
}

func TestOptions_Returns204ForAnyPath(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	for _, path := range []string{"/ping", "/nope/never/registered"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://inboxparty.app")

		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204 for OPTIONS %s, got %d", path, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("expected empty body for OPTIONS %s, got %q", path, w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://inboxparty.app" {
			t.Fatalf("expected CORS headers on OPTIONS %s, got origin %q", path, got)
		}
	}
}

func TestNoRoute_ReturnsFlatNotFound(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/definitely-not-here", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Not found" {
		t.Fatalf("expected {\"error\": \"Not found\"}, got %v", resp)
	}
}

func TestWrongMethod_FallsThroughToNotFound(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodPut, "/ping", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for wrong method, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Not found" {
		t.Fatalf("expected {\"error\": \"Not found\"}, got %v", resp)
	}
}

func TestRateLimit_HandlerOverrideLimitsOnlyThatHandler(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"k":"v"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)
		return w
	}

	if w := post(); w.Code != http.StatusOK {
		t.Fatalf("expected first POST to pass, got %d: %s", w.Code, w.Body.String())
	}

	w := post()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second POST to be limited, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected flat error body on 429, got %v", resp)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}

	// The tight override must not bleed into other handlers.
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	wGet := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(wGet, req)
	if wGet.Code != http.StatusOK {
		t.Fatalf("expected GET to stay unlimited, got %d", wGet.Code)
	}
}

func TestRateLimit_ControllerOverrideCoversAllHandlers(t *testing.T) {
	rs := newTestRouterService(t)

	ctrl := NewRESTController("ThrottledController", "/throttled", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "a", func(ctx *RequestContext) *ServiceResult {
			return OKResult(map[string]string{"handler": "a"})
		})

		// Handler-level limiter wins over the controller-level one.
		rs.AddGetHandler(c, ratelimit.NewInMemoryRateLimiter(100, time.Minute), "b", func(ctx *RequestContext) *ServiceResult {
			return OKResult(map[string]string{"handler": "b"})
		})
	})
	ctrl.RateLimitWith(rs, ratelimit.NewInMemoryRateLimiter(1, time.Minute))
	rs.MountController(ctrl)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, req)
		return w
	}

	if w := get("/throttled/a"); w.Code != http.StatusOK {
		t.Fatalf("expected first GET to pass, got %d", w.Code)
	}
	if w := get("/throttled/a"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second GET to be limited by the controller override, got %d", w.Code)
	}

	// The generous handler-level limiter shields /throttled/b from the
	// controller-wide budget.
	for i := 0; i < 3; i++ {
		if w := get("/throttled/b"); w.Code != http.StatusOK {
			t.Fatalf("expected GET /throttled/b to stay open (request %d), got %d", i+1, w.Code)
		}
	}
}

func TestAttachmentResult_SetsDownloadHeaders(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected Content-Type %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="export.csv"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	if w.Body.String() != "name,email,created_at" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
